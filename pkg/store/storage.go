// Package store defines the key-value storage contract that quad indexes are
// built on. Implementations live in internal/storage.
package store

import (
	"errors"
)

var (
	ErrNotFound      = errors.New("key not found")
	ErrTransactionRO = errors.New("transaction is read-only")
	ErrTxnTooBig     = errors.New("transaction too big")
)

// Storage is the interface for the underlying key-value store
type Storage interface {
	// Begin starts a new transaction
	Begin(writable bool) (Transaction, error)

	Close() error

	// Sync flushes writes to disk
	Sync() error
}

// Transaction is a snapshot-isolated unit of work. Rollback after a
// successful Commit is a no-op, so callers may always defer it.
type Transaction interface {
	Get(table Table, key []byte) ([]byte, error)

	// Set stores a key-value pair. It returns ErrTxnTooBig when the
	// transaction cannot take more writes and must be committed first.
	Set(table Table, key, value []byte) error

	Delete(table Table, key []byte) error

	// Scan iterates over keys of table starting with prefix. A nil prefix
	// scans the whole table.
	Scan(table Table, prefix []byte) (Iterator, error)

	Commit() error
	Rollback() error
}

// Iterator walks key-value pairs in key order
type Iterator interface {
	Next() bool

	// Key returns the current key without its table prefix
	Key() []byte

	Value() ([]byte, error)
	Close() error
}

// Table is a logical keyspace inside the storage
type Table byte

const (
	// Term payloads: hash -> lexical form
	TableID2Str Table = iota

	// Quad indexes, one per key order. SPOG is the primary index; the
	// others exist so a bound position can be used as a scan prefix.
	TableSPOG
	TablePOSG
	TableOSPG
	TableGSPO

	// Named graph -> number of quads in it
	TableGraphs

	// Store-wide counters
	TableMeta

	TableCount
)

func (t Table) String() string {
	switch t {
	case TableID2Str:
		return "id2str"
	case TableSPOG:
		return "spog"
	case TablePOSG:
		return "posg"
	case TableOSPG:
		return "ospg"
	case TableGSPO:
		return "gspo"
	case TableGraphs:
		return "graphs"
	case TableMeta:
		return "meta"
	default:
		return "unknown"
	}
}

// TablePrefix returns the byte prefix that namespaces a table's keys
func TablePrefix(table Table) []byte {
	return []byte{byte(table)}
}

// PrefixKey adds a table prefix to a key
func PrefixKey(table Table, key []byte) []byte {
	result := make([]byte, 1+len(key))
	result[0] = byte(table)
	copy(result[1:], key)
	return result
}
