package storage

import (
	"errors"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/aleksaelezovic/quadline/clog"
	"github.com/aleksaelezovic/quadline/pkg/store"
)

// BadgerStorage implements store.Storage using BadgerDB
type BadgerStorage struct {
	db *badger.DB
}

// NewBadgerStorage opens (or creates) a BadgerDB database in path
func NewBadgerStorage(path string) (*BadgerStorage, error) {
	return open(badger.DefaultOptions(path))
}

// NewInMemoryStorage creates a BadgerDB instance that never touches disk
func NewInMemoryStorage() (*BadgerStorage, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*BadgerStorage, error) {
	opts = opts.WithLogger(badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &BadgerStorage{db: db}, nil
}

func (s *BadgerStorage) Begin(writable bool) (store.Transaction, error) {
	return &BadgerTransaction{
		txn:      s.db.NewTransaction(writable),
		writable: writable,
	}, nil
}

func (s *BadgerStorage) Close() error {
	return s.db.Close()
}

// Sync flushes writes to disk. In-memory databases have nothing to flush.
func (s *BadgerStorage) Sync() error {
	if s.db.Opts().InMemory {
		return nil
	}
	return s.db.Sync()
}

// BadgerTransaction implements store.Transaction using BadgerDB
type BadgerTransaction struct {
	txn      *badger.Txn
	writable bool
}

func (t *BadgerTransaction) Get(table store.Table, key []byte) ([]byte, error) {
	item, err := t.txn.Get(store.PrefixKey(table, key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (t *BadgerTransaction) Set(table store.Table, key, value []byte) error {
	if !t.writable {
		return store.ErrTransactionRO
	}
	return translate(t.txn.Set(store.PrefixKey(table, key), value))
}

func (t *BadgerTransaction) Delete(table store.Table, key []byte) error {
	if !t.writable {
		return store.ErrTransactionRO
	}
	return translate(t.txn.Delete(store.PrefixKey(table, key)))
}

func (t *BadgerTransaction) Scan(table store.Table, prefix []byte) (store.Iterator, error) {
	scanPrefix := store.PrefixKey(table, prefix)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = scanPrefix
	// Index entries carry empty values; don't prefetch them.
	opts.PrefetchValues = table == store.TableID2Str || table == store.TableGraphs

	return &BadgerIterator{
		it:     t.txn.NewIterator(opts),
		prefix: scanPrefix,
	}, nil
}

func (t *BadgerTransaction) Commit() error {
	return t.txn.Commit()
}

// Rollback discards the transaction; it is safe to call after Commit.
func (t *BadgerTransaction) Rollback() error {
	t.txn.Discard()
	return nil
}

func translate(err error) error {
	if errors.Is(err, badger.ErrTxnTooBig) {
		return store.ErrTxnTooBig
	}
	return err
}

// BadgerIterator implements store.Iterator over one key prefix
type BadgerIterator struct {
	it       *badger.Iterator
	prefix   []byte
	started  bool
	hasValue bool
}

func (i *BadgerIterator) Next() bool {
	if !i.started {
		i.it.Seek(i.prefix)
		i.started = true
	} else {
		i.it.Next()
	}
	i.hasValue = i.it.ValidForPrefix(i.prefix)
	return i.hasValue
}

// Key returns the current key without the table prefix
func (i *BadgerIterator) Key() []byte {
	if !i.hasValue {
		return nil
	}
	return i.it.Item().KeyCopy(nil)[1:]
}

func (i *BadgerIterator) Value() ([]byte, error) {
	if !i.hasValue {
		return nil, store.ErrNotFound
	}
	return i.it.Item().ValueCopy(nil)
}

func (i *BadgerIterator) Close() error {
	i.it.Close()
	return nil
}

// badgerLogger routes badger's internal logging through clog. Info and
// debug output is only emitted at higher verbosity.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	clog.Errorf("badger: "+strings.TrimSuffix(format, "\n"), args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	clog.Warningf("badger: "+strings.TrimSuffix(format, "\n"), args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	if clog.V(2) {
		clog.Infof("badger: "+strings.TrimSuffix(format, "\n"), args...)
	}
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	if clog.V(4) {
		clog.Infof("badger: "+strings.TrimSuffix(format, "\n"), args...)
	}
}
