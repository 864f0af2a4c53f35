// Package store implements a permutation-indexed quad store on top of a
// key-value storage.
//
// Every quad is written to four indexes (SPOG, POSG, OSPG, GSPO) of 68-byte
// keys with empty values. Term lexical forms live once in id2str, keyed by
// their hash. The number of quads, overall and per named graph, is kept
// up to date on every write so counting never scans.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/aleksaelezovic/quadline/clog"
	"github.com/aleksaelezovic/quadline/internal/encoding"
	"github.com/aleksaelezovic/quadline/pkg/rdf"
	"github.com/aleksaelezovic/quadline/pkg/store"
)

// ErrInvalidQuad is returned for quads whose terms are not allowed in their
// position, e.g. a literal subject.
var ErrInvalidQuad = errors.New("invalid quad")

var metaQuadCount = []byte("quads")

// QuadStore manages quads in a store.Storage. It satisfies nquads.Store.
type QuadStore struct {
	storage store.Storage
	encoder *encoding.TermEncoder
	decoder *encoding.TermDecoder
}

// NewQuadStore creates a quad store over storage
func NewQuadStore(storage store.Storage) *QuadStore {
	return &QuadStore{
		storage: storage,
		encoder: encoding.NewTermEncoder(),
		decoder: encoding.NewTermDecoder(),
	}
}

// Close closes the underlying storage
func (s *QuadStore) Close() error {
	return s.storage.Close()
}

// Sync flushes committed writes to durable storage
func (s *QuadStore) Sync() error {
	return s.storage.Sync()
}

func (s *QuadStore) begin(writable bool) (store.Transaction, error) {
	txn, err := s.storage.Begin(writable)
	if err != nil {
		return nil, err
	}
	return wrapTxn(txn), nil
}

// Add inserts one quad in its own transaction. A nil graph means the
// default graph. Adding a quad that is already present is a no-op.
func (s *QuadStore) Add(subject, predicate, object, graph rdf.Term) error {
	return s.InsertQuad(rdf.NewQuad(subject, predicate, object, graph))
}

// InsertQuad inserts a quad into the store
func (s *QuadStore) InsertQuad(quad *rdf.Quad) error {
	txn, err := s.begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	if _, err := s.insertQuadInTxn(txn, quad); err != nil {
		return err
	}
	return txn.Commit()
}

// RemoveQuad deletes a quad. It reports whether the quad was present.
func (s *QuadStore) RemoveQuad(quad *rdf.Quad) (bool, error) {
	txn, err := s.begin(true)
	if err != nil {
		return false, err
	}
	defer txn.Rollback()

	removed, err := s.removeQuadInTxn(txn, quad)
	if err != nil || !removed {
		return false, err
	}
	return true, txn.Commit()
}

// Contains reports whether the exact quad is stored
func (s *QuadStore) Contains(quad *rdf.Quad) (bool, error) {
	eq, err := s.encodeQuad(quad)
	if err != nil {
		return false, err
	}

	txn, err := s.begin(false)
	if err != nil {
		return false, err
	}
	defer txn.Rollback()

	return exists(txn, store.TableSPOG, eq.key(spog))
}

// Count returns the number of stored quads
func (s *QuadStore) Count() (uint64, error) {
	txn, err := s.begin(false)
	if err != nil {
		return 0, err
	}
	defer txn.Rollback()

	return getCounter(txn, store.TableMeta, metaQuadCount)
}

// GraphCount is the number of quads in one named graph
type GraphCount struct {
	Graph rdf.Term
	Quads uint64
}

// Graphs lists the named graphs that hold at least one quad. The default
// graph is not included.
func (s *QuadStore) Graphs() ([]GraphCount, error) {
	txn, err := s.begin(false)
	if err != nil {
		return nil, err
	}
	defer txn.Rollback()

	it, err := txn.Scan(store.TableGraphs, nil)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var graphs []GraphCount
	for it.Next() {
		var g encoding.EncodedTerm
		copy(g[:], it.Key())

		graph, err := s.decodeTerm(txn, g)
		if err != nil {
			return nil, fmt.Errorf("failed to decode graph: %w", err)
		}
		val, err := it.Value()
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, GraphCount{Graph: graph, Quads: decodeCounter(val)})
	}
	return graphs, nil
}

// validate checks term positions. Blank node predicates and literal
// subjects are rejected, matching what the N-Quads decoder produces.
func validate(quad *rdf.Quad) error {
	if quad == nil || quad.Subject == nil || quad.Predicate == nil || quad.Object == nil {
		return fmt.Errorf("%w: missing term", ErrInvalidQuad)
	}
	switch quad.Subject.Type() {
	case rdf.TermTypeNamedNode, rdf.TermTypeBlankNode:
	default:
		return fmt.Errorf("%w: subject %s", ErrInvalidQuad, quad.Subject)
	}
	if quad.Predicate.Type() != rdf.TermTypeNamedNode {
		return fmt.Errorf("%w: predicate %s", ErrInvalidQuad, quad.Predicate)
	}
	if quad.Object.Type() == rdf.TermTypeDefaultGraph {
		return fmt.Errorf("%w: object %s", ErrInvalidQuad, quad.Object)
	}
	if !quad.InDefaultGraph() && quad.Graph.Type() != rdf.TermTypeNamedNode && quad.Graph.Type() != rdf.TermTypeBlankNode {
		return fmt.Errorf("%w: graph %s", ErrInvalidQuad, quad.Graph)
	}
	return nil
}

// encodedQuad holds the encoded positions in S, P, O, G order plus the
// payloads of hashed terms.
type encodedQuad struct {
	terms    [4]encoding.EncodedTerm
	payloads [4][]byte
}

func (s *QuadStore) encodeQuad(quad *rdf.Quad) (*encodedQuad, error) {
	if err := validate(quad); err != nil {
		return nil, err
	}
	graph := quad.Graph
	if graph == nil {
		graph = rdf.NewDefaultGraph()
	}

	var eq encodedQuad
	for i, term := range [4]rdf.Term{quad.Subject, quad.Predicate, quad.Object, graph} {
		enc, payload, err := s.encoder.EncodeTerm(term)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", positionNames[i], err)
		}
		eq.terms[i] = enc
		eq.payloads[i] = payload
	}
	return &eq, nil
}

// key builds the index key for the given position order
func (eq *encodedQuad) key(order [4]int) []byte {
	return encoding.EncodeKey(eq.terms[order[0]], eq.terms[order[1]], eq.terms[order[2]], eq.terms[order[3]])
}

func (eq *encodedQuad) inDefaultGraph() bool {
	return eq.terms[posG].Kind() == encoding.KindDefaultGraph
}

// insertQuadInTxn writes the quad into every index. It reports false when
// the quad was already present, in which case nothing is written.
func (s *QuadStore) insertQuadInTxn(txn store.Transaction, quad *rdf.Quad) (bool, error) {
	eq, err := s.encodeQuad(quad)
	if err != nil {
		return false, err
	}

	found, err := exists(txn, store.TableSPOG, eq.key(spog))
	if err != nil {
		return false, err
	}
	if found {
		mQuadsDuplicate.Inc()
		return false, nil
	}

	for i, payload := range eq.payloads {
		if payload == nil {
			continue
		}
		if err := storePayload(txn, eq.terms[i], payload); err != nil {
			return false, err
		}
	}

	for _, idx := range indexes {
		if err := txn.Set(idx.table, eq.key(idx.order), nil); err != nil {
			return false, fmt.Errorf("failed to write %s: %w", idx.table, err)
		}
	}

	if err := addCounter(txn, store.TableMeta, metaQuadCount, 1); err != nil {
		return false, err
	}
	if !eq.inDefaultGraph() {
		if err := addCounter(txn, store.TableGraphs, eq.terms[posG][:], 1); err != nil {
			return false, err
		}
	}

	mQuadsNew.Inc()
	return true, nil
}

// removeQuadInTxn deletes the quad's index entries. Term payloads are left
// in id2str since other quads may still refer to them.
func (s *QuadStore) removeQuadInTxn(txn store.Transaction, quad *rdf.Quad) (bool, error) {
	eq, err := s.encodeQuad(quad)
	if err != nil {
		return false, err
	}

	found, err := exists(txn, store.TableSPOG, eq.key(spog))
	if err != nil || !found {
		return false, err
	}

	for _, idx := range indexes {
		if err := txn.Delete(idx.table, eq.key(idx.order)); err != nil {
			return false, fmt.Errorf("failed to delete from %s: %w", idx.table, err)
		}
	}

	if err := addCounter(txn, store.TableMeta, metaQuadCount, -1); err != nil {
		return false, err
	}
	if !eq.inDefaultGraph() {
		if err := addCounter(txn, store.TableGraphs, eq.terms[posG][:], -1); err != nil {
			return false, err
		}
	}

	mQuadsDeleted.Inc()
	return true, nil
}

// storePayload records a term's lexical form unless it is already there
func storePayload(txn store.Transaction, term encoding.EncodedTerm, payload []byte) error {
	found, err := exists(txn, store.TableID2Str, term.Hash())
	if err != nil || found {
		return err
	}
	return txn.Set(store.TableID2Str, term.Hash(), payload)
}

func (s *QuadStore) decodeTerm(txn store.Transaction, encoded encoding.EncodedTerm) (rdf.Term, error) {
	if encoded.Kind().Inline() {
		return s.decoder.DecodeTerm(encoded, nil)
	}

	payload, err := txn.Get(store.TableID2Str, encoded.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to load term payload: %w", err)
	}
	if payload == nil {
		payload = []byte{}
	}
	return s.decoder.DecodeTerm(encoded, payload)
}

func exists(txn store.Transaction, table store.Table, key []byte) (bool, error) {
	_, err := txn.Get(table, key)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func decodeCounter(val []byte) uint64 {
	if len(val) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(val)
}

func getCounter(txn store.Transaction, table store.Table, key []byte) (uint64, error) {
	val, err := txn.Get(table, key)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return decodeCounter(val), nil
}

// addCounter adjusts a counter; a counter that drops to zero is deleted
func addCounter(txn store.Transaction, table store.Table, key []byte, delta int64) error {
	current, err := getCounter(txn, table, key)
	if err != nil {
		return err
	}

	next := int64(current) + delta // #nosec G115 - counters stay far below 2^63
	if next <= 0 {
		if next < 0 {
			clog.Warningf("store: %s counter %x went negative, resetting", table, key)
		}
		return txn.Delete(table, key)
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(next))
	return txn.Set(table, key, buf[:])
}
