package store

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/aleksaelezovic/quadline/internal/encoding"
	"github.com/aleksaelezovic/quadline/pkg/rdf"
	"github.com/aleksaelezovic/quadline/pkg/store"
)

// Quad positions
const (
	posS = iota
	posP
	posO
	posG
)

var positionNames = [4]string{"subject", "predicate", "object", "graph"}

// Key orders: order[i] is the quad position stored at key slot i
var (
	spog = [4]int{posS, posP, posO, posG}
	posg = [4]int{posP, posO, posS, posG}
	ospg = [4]int{posO, posS, posP, posG}
	gspo = [4]int{posG, posS, posP, posO}
)

type index struct {
	table store.Table
	order [4]int
}

// indexes in preference order; ties in selectIndex go to the earlier one
var indexes = []index{
	{store.TableSPOG, spog},
	{store.TablePOSG, posg},
	{store.TableOSPG, ospg},
	{store.TableGSPO, gspo},
}

// Pattern selects quads. A nil field matches anything; a DefaultGraph in
// Graph restricts the match to the default graph.
type Pattern struct {
	Subject   rdf.Term
	Predicate rdf.Term
	Object    rdf.Term
	Graph     rdf.Term
}

func (p Pattern) terms() [4]rdf.Term {
	return [4]rdf.Term{p.Subject, p.Predicate, p.Object, p.Graph}
}

// QuadIterator iterates over quads matching a pattern
type QuadIterator interface {
	Next() bool
	Quad() (*rdf.Quad, error)
	Close() error
}

// Match returns an iterator over the quads matching pattern, in key order of
// the index chosen for it. The iterator holds a read transaction open until
// Close.
func (s *QuadStore) Match(pattern Pattern) (QuadIterator, error) {
	var bound [4]*encoding.EncodedTerm
	for i, term := range pattern.terms() {
		if term == nil {
			continue
		}
		enc, _, err := s.encoder.EncodeTerm(term)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", positionNames[i], err)
		}
		bound[i] = &enc
	}

	idx := selectIndex(bound)
	prefix := buildScanPrefix(bound, idx.order)

	txn, err := s.begin(false)
	if err != nil {
		return nil, err
	}
	it, err := txn.Scan(idx.table, prefix)
	if err != nil {
		_ = txn.Rollback()
		return nil, err
	}

	return &quadIterator{
		store: s,
		txn:   txn,
		it:    it,
		order: idx.order,
		bound: bound,
	}, nil
}

// ForEach calls fn for every quad matching pattern. Returning ErrStop from
// fn ends the walk without an error.
func (s *QuadStore) ForEach(pattern Pattern, fn func(*rdf.Quad) error) error {
	it, err := s.Match(pattern)
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		quad, err := it.Quad()
		if err != nil {
			return err
		}
		if err := fn(quad); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return it.Close()
}

// ErrStop can be returned from a ForEach callback to stop early
var ErrStop = errors.New("stop iteration")

// selectIndex picks the index whose key order puts the most bound
// positions in front, so they can all go into the scan prefix.
func selectIndex(bound [4]*encoding.EncodedTerm) index {
	best, bestLen := indexes[0], -1
	for _, idx := range indexes {
		n := 0
		for _, pos := range idx.order {
			if bound[pos] == nil {
				break
			}
			n++
		}
		if n > bestLen {
			best, bestLen = idx, n
		}
	}
	return best
}

// buildScanPrefix concatenates bound terms in key order up to the first
// unbound position
func buildScanPrefix(bound [4]*encoding.EncodedTerm, order [4]int) []byte {
	var prefix []byte
	for _, pos := range order {
		if bound[pos] == nil {
			break
		}
		prefix = append(prefix, bound[pos][:]...)
	}
	return prefix
}

// quadIterator implements QuadIterator. Bound positions that were not part
// of the scan prefix are checked key by key.
type quadIterator struct {
	store  *QuadStore
	txn    store.Transaction
	it     store.Iterator
	order  [4]int
	bound  [4]*encoding.EncodedTerm
	cur    [4]encoding.EncodedTerm
	err    error
	closed bool
}

func (qi *quadIterator) Next() bool {
	if qi.closed || qi.err != nil {
		return false
	}
	for qi.it.Next() {
		slots, err := encoding.SplitKey(qi.it.Key())
		if err != nil {
			qi.err = err
			return false
		}
		if len(slots) != 4 {
			qi.err = fmt.Errorf("index key has %d terms, want 4", len(slots))
			return false
		}
		for i, pos := range qi.order {
			qi.cur[pos] = slots[i]
		}
		if qi.matches() {
			return true
		}
	}
	return false
}

func (qi *quadIterator) matches() bool {
	for pos, want := range qi.bound {
		if want != nil && !bytes.Equal(want[:], qi.cur[pos][:]) {
			return false
		}
	}
	return true
}

func (qi *quadIterator) Quad() (*rdf.Quad, error) {
	if qi.closed {
		return nil, fmt.Errorf("iterator closed")
	}
	if qi.err != nil {
		return nil, qi.err
	}

	var terms [4]rdf.Term
	for pos, enc := range qi.cur {
		term, err := qi.store.decodeTerm(qi.txn, enc)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", positionNames[pos], err)
		}
		terms[pos] = term
	}
	return rdf.NewQuad(terms[posS], terms[posP], terms[posO], terms[posG]), nil
}

// Close releases the read transaction. It returns any error that stopped
// iteration early.
func (qi *quadIterator) Close() error {
	if qi.closed {
		return qi.err
	}
	qi.closed = true
	_ = qi.it.Close()
	_ = qi.txn.Rollback()
	return qi.err
}
