package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleksaelezovic/quadline/internal/encoding"
	"github.com/aleksaelezovic/quadline/internal/storage"
	"github.com/aleksaelezovic/quadline/pkg/nquads"
	"github.com/aleksaelezovic/quadline/pkg/rdf"
	"github.com/aleksaelezovic/quadline/pkg/store"
)

var (
	alice   = rdf.NewNamedNode("http://example.org/alice")
	bob     = rdf.NewNamedNode("http://example.org/bob")
	name    = rdf.NewNamedNode("http://xmlns.com/foaf/0.1/name")
	knows   = rdf.NewNamedNode("http://xmlns.com/foaf/0.1/knows")
	graph1  = rdf.NewNamedNode("http://example.org/graph1")
	graph2  = rdf.NewNamedNode("http://example.org/graph2")
	longBio = rdf.NewLiteralWithLanguage("Alice is a researcher working on graph databases", "en")
)

// the Store interface the parser loads into
var (
	_ nquads.Store = (*QuadStore)(nil)
	_ nquads.Store = (*Batch)(nil)
)

func newTestStore(t *testing.T) *QuadStore {
	t.Helper()
	s, err := storage.NewInMemoryStorage()
	require.NoError(t, err)
	qs := NewQuadStore(s)
	t.Cleanup(func() { _ = qs.Close() })
	return qs
}

func testQuads() []*rdf.Quad {
	return []*rdf.Quad{
		rdf.NewQuad(alice, name, rdf.NewLiteral("Alice"), nil),
		rdf.NewQuad(bob, name, rdf.NewLiteral("Bob"), nil),
		rdf.NewQuad(alice, knows, bob, graph1),
		rdf.NewQuad(alice, name, longBio, graph1),
		rdf.NewQuad(bob, knows, alice, graph2),
		rdf.NewQuad(rdf.NewBlankNode("b0f3"), knows, rdf.NewBlankNode("7"), graph2),
	}
}

func collect(t *testing.T, qs *QuadStore, pattern Pattern) []*rdf.Quad {
	t.Helper()
	var quads []*rdf.Quad
	require.NoError(t, qs.ForEach(pattern, func(q *rdf.Quad) error {
		quads = append(quads, q)
		return nil
	}))
	return quads
}

func containsQuad(quads []*rdf.Quad, want *rdf.Quad) bool {
	for _, q := range quads {
		if q.Equals(want) {
			return true
		}
	}
	return false
}

func TestQuadStore_InsertAndCount(t *testing.T) {
	qs := newTestStore(t)

	for _, q := range testQuads() {
		require.NoError(t, qs.InsertQuad(q))
	}

	count, err := qs.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(6), count)

	// Duplicates are ignored
	require.NoError(t, qs.Add(alice, name, rdf.NewLiteral("Alice"), rdf.NewDefaultGraph()))
	require.NoError(t, qs.Add(alice, name, rdf.NewLiteral("Alice"), nil))
	count, err = qs.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(6), count)

	for _, q := range testQuads() {
		found, err := qs.Contains(q)
		require.NoError(t, err)
		assert.True(t, found, "missing %s", q)
	}

	found, err := qs.Contains(rdf.NewQuad(alice, name, rdf.NewLiteral("Alice"), graph1))
	require.NoError(t, err)
	assert.False(t, found, "graph is part of quad identity")
}

func TestQuadStore_Graphs(t *testing.T) {
	qs := newTestStore(t)
	for _, q := range testQuads() {
		require.NoError(t, qs.InsertQuad(q))
	}

	graphs, err := qs.Graphs()
	require.NoError(t, err)
	require.Len(t, graphs, 2)

	counts := make(map[string]uint64)
	for _, g := range graphs {
		counts[g.Graph.String()] = g.Quads
	}
	assert.Equal(t, map[string]uint64{graph1.String(): 2, graph2.String(): 2}, counts)
}

func TestQuadStore_Match(t *testing.T) {
	qs := newTestStore(t)
	for _, q := range testQuads() {
		require.NoError(t, qs.InsertQuad(q))
	}

	tests := []struct {
		name    string
		pattern Pattern
		want    int
	}{
		{"everything", Pattern{}, 6},
		{"subject", Pattern{Subject: alice}, 3},
		{"predicate", Pattern{Predicate: knows}, 3},
		{"object", Pattern{Object: alice}, 1},
		{"named graph", Pattern{Graph: graph2}, 2},
		{"default graph", Pattern{Graph: rdf.NewDefaultGraph()}, 2},
		{"subject in graph", Pattern{Subject: alice, Graph: graph1}, 2},
		{"subject and object skips a position", Pattern{Subject: alice, Object: bob}, 1},
		{"predicate in default graph", Pattern{Predicate: name, Graph: rdf.NewDefaultGraph()}, 2},
		{"exact quad", Pattern{Subject: bob, Predicate: knows, Object: alice, Graph: graph2}, 1},
		{"no match", Pattern{Subject: bob, Graph: graph1}, 0},
		{"literal object", Pattern{Object: longBio}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quads := collect(t, qs, tt.pattern)
			assert.Len(t, quads, tt.want)
			for _, q := range quads {
				if tt.pattern.Subject != nil {
					assert.True(t, q.Subject.Equals(tt.pattern.Subject))
				}
				if tt.pattern.Graph != nil {
					assert.True(t, q.Graph.Equals(tt.pattern.Graph))
				}
			}
		})
	}
}

func TestQuadStore_RoundTripsTerms(t *testing.T) {
	qs := newTestStore(t)
	for _, q := range testQuads() {
		require.NoError(t, qs.InsertQuad(q))
	}

	quads := collect(t, qs, Pattern{})
	for _, want := range testQuads() {
		assert.True(t, containsQuad(quads, want), "missing %s", want)
	}
}

func TestSelectIndex(t *testing.T) {
	enc := NewQuadStore(nil).encoder
	s, _, _ := enc.EncodeTerm(alice)
	g, _, _ := enc.EncodeTerm(graph1)
	o, _, _ := enc.EncodeTerm(bob)

	tests := []struct {
		name   string
		bound  [4]bool
		table  string
		prefix int
	}{
		{"nothing bound", [4]bool{}, "spog", 0},
		{"subject", [4]bool{true, false, false, false}, "spog", 1},
		{"predicate", [4]bool{false, true, false, false}, "posg", 1},
		{"object", [4]bool{false, false, true, false}, "ospg", 1},
		{"graph", [4]bool{false, false, false, true}, "gspo", 1},
		{"subject and graph", [4]bool{true, false, false, true}, "gspo", 2},
		{"object and subject", [4]bool{true, false, true, false}, "ospg", 2},
		{"all", [4]bool{true, true, true, true}, "spog", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var terms [4]*encoding.EncodedTerm
			for i, b := range tt.bound {
				if !b {
					continue
				}
				switch i {
				case posG:
					terms[i] = &g
				case posO:
					terms[i] = &o
				default:
					terms[i] = &s
				}
			}
			idx := selectIndex(terms)
			assert.Equal(t, tt.table, idx.table.String())
			assert.Len(t, buildScanPrefix(terms, idx.order), tt.prefix*encoding.EncodedTermSize)
		})
	}
}

func TestQuadStore_RemoveQuad(t *testing.T) {
	qs := newTestStore(t)
	for _, q := range testQuads() {
		require.NoError(t, qs.InsertQuad(q))
	}

	removed, err := qs.RemoveQuad(rdf.NewQuad(alice, knows, bob, graph1))
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = qs.RemoveQuad(rdf.NewQuad(alice, knows, bob, graph1))
	require.NoError(t, err)
	assert.False(t, removed)

	count, err := qs.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), count)
	assert.Empty(t, collect(t, qs, Pattern{Predicate: knows, Graph: graph1}))

	removed, err = qs.RemoveQuad(rdf.NewQuad(alice, name, longBio, graph1))
	require.NoError(t, err)
	require.True(t, removed)

	graphs, err := qs.Graphs()
	require.NoError(t, err)
	require.Len(t, graphs, 1, "empty graphs are dropped")
	assert.True(t, graph2.Equals(graphs[0].Graph))
}

func TestQuadStore_InvalidQuads(t *testing.T) {
	qs := newTestStore(t)

	tests := []struct {
		name string
		quad *rdf.Quad
	}{
		{"literal subject", rdf.NewQuad(rdf.NewLiteral("x"), name, bob, nil)},
		{"blank predicate", rdf.NewQuad(alice, rdf.NewBlankNode("p"), bob, nil)},
		{"literal graph", rdf.NewQuad(alice, name, bob, rdf.NewLiteral("g"))},
		{"missing object", &rdf.Quad{Subject: alice, Predicate: name}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, qs.InsertQuad(tt.quad), ErrInvalidQuad)
		})
	}

	count, err := qs.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestQuadStore_ForEachStop(t *testing.T) {
	qs := newTestStore(t)
	for _, q := range testQuads() {
		require.NoError(t, qs.InsertQuad(q))
	}

	seen := 0
	err := qs.ForEach(Pattern{}, func(*rdf.Quad) error {
		seen++
		if seen == 2 {
			return ErrStop
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, seen)

	boom := errors.New("boom")
	err = qs.ForEach(Pattern{}, func(*rdf.Quad) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestBatch(t *testing.T) {
	qs := newTestStore(t)
	commits := testutil.ToFloat64(mKVCommit)

	batch := qs.NewBatch(4)
	for _, q := range testQuads() {
		require.NoError(t, batch.Add(q.Subject, q.Predicate, q.Object, q.Graph))
	}
	// first four were committed by the batch itself
	count, err := qs.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)

	require.NoError(t, batch.Add(alice, name, rdf.NewLiteral("Alice"), nil))
	require.NoError(t, batch.Commit())
	require.NoError(t, batch.Commit(), "commit without pending quads is a no-op")

	count, err = qs.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(6), count)
	assert.Equal(t, 6, batch.Added)
	assert.Equal(t, commits+2, testutil.ToFloat64(mKVCommit))
}

func TestBatch_ErrorDiscardsPending(t *testing.T) {
	qs := newTestStore(t)

	batch := qs.NewBatch(0)
	require.NoError(t, batch.Add(alice, name, rdf.NewLiteral("Alice"), nil))
	err := batch.Add(rdf.NewLiteral("bad"), name, bob, nil)
	require.ErrorIs(t, err, ErrInvalidQuad)
	require.NoError(t, batch.Commit())

	count, err := qs.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLoadThroughParser(t *testing.T) {
	qs := newTestStore(t)
	batch := qs.NewBatch(2)
	p := nquads.NewParser(rdf.NewDataFactory(), batch, nquads.WithMetrics(false))

	doc := `<http://example.org/alice> <http://xmlns.com/foaf/0.1/knows> _:x .
_:x <http://xmlns.com/foaf/0.1/name> "X"@en <http://example.org/graph1> .
_:x <http://example.org/age> "42"^^<http://www.w3.org/2001/XMLSchema#integer> .
<http://example.org/alice> <http://example.org/active> "1"^^<http://www.w3.org/2001/XMLSchema#boolean> .
`
	require.NoError(t, p.LoadBuf(doc))
	require.NoError(t, batch.Commit())

	count, err := qs.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)

	knowsX := collect(t, qs, Pattern{Subject: alice, Predicate: knows})
	require.Len(t, knowsX, 1)
	x := knowsX[0].Object
	require.Equal(t, rdf.TermTypeBlankNode, x.Type())

	aboutX := collect(t, qs, Pattern{Subject: x})
	assert.Len(t, aboutX, 2, "blank node identity survives the round trip")

	active := collect(t, qs, Pattern{Predicate: rdf.NewNamedNode("http://example.org/active")})
	require.Len(t, active, 1)
	assert.True(t, rdf.NewBooleanLiteral(true).Equals(active[0].Object))
}

// cappedStorage refuses writes past maxSets per transaction, the way badger
// reports ErrTxnTooBig
type cappedStorage struct {
	store.Storage
	maxSets int
}

func (s *cappedStorage) Begin(writable bool) (store.Transaction, error) {
	txn, err := s.Storage.Begin(writable)
	if err != nil {
		return nil, err
	}
	return &cappedTxn{Transaction: txn, left: s.maxSets}, nil
}

type cappedTxn struct {
	store.Transaction
	left int
}

func (t *cappedTxn) Set(table store.Table, key, value []byte) error {
	if t.left == 0 {
		return store.ErrTxnTooBig
	}
	t.left--
	return t.Transaction.Set(table, key, value)
}

func newCappedStore(t *testing.T, maxSets int) *QuadStore {
	t.Helper()
	s, err := storage.NewInMemoryStorage()
	require.NoError(t, err)
	qs := NewQuadStore(&cappedStorage{Storage: s, maxSets: maxSets})
	t.Cleanup(func() { _ = qs.Close() })
	return qs
}

func TestBatch_CommitsEarlyWhenTransactionIsFull(t *testing.T) {
	// each new subject costs 6 writes: payload, 4 indexes, quad counter
	qs := newCappedStore(t, 20)
	commits := testutil.ToFloat64(mKVCommit)

	batch := qs.NewBatch(100)
	var quads []*rdf.Quad
	for i := 0; i < 10; i++ {
		q := rdf.NewQuad(rdf.NewNamedNode(fmt.Sprintf("http://example.org/person/%d", i)), name, rdf.NewLiteral("x"), nil)
		quads = append(quads, q)
		require.NoError(t, batch.Add(q.Subject, q.Predicate, q.Object, q.Graph))
	}
	require.NoError(t, batch.Add(quads[0].Subject, quads[0].Predicate, quads[0].Object, nil))
	require.NoError(t, batch.Commit())

	count, err := qs.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(10), count)
	assert.Equal(t, 10, batch.Added)
	assert.Greater(t, testutil.ToFloat64(mKVCommit)-commits, 2.0)

	for _, q := range quads {
		ok, err := qs.Contains(q)
		require.NoError(t, err)
		assert.True(t, ok, "%s", q)
	}
}

func TestBatch_QuadLargerThanTransaction(t *testing.T) {
	qs := newCappedStore(t, 3)

	batch := qs.NewBatch(0)
	err := batch.Add(alice, name, rdf.NewLiteral("Alice"), nil)
	require.ErrorIs(t, err, store.ErrTxnTooBig)
	require.NoError(t, batch.Commit())

	count, err := qs.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, batch.Added)
}

func TestQuadStore_SyncPersists(t *testing.T) {
	dir := t.TempDir()

	s, err := storage.NewBadgerStorage(dir)
	require.NoError(t, err)
	qs := NewQuadStore(s)
	batch := qs.NewBatch(0)
	for _, q := range testQuads() {
		require.NoError(t, batch.Add(q.Subject, q.Predicate, q.Object, q.Graph))
	}
	require.NoError(t, batch.Commit())
	require.NoError(t, qs.Sync())
	require.NoError(t, qs.Close())

	s, err = storage.NewBadgerStorage(dir)
	require.NoError(t, err)
	reopened := NewQuadStore(s)
	defer reopened.Close()

	count, err := reopened.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(len(testQuads())), count)

	assert.NoError(t, newTestStore(t).Sync(), "in-memory stores have nothing to flush")
}
