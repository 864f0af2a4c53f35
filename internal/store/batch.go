package store

import (
	"errors"
	"time"

	"github.com/aleksaelezovic/quadline/clog"
	"github.com/aleksaelezovic/quadline/pkg/rdf"
	"github.com/aleksaelezovic/quadline/pkg/store"
)

// DefaultBatchSize is the number of quads written per transaction by a Batch
const DefaultBatchSize = 1000

// Batch groups inserts into transactions of up to size quads. It satisfies
// nquads.Store, so a whole document can be loaded through it. Quads become
// visible as each transaction commits; call Commit after the last Add.
// When the storage refuses a transaction as too big, the quads that fit are
// committed and the batch carries on in a new transaction.
// A Batch is not safe for concurrent use.
type Batch struct {
	s       *QuadStore
	size    int
	txn     store.Transaction
	pending []*rdf.Quad
	added   int
	started time.Time

	// Added counts committed quads that were new to the store
	Added int
}

// NewBatch creates a batch writer. A size below 1 uses DefaultBatchSize.
func (s *QuadStore) NewBatch(size int) *Batch {
	if size < 1 {
		size = DefaultBatchSize
	}
	return &Batch{s: s, size: size}
}

func (b *Batch) Add(subject, predicate, object, graph rdf.Term) error {
	quad := rdf.NewQuad(subject, predicate, object, graph)

	err := b.insert(quad)
	if errors.Is(err, store.ErrTxnTooBig) && len(b.pending) > 0 {
		if err = b.commitPending(); err == nil {
			err = b.insert(quad)
		}
	}
	if err != nil {
		b.Discard()
		return err
	}

	if len(b.pending) >= b.size {
		return b.Commit()
	}
	return nil
}

func (b *Batch) insert(quad *rdf.Quad) error {
	if b.txn == nil {
		txn, err := b.s.begin(true)
		if err != nil {
			return err
		}
		b.txn = txn
		b.started = time.Now()
	}

	added, err := b.s.insertQuadInTxn(b.txn, quad)
	if err != nil {
		return err
	}
	if added {
		b.added++
	}
	b.pending = append(b.pending, quad)
	return nil
}

// commitPending drops the overflowing transaction, which may hold part of
// the quad that did not fit, and commits the quads before it in a new one.
func (b *Batch) commitPending() error {
	pending := b.pending
	b.Discard()

	if clog.V(2) {
		clog.Infof("store: transaction full after %d quads, committing early", len(pending))
	}
	for _, q := range pending {
		if err := b.insert(q); err != nil {
			return err
		}
	}
	return b.Commit()
}

// Commit writes any pending quads
func (b *Batch) Commit() error {
	if b.txn == nil {
		return nil
	}
	txn, n, added := b.txn, len(b.pending), b.added
	b.txn, b.pending, b.added = nil, nil, 0

	defer txn.Rollback()
	if err := txn.Commit(); err != nil {
		return err
	}

	b.Added += added
	mBatchSize.Observe(float64(n))
	if clog.V(2) {
		clog.Infof("store: committed batch of %d quads in %v", n, time.Since(b.started))
	}
	return nil
}

// Discard drops pending quads that were not committed yet
func (b *Batch) Discard() {
	if b.txn == nil {
		return
	}
	_ = b.txn.Rollback()
	b.txn, b.pending, b.added = nil, nil, 0
}
