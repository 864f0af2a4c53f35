package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aleksaelezovic/quadline/pkg/store"
)

var (
	mQuadsNew = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadline_store_quads_new_count",
		Help: "Number of quads written to the indexes.",
	})
	mQuadsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadline_store_quads_dup_count",
		Help: "Number of inserts skipped because the quad was already stored.",
	})
	mQuadsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadline_store_quads_del_count",
		Help: "Number of quads removed from the indexes.",
	})
	mBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "quadline_store_batch_quads",
		Help:    "Number of quads committed per batch transaction.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	mKVGet = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadline_kv_get_count",
		Help: "Number of get KV calls.",
	})
	mKVGetMiss = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadline_kv_get_miss",
		Help: "Number of get KV calls that found no value.",
	})
	mKVPut = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadline_kv_put_count",
		Help: "Number of put KV calls.",
	})
	mKVDel = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadline_kv_del_count",
		Help: "Number of del KV calls.",
	})
	mKVScan = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadline_kv_scan_count",
		Help: "Number of scan KV calls.",
	})
	mKVCommit = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadline_kv_commit",
		Help: "Number of KV commits.",
	})
	mKVCommitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "quadline_kv_commit_seconds",
		Help: "Time to commit to KV.",
	})
	mKVRollback = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quadline_kv_rollback",
		Help: "Number of KV transactions discarded without commit.",
	})
)

func wrapTxn(txn store.Transaction) store.Transaction {
	return &mTxn{txn: txn}
}

// mTxn counts calls on the transaction it wraps
type mTxn struct {
	txn  store.Transaction
	done bool
}

func (t *mTxn) Get(table store.Table, key []byte) ([]byte, error) {
	mKVGet.Inc()
	val, err := t.txn.Get(table, key)
	if err == store.ErrNotFound {
		mKVGetMiss.Inc()
	}
	return val, err
}

func (t *mTxn) Set(table store.Table, key, value []byte) error {
	mKVPut.Inc()
	return t.txn.Set(table, key, value)
}

func (t *mTxn) Delete(table store.Table, key []byte) error {
	mKVDel.Inc()
	return t.txn.Delete(table, key)
}

func (t *mTxn) Scan(table store.Table, prefix []byte) (store.Iterator, error) {
	mKVScan.Inc()
	return t.txn.Scan(table, prefix)
}

func (t *mTxn) Commit() error {
	if !t.done {
		t.done = true
		mKVCommit.Inc()
		defer prometheus.NewTimer(mKVCommitSeconds).ObserveDuration()
	}
	return t.txn.Commit()
}

func (t *mTxn) Rollback() error {
	if !t.done {
		t.done = true
		mKVRollback.Inc()
	}
	return t.txn.Rollback()
}
