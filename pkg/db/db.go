// Package db exposes the snapshot-isolated MVCC engine: transactions
// that read a consistent view as of their begin timestamp, buffer
// writes locally, and publish them atomically under one fresh commit
// timestamp. There is no hidden global state; every DB owns its own
// counters and key table, so instances are independent.
package db

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/KotaSuchitra/MVCC/pkg/mvcc"
	"github.com/KotaSuchitra/MVCC/pkg/txn"
)

// Sentinel errors surfaced by the engine.
var (
	ErrDBClosed         = txn.ErrDBClosed
	ErrInvalidState     = txn.ErrInvalidState
	ErrCapacityExceeded = txn.ErrCapacityExceeded
	ErrEmptyKey         = txn.ErrEmptyKey
	ErrTxnConflict      = txn.ErrTxnConflict
	ErrKeyNotFound      = mvcc.ErrKeyNotFound
	ErrKeyExists        = mvcc.ErrKeyExists
)

type DB struct {
	opts    Options
	stopped atomic.Bool

	store    *mvcc.Store
	oracle   *txn.Oracle
	executor *txn.Executor
	logger   *zap.Logger
}

// Open creates an empty engine.
func Open(opts Options) *DB {
	store := mvcc.NewStore()
	return &DB{
		opts:     opts,
		store:    store,
		oracle:   txn.NewOracle(opts.DetectConflicts),
		executor: txn.NewExecutor(store),
		logger:   opts.logger(),
	}
}

// Stop shuts the commit path down. An in-flight commit finishes first;
// transactions begun before Stop that try to commit afterwards fail
// with ErrDBClosed. Uncommitted transactions held no shared state, so
// abandoning them leaks nothing.
func (db *DB) Stop() {
	if db.stopped.CompareAndSwap(false, true) {
		db.executor.Stop()
	}
}

// Begin starts a transaction whose snapshot is the current commit
// timestamp.
func (db *DB) Begin() (*txn.Txn, error) {
	if db.stopped.Load() {
		return nil, ErrDBClosed
	}
	return txn.New(db.store, db.oracle, db.executor, db.opts.MaxPendingWrites, db.logger), nil
}

// View runs fn in a transaction that is aborted afterwards, whatever
// fn returns. Writes buffered by fn are discarded.
func (db *DB) View(fn func(tx *txn.Txn) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Abort() }()
	return fn(tx)
}

// Update runs fn in a transaction and commits it if fn succeeds; if fn
// errors the transaction is aborted and the error returned.
func (db *DB) Update(fn func(tx *txn.Txn) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Abort()
		return err
	}
	return tx.Commit()
}

// CreateKey initializes key with a sentinel version at ts 0 carrying
// initial, so readers at any snapshot see a value. Keys first seen at
// commit get an empty sentinel instead.
func (db *DB) CreateKey(key string, initial []byte) error {
	if db.stopped.Load() {
		return ErrDBClosed
	}
	if len(key) == 0 {
		return ErrEmptyKey
	}
	db.logger.Debug("create key", zap.String("key", key))
	return db.store.CreateKey(key, initial)
}

// ReadAsOf resolves key at an arbitrary timestamp, bypassing any
// transaction. It fails with ErrKeyNotFound if the key was never
// created; a key with no visible version at ts yields (nil, false,
// nil).
func (db *DB) ReadAsOf(key string, ts uint64) ([]byte, bool, error) {
	if db.stopped.Load() {
		return nil, false, ErrDBClosed
	}
	return db.store.ReadAsOf(key, ts)
}

// DumpVersions enumerates key's full committed history, newest first.
func (db *DB) DumpVersions(key string) ([]mvcc.Version, error) {
	if db.stopped.Load() {
		return nil, ErrDBClosed
	}
	return db.store.DumpVersions(key)
}

// Keys returns all key names in lexical order.
func (db *DB) Keys() []string {
	return db.store.Keys()
}

// CurrentTs returns the most recently issued commit timestamp.
func (db *DB) CurrentTs() uint64 {
	return db.oracle.CurrentTs()
}
