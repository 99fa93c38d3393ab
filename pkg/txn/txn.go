package txn

import (
	"go.uber.org/zap"

	"github.com/KotaSuchitra/MVCC/pkg/mvcc"
)

// State is a transaction's lifecycle state. Active is the only state
// that accepts operations; Committed and Aborted are terminal.
type State uint8

const (
	StateActive State = iota
	StateCommitted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Txn is a snapshot-isolated transaction. Reads resolve against the
// store as of startTs; writes accumulate in the write buffer and touch
// nothing shared until Commit publishes them under one fresh commit
// timestamp.
//
// Reads see only committed versions: a transaction's own buffered
// writes are invisible to its own Get until they are committed.
//
// A Txn is owned by the caller that began it and must not be shared
// across goroutines.
type Txn struct {
	id       uint64
	startTs  uint64
	commitTs uint64
	state    State

	writeSet *Batch

	store    *mvcc.Store
	oracle   *Oracle
	executor *Executor
	logger   *zap.Logger
}

// New begins a transaction: a fresh id and a snapshot of the current
// commit timestamp. Beginning does not consume a commit timestamp. The
// snapshot is captured under the commit lock so it never covers a
// commit whose writes are still being applied.
func New(store *mvcc.Store, oracle *Oracle, executor *Executor, maxPendingWrites int, logger *zap.Logger) *Txn {
	executor.Lock()
	id, startTs := oracle.Begin()
	executor.Unlock()
	tx := &Txn{
		id:       id,
		startTs:  startTs,
		state:    StateActive,
		writeSet: NewBatch(maxPendingWrites),
		store:    store,
		oracle:   oracle,
		executor: executor,
		logger:   logger,
	}
	tx.logger.Debug("txn begin", zap.Uint64("txn", id), zap.Uint64("snapshot", startTs))
	return tx
}

// ID returns the transaction id.
func (tx *Txn) ID() uint64 { return tx.id }

// StartTs returns the snapshot timestamp captured at begin.
func (tx *Txn) StartTs() uint64 { return tx.startTs }

// CommitTs returns the commit timestamp, or 0 if the transaction has
// not committed any writes.
func (tx *Txn) CommitTs() uint64 { return tx.commitTs }

// State returns the lifecycle state.
func (tx *Txn) State() State { return tx.state }

// Get returns the committed value of key visible at the transaction's
// snapshot. A key that does not exist, has no version at or before the
// snapshot, or is deleted at the snapshot yields (nil, false, nil).
func (tx *Txn) Get(key string) ([]byte, bool, error) {
	if tx.state != StateActive {
		return nil, false, ErrInvalidState
	}
	if len(key) == 0 {
		return nil, false, ErrEmptyKey
	}

	val, ok := tx.store.Read(key, tx.startTs)
	tx.logger.Debug("txn read",
		zap.Uint64("txn", tx.id), zap.String("key", key), zap.Bool("found", ok))
	return val, ok, nil
}

// Set buffers a new value for key.
func (tx *Txn) Set(key string, value []byte) error {
	return tx.write(mvcc.Write{Key: key, Value: value})
}

// Delete buffers a tombstone for key.
func (tx *Txn) Delete(key string) error {
	return tx.write(mvcc.Write{Key: key, Tombstone: true})
}

func (tx *Txn) write(w mvcc.Write) error {
	if tx.state != StateActive {
		return ErrInvalidState
	}
	if len(w.Key) == 0 {
		return ErrEmptyKey
	}
	if err := tx.writeSet.Add(w); err != nil {
		return err
	}
	tx.logger.Debug("txn write buffered",
		zap.Uint64("txn", tx.id), zap.String("key", w.Key), zap.Bool("tombstone", w.Tombstone))
	return nil
}

// PendingWrites returns the buffered operations in insertion order.
func (tx *Txn) PendingWrites() []mvcc.Write {
	return tx.writeSet.Writes()
}

// Commit publishes the write buffer under one fresh commit timestamp
// and moves the transaction to Committed. An empty buffer commits
// trivially without consuming a timestamp. Committing a non-Active
// transaction fails with ErrInvalidState and publishes nothing.
//
// With conflict detection enabled, Commit fails with ErrTxnConflict and
// moves the transaction to Aborted if any write-set key was committed
// by another transaction after this one's snapshot. By default there is
// no conflict check: the later committer simply creates the newer
// version (last-committer-wins).
func (tx *Txn) Commit() error {
	if tx.state != StateActive {
		return ErrInvalidState
	}

	if tx.writeSet.IsEmpty() {
		tx.state = StateCommitted
		tx.oracle.Done(tx.id)
		tx.logger.Debug("txn commit empty", zap.Uint64("txn", tx.id))
		return nil
	}

	// The commit lock spans timestamp allocation through applied, so
	// batches publish in timestamp order and no snapshot taken
	// meanwhile can cover the new timestamp.
	tx.executor.Lock()
	if tx.executor.Stopped() {
		tx.executor.Unlock()
		return ErrDBClosed
	}
	commitTs, err := tx.oracle.CommitCheck(tx.id, tx.startTs, tx.writeSet.Keys())
	if err != nil {
		tx.executor.Unlock()
		tx.state = StateAborted
		tx.oracle.Done(tx.id)
		tx.logger.Debug("txn conflict", zap.Uint64("txn", tx.id))
		return err
	}
	doneCh := tx.executor.submit(executorRequest{
		commitTs: commitTs,
		writes:   tx.writeSet.Writes(),
		doneCh:   make(chan struct{}),
	})
	<-doneCh
	tx.executor.Unlock()

	tx.commitTs = commitTs
	tx.state = StateCommitted
	tx.logger.Debug("txn commit",
		zap.Uint64("txn", tx.id), zap.Uint64("commitTs", commitTs),
		zap.Int("writes", tx.writeSet.Len()))
	return nil
}

// Abort discards the write buffer and moves the transaction to
// Aborted. Aborting a non-Active transaction fails with
// ErrInvalidState.
func (tx *Txn) Abort() error {
	if tx.state != StateActive {
		return ErrInvalidState
	}
	tx.state = StateAborted
	tx.oracle.Done(tx.id)
	tx.logger.Debug("txn abort", zap.Uint64("txn", tx.id))
	return nil
}
