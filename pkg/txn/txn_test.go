package txn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/KotaSuchitra/MVCC/pkg/mvcc"
)

type testEnv struct {
	store    *mvcc.Store
	oracle   *Oracle
	executor *Executor
}

func newTestEnv(detectConflicts bool) *testEnv {
	store := mvcc.NewStore()
	return &testEnv{
		store:    store,
		oracle:   NewOracle(detectConflicts),
		executor: NewExecutor(store),
	}
}

func (e *testEnv) begin(maxPendingWrites int) *Txn {
	return New(e.store, e.oracle, e.executor, maxPendingWrites, zap.NewNop())
}

func (e *testEnv) stop() {
	e.executor.Stop()
}

func TestOwnUncommittedWriteIsInvisible(t *testing.T) {
	env := newTestEnv(false)
	defer env.stop()

	tx := env.begin(0)
	assert.NoError(t, tx.Set("K", []byte("mine")))

	_, ok, err := tx.Get("K")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, tx.PendingWrites(), 1)
}

func TestCommitPublishesAllWritesUnderOneTimestamp(t *testing.T) {
	env := newTestEnv(false)
	defer env.stop()

	tx := env.begin(0)
	assert.NoError(t, tx.Set("A", []byte("a")))
	assert.NoError(t, tx.Set("B", []byte("b")))
	assert.NoError(t, tx.Commit())
	assert.Equal(t, StateCommitted, tx.State())

	for _, key := range []string{"A", "B"} {
		dump, err := env.store.DumpVersions(key)
		assert.NoError(t, err)
		assert.Equal(t, tx.CommitTs(), dump[0].CommitTs)
	}
}

func TestReadAfterCommitIsInvalid(t *testing.T) {
	env := newTestEnv(false)
	defer env.stop()

	tx := env.begin(0)
	assert.NoError(t, tx.Set("K", []byte("v")))
	assert.NoError(t, tx.Commit())

	_, _, err := tx.Get("K")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, tx.Set("K", nil), ErrInvalidState)
}

func TestDoubleCommitIsInvalidAndPublishesNothing(t *testing.T) {
	env := newTestEnv(false)
	defer env.stop()

	tx := env.begin(0)
	assert.NoError(t, tx.Set("K", []byte("v")))
	assert.NoError(t, tx.Commit())

	before, err := env.store.DumpVersions("K")
	assert.NoError(t, err)

	assert.ErrorIs(t, tx.Commit(), ErrInvalidState)

	after, err := env.store.DumpVersions("K")
	assert.NoError(t, err)
	assert.Equal(t, len(before), len(after))
}

func TestAbortDiscardsBufferedWrites(t *testing.T) {
	env := newTestEnv(false)
	defer env.stop()

	tx := env.begin(0)
	assert.NoError(t, tx.Set("K", []byte("v")))
	assert.NoError(t, tx.Abort())
	assert.Equal(t, StateAborted, tx.State())

	assert.ErrorIs(t, tx.Set("K", nil), ErrInvalidState)
	assert.ErrorIs(t, tx.Commit(), ErrInvalidState)

	_, err := env.store.DumpVersions("K")
	assert.ErrorIs(t, err, mvcc.ErrKeyNotFound)
}

func TestWriteBufferCapacity(t *testing.T) {
	env := newTestEnv(false)
	defer env.stop()

	tx := env.begin(2)
	assert.NoError(t, tx.Set("A", []byte("1")))
	assert.NoError(t, tx.Set("B", []byte("2")))
	assert.ErrorIs(t, tx.Set("C", []byte("3")), ErrCapacityExceeded)
	assert.ErrorIs(t, tx.Delete("A"), ErrCapacityExceeded)

	// The rejected write did not poison the buffered ones.
	assert.NoError(t, tx.Commit())
	val, ok := env.store.Read("A", tx.CommitTs())
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), val)
}

func TestEmptyCommitConsumesNoTimestamp(t *testing.T) {
	env := newTestEnv(false)
	defer env.stop()

	before := env.oracle.CurrentTs()
	tx := env.begin(0)
	assert.NoError(t, tx.Commit())
	assert.Equal(t, StateCommitted, tx.State())
	assert.Equal(t, uint64(0), tx.CommitTs())
	assert.Equal(t, before, env.oracle.CurrentTs())
}

func TestEmptyKeyIsRejected(t *testing.T) {
	env := newTestEnv(false)
	defer env.stop()

	tx := env.begin(0)
	_, _, err := tx.Get("")
	assert.ErrorIs(t, err, ErrEmptyKey)
	assert.ErrorIs(t, tx.Set("", nil), ErrEmptyKey)
	assert.ErrorIs(t, tx.Delete(""), ErrEmptyKey)
}

func TestDeleteBecomesTombstone(t *testing.T) {
	env := newTestEnv(false)
	defer env.stop()

	tx := env.begin(0)
	assert.NoError(t, tx.Set("K", []byte("v")))
	assert.NoError(t, tx.Commit())

	tx = env.begin(0)
	assert.NoError(t, tx.Delete("K"))
	assert.NoError(t, tx.Commit())

	reader := env.begin(0)
	_, ok, err := reader.Get("K")
	assert.NoError(t, err)
	assert.False(t, ok)

	// History keeps the pre-delete value.
	val, ok, err := env.store.ReadAsOf("K", tx.CommitTs()-1)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), val)
}

func TestRepeatedWritesToOneKeyAllBecomeVersions(t *testing.T) {
	env := newTestEnv(false)
	defer env.stop()

	tx := env.begin(0)
	assert.NoError(t, tx.Set("K", []byte("first")))
	assert.NoError(t, tx.Set("K", []byte("second")))
	assert.NoError(t, tx.Commit())

	dump, err := env.store.DumpVersions("K")
	assert.NoError(t, err)
	assert.Len(t, dump, 3) // sentinel + both buffered writes
	assert.Equal(t, dump[0].CommitTs, dump[1].CommitTs)

	val, ok := env.store.Read("K", tx.CommitTs())
	assert.True(t, ok)
	assert.Equal(t, []byte("second"), val)
}

func TestConflictDetectionAbortsOverlappingCommitter(t *testing.T) {
	env := newTestEnv(true)
	defer env.stop()

	t1 := env.begin(0)
	t2 := env.begin(0)

	assert.NoError(t, t1.Set("K", []byte("one")))
	assert.NoError(t, t1.Commit())

	assert.NoError(t, t2.Set("K", []byte("two")))
	assert.ErrorIs(t, t2.Commit(), ErrTxnConflict)
	assert.Equal(t, StateAborted, t2.State())

	// The loser published nothing.
	val, ok := env.store.Read("K", env.oracle.CurrentTs())
	assert.True(t, ok)
	assert.Equal(t, []byte("one"), val)
}

func TestLastCommitterWinsByDefault(t *testing.T) {
	env := newTestEnv(false)
	defer env.stop()

	t1 := env.begin(0)
	t2 := env.begin(0)

	assert.NoError(t, t1.Set("K", []byte("one")))
	assert.NoError(t, t2.Set("K", []byte("two")))
	assert.NoError(t, t1.Commit())
	assert.NoError(t, t2.Commit())

	val, ok := env.store.Read("K", env.oracle.CurrentTs())
	assert.True(t, ok)
	assert.Equal(t, []byte("two"), val)
}
