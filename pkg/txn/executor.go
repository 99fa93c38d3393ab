package txn

import (
	"sync"
	"sync/atomic"

	"github.com/KotaSuchitra/MVCC/pkg/mvcc"
)

type executorRequest struct {
	commitTs uint64
	writes   []mvcc.Write
	doneCh   chan struct{}
}

// Executor owns the publish side of commit: a single goroutine drains
// the request channel and applies each batch to the store.
//
// The embedded mutex is the commit lock. A committer holds it from
// commit-timestamp allocation until the batch is fully applied, and
// Begin takes it to capture a snapshot, so no snapshot ever covers a
// commit timestamp whose writes are not yet readable. That discipline
// also makes a multi-key commit atomically visible to transactional
// readers: by the time any snapshot can include the batch's timestamp,
// every key in the batch carries its new version.
type Executor struct {
	sync.Mutex
	stopped atomic.Bool
	writeCh chan executorRequest
	stopCh  chan struct{}
	store   *mvcc.Store
}

func NewExecutor(store *mvcc.Store) *Executor {
	e := &Executor{
		writeCh: make(chan executorRequest),
		stopCh:  make(chan struct{}),
		store:   store,
	}
	go e.run()
	return e
}

// submit hands a batch to the apply goroutine. Callers hold the commit
// lock and have checked Stopped.
func (e *Executor) submit(req executorRequest) <-chan struct{} {
	e.writeCh <- req
	return req.doneCh
}

// Stopped reports whether the apply goroutine has been shut down.
func (e *Executor) Stopped() bool {
	return e.stopped.Load()
}

// Stop shuts the apply goroutine down. Taking the commit lock first
// lets any in-flight commit finish; later commits fail with
// ErrDBClosed.
func (e *Executor) Stop() {
	e.Lock()
	defer e.Unlock()
	if e.stopped.CompareAndSwap(false, true) {
		e.stopCh <- struct{}{}
	}
}

func (e *Executor) run() {
	for {
		select {
		case req := <-e.writeCh:
			e.store.ApplyBatch(req.commitTs, req.writes)
			req.doneCh <- struct{}{}
			close(req.doneCh)
		case <-e.stopCh:
			return
		}
	}
}
