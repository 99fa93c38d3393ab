package txn

import (
	"sync"
	"sync/atomic"
)

// Oracle issues transaction ids and commit timestamps. Both counters
// are atomic: no two callers ever observe the same value, and each
// caller sees strictly increasing values, without any coarser lock on
// the issue path.
//
// When conflict detection is enabled the oracle additionally remembers
// the write fingerprints of recently committed transactions so a
// committer can be checked against everything that committed after its
// snapshot.
type Oracle struct {
	nextTxnID atomic.Uint64
	commitTs  atomic.Uint64

	detectConflicts bool

	// Everything below is touched only with detectConflicts on.
	mu            sync.Mutex
	activeTxns    map[uint64]uint64 // txn id -> snapshot ts
	committedTxns []committedTxn
}

type committedTxn struct {
	commitTs uint64
	writes   map[string]struct{}
}

func NewOracle(detectConflicts bool) *Oracle {
	return &Oracle{
		detectConflicts: detectConflicts,
		activeTxns:      make(map[uint64]uint64),
	}
}

// NextTxnID returns a fresh transaction id.
func (o *Oracle) NextTxnID() uint64 {
	return o.nextTxnID.Add(1)
}

// NextCommitTs returns a fresh commit timestamp.
func (o *Oracle) NextCommitTs() uint64 {
	return o.commitTs.Add(1)
}

// CurrentTs returns the most recently issued commit timestamp without
// consuming one. Beginning a transaction snapshots this value.
func (o *Oracle) CurrentTs() uint64 {
	return o.commitTs.Load()
}

// Begin allocates an id and a snapshot timestamp for a new transaction
// and, under conflict detection, registers it as active.
func (o *Oracle) Begin() (id, startTs uint64) {
	id = o.NextTxnID()
	startTs = o.CurrentTs()
	if o.detectConflicts {
		o.mu.Lock()
		o.activeTxns[id] = startTs
		o.mu.Unlock()
	}
	return id, startTs
}

// Done retires a transaction, whatever its fate. With conflict
// detection on this lets the oracle discard committed fingerprints no
// active snapshot can conflict with anymore.
func (o *Oracle) Done(id uint64) {
	if !o.detectConflicts {
		return
	}
	o.mu.Lock()
	delete(o.activeTxns, id)
	o.pruneCommitted()
	o.mu.Unlock()
}

// CommitCheck allocates a commit timestamp for the transaction after
// verifying, under conflict detection, that none of its write-set keys
// were committed by another transaction after its snapshot. On conflict
// it returns ErrTxnConflict and no timestamp is consumed.
func (o *Oracle) CommitCheck(id, startTs uint64, writes []string) (uint64, error) {
	if !o.detectConflicts {
		return o.NextCommitTs(), nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for _, committed := range o.committedTxns {
		if committed.commitTs <= startTs {
			continue
		}
		for _, key := range writes {
			if _, ok := committed.writes[key]; ok {
				return 0, ErrTxnConflict
			}
		}
	}

	ts := o.NextCommitTs()
	fingerprint := make(map[string]struct{}, len(writes))
	for _, key := range writes {
		fingerprint[key] = struct{}{}
	}
	o.committedTxns = append(o.committedTxns, committedTxn{commitTs: ts, writes: fingerprint})

	delete(o.activeTxns, id)
	o.pruneCommitted()
	return ts, nil
}

// pruneCommitted drops fingerprints older than every active snapshot.
// Callers hold o.mu.
func (o *Oracle) pruneCommitted() {
	minActive := o.commitTs.Load()
	for _, startTs := range o.activeTxns {
		if startTs < minActive {
			minActive = startTs
		}
	}

	kept := o.committedTxns[:0]
	for _, committed := range o.committedTxns {
		if committed.commitTs > minActive {
			kept = append(kept, committed)
		}
	}
	o.committedTxns = kept
}
