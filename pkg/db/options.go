package db

import "go.uber.org/zap"

// Options configures a DB.
type Options struct {
	// MaxPendingWrites caps how many operations one transaction may
	// buffer before Set/Delete fail with ErrCapacityExceeded. Zero
	// means unlimited.
	MaxPendingWrites int

	// DetectConflicts enables the serializable-commit extension: a
	// commit whose write set overlaps a transaction committed after
	// its snapshot fails with ErrTxnConflict and aborts. Off by
	// default; the baseline engine is last-committer-wins.
	DetectConflicts bool

	// Logger receives a debug trace of transaction operations. Nil
	// means no logging.
	Logger *zap.Logger
}

// DefaultOptions returns the baseline configuration: a generous write
// buffer cap, no conflict detection, no logging.
func DefaultOptions() Options {
	return Options{
		MaxPendingWrites: 1024,
		DetectConflicts:  false,
	}
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
