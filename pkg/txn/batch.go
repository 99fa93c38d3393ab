package txn

import "github.com/KotaSuchitra/MVCC/pkg/mvcc"

// Batch is a transaction's ordered write buffer. Writes are appended
// as issued and never de-duplicated: a key written twice yields two
// versions at commit, and the later write wins on read because it is
// published last.
type Batch struct {
	writes  []mvcc.Write
	maxSize int // 0 means unlimited
}

func NewBatch(maxSize int) *Batch {
	return &Batch{maxSize: maxSize}
}

// Add appends a write, enforcing the configured capacity.
func (b *Batch) Add(w mvcc.Write) error {
	if b.maxSize > 0 && len(b.writes) >= b.maxSize {
		return ErrCapacityExceeded
	}
	b.writes = append(b.writes, w)
	return nil
}

// Writes returns the buffered operations in insertion order.
func (b *Batch) Writes() []mvcc.Write {
	return b.writes
}

// Keys returns the distinct keys touched by the batch.
func (b *Batch) Keys() []string {
	seen := make(map[string]struct{}, len(b.writes))
	keys := make([]string, 0, len(b.writes))
	for _, w := range b.writes {
		if _, ok := seen[w.Key]; ok {
			continue
		}
		seen[w.Key] = struct{}{}
		keys = append(keys, w.Key)
	}
	return keys
}

// IsEmpty reports whether nothing has been buffered.
func (b *Batch) IsEmpty() bool {
	return len(b.writes) == 0
}

// Len returns the number of buffered writes.
func (b *Batch) Len() int {
	return len(b.writes)
}
