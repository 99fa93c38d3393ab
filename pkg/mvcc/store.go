package mvcc

// Write is one buffered operation headed for the store: a new value
// for a key, or a tombstone marking it deleted.
type Write struct {
	Key       string
	Value     []byte
	Tombstone bool
}

// Store is the versioned storage engine: the key table plus the commit
// publish path. It knows nothing about transactions; callers hand it
// fully formed batches stamped with a commit timestamp.
type Store struct {
	table *KeyTable
}

func NewStore() *Store {
	return &Store{table: NewKeyTable()}
}

// CreateKey explicitly initializes a key with a sentinel version at
// ts 0 carrying the given value. Keys touched only by commits get an
// empty sentinel instead.
func (s *Store) CreateKey(name string, initial []byte) error {
	_, err := s.table.Create(name, initial)
	return err
}

// ApplyBatch publishes every write in the batch, in order, under the
// single shared commit timestamp. Target keys are created lazily with
// an empty sentinel. A key written twice in one batch gets two
// versions; the later one ends up newest and wins on read.
//
// All writes share one timestamp, so a snapshot either covers the
// whole batch or none of it. The publish itself walks the keys
// sequentially; callers that need the batch to appear atomically must
// keep snapshots at or above ts from being issued until ApplyBatch
// returns (the transaction layer's commit lock does exactly that). An
// administrative read probing an arbitrary timestamp mid-apply can
// still observe the batch partially applied.
func (s *Store) ApplyBatch(ts uint64, writes []Write) {
	for _, w := range writes {
		k := s.table.GetOrCreate(w.Key, nil)
		k.Prepend(Version{CommitTs: ts, Value: w.Value, Tombstone: w.Tombstone})
	}
}

// Read returns the value of name visible at ts through the
// transactional read path: a missing key or a tombstone is "no value",
// not an error.
func (s *Store) Read(name string, ts uint64) ([]byte, bool) {
	k, ok := s.table.Lookup(name)
	if !ok {
		return nil, false
	}
	v, ok := k.VisibleAsOf(ts)
	if !ok || v.Tombstone {
		return nil, false
	}
	return v.Value, true
}

// ReadAsOf is the administrative read: it resolves name at an arbitrary
// timestamp, bypassing any transaction, and reports ErrKeyNotFound for
// a key that was never created.
func (s *Store) ReadAsOf(name string, ts uint64) ([]byte, bool, error) {
	k, ok := s.table.Lookup(name)
	if !ok {
		return nil, false, ErrKeyNotFound
	}
	v, ok := k.VisibleAsOf(ts)
	if !ok || v.Tombstone {
		return nil, false, nil
	}
	return v.Value, true, nil
}

// DumpVersions enumerates the full history of name, newest first.
func (s *Store) DumpVersions(name string) ([]Version, error) {
	k, ok := s.table.Lookup(name)
	if !ok {
		return nil, ErrKeyNotFound
	}
	return k.Dump(), nil
}

// Keys returns all key names in lexical order.
func (s *Store) Keys() []string {
	return s.table.Names()
}
