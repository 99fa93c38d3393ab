package mvcc

import (
	"sync"

	"github.com/tidwall/btree"
)

// Key is one named record in the table: the key's version chain plus
// the mutex that serializes chain access. Key records are created once
// and never removed.
type Key struct {
	Name string

	mu    sync.RWMutex
	chain VersionChain
}

// Prepend publishes a new version of the key.
func (k *Key) Prepend(v Version) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.chain.Prepend(v)
}

// VisibleAsOf returns the newest version of the key with CommitTs <= ts.
func (k *Key) VisibleAsOf(ts uint64) (Version, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.chain.VisibleAsOf(ts)
}

// Dump returns the key's full history, newest first.
func (k *Key) Dump() []Version {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.chain.Dump()
}

// KeyTable maps key names to their records. The btree index is guarded
// by a single RWMutex; per-chain access is guarded by each Key's own
// lock, so table readers never contend with version publishes.
type KeyTable struct {
	mu   sync.RWMutex
	keys *btree.Map[string, *Key]
}

func NewKeyTable() *KeyTable {
	return &KeyTable{keys: btree.NewMap[string, *Key](32)}
}

// Lookup returns the record for name without creating it. Read paths
// use this so that pure reads never materialize keys.
func (t *KeyTable) Lookup(name string) (*Key, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.keys.Get(name)
}

// GetOrCreate returns the record for name, creating it with a sentinel
// version {ts 0, initial} if it has never been seen. Concurrent calls
// with the same name yield exactly one record.
func (t *KeyTable) GetOrCreate(name string, initial []byte) *Key {
	t.mu.RLock()
	k, ok := t.keys.Get(name)
	t.mu.RUnlock()
	if ok {
		return k
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if k, ok := t.keys.Get(name); ok {
		return k
	}
	k = newKey(name, initial)
	t.keys.Set(name, k)
	return k
}

// Create inserts a record for name or reports that one already exists.
func (t *KeyTable) Create(name string, initial []byte) (*Key, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.keys.Get(name); ok {
		return nil, ErrKeyExists
	}
	k := newKey(name, initial)
	t.keys.Set(name, k)
	return k, nil
}

// Names returns all key names in lexical order.
func (t *KeyTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, t.keys.Len())
	t.keys.Scan(func(name string, _ *Key) bool {
		names = append(names, name)
		return true
	})
	return names
}

// Len returns the number of key records.
func (t *KeyTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.keys.Len()
}

func newKey(name string, initial []byte) *Key {
	k := &Key{Name: name}
	k.chain.Prepend(Version{CommitTs: 0, Value: initial})
	return k
}
