package mvcc

// Version is one committed value of a key. It is immutable once it has
// been placed in a chain; readers share it without copying.
type Version struct {
	CommitTs  uint64
	Value     []byte
	Tombstone bool
}

// VersionChain holds the committed history of a single key. Versions
// are kept in an append-only slice, oldest first, so commit timestamps
// are ascending by index and the newest version sits at the end; the
// slice always starts with the sentinel version written at ts 0 when
// the key was created. Timestamps are strictly ascending across
// commits; equal timestamps occur only when one commit writes the same
// key twice, and then the later write sits closer to the end and wins
// on read.
//
// The chain itself is not synchronized. The owning Key serializes
// mutation and guards readers against a concurrent Prepend.
type VersionChain struct {
	versions []Version
}

// Prepend publishes v as the new head (newest version) of the chain.
// The caller must hand in a commit timestamp at or above the current
// head's; commit timestamps come from a monotonic counter and publishes
// are serialized, so a violation is a programming error.
func (c *VersionChain) Prepend(v Version) {
	if n := len(c.versions); n > 0 && v.CommitTs < c.versions[n-1].CommitTs {
		panic("mvcc: prepend with decreasing commit ts")
	}
	c.versions = append(c.versions, v)
}

// VisibleAsOf returns the newest version with CommitTs <= ts. It never
// returns a version committed after ts; this is the snapshot rule.
func (c *VersionChain) VisibleAsOf(ts uint64) (Version, bool) {
	for i := len(c.versions) - 1; i >= 0; i-- {
		if c.versions[i].CommitTs <= ts {
			return c.versions[i], true
		}
	}
	return Version{}, false
}

// Dump returns a copy of the chain, newest first.
func (c *VersionChain) Dump() []Version {
	out := make([]Version, 0, len(c.versions))
	for i := len(c.versions) - 1; i >= 0; i-- {
		out = append(out, c.versions[i])
	}
	return out
}

// Len returns the number of versions in the chain.
func (c *VersionChain) Len() int {
	return len(c.versions)
}
