package cache

import (
	"sync"
	"time"

	"github.com/staffsight/backend/internal/types"
)

// SnapshotCache holds the most recent aggregation snapshot together with
// its freshness. API handlers read from here instead of hitting the
// upstream sources on every request.
type SnapshotCache struct {
	snapshot *types.Snapshot
	storedAt time.Time
	ttl      time.Duration
	mu       sync.RWMutex

	// now is swappable for tests
	now func() time.Time
}

// NewSnapshotCache creates a cache whose entries go stale after ttl.
func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		ttl: ttl,
		now: time.Now,
	}
}

// Set stores a snapshot and resets its freshness clock.
func (c *SnapshotCache) Set(snap *types.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = snap
	c.storedAt = c.now()
}

// Get returns the cached snapshot and whether it is still fresh. A nil
// snapshot means nothing has been stored yet.
func (c *SnapshotCache) Get() (*types.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return nil, false
	}
	return c.snapshot, c.now().Sub(c.storedAt) < c.ttl
}

// Latest returns the cached snapshot regardless of freshness, nil if the
// cache has never been filled.
func (c *SnapshotCache) Latest() *types.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Age reports how long ago the snapshot was stored. Zero when empty.
func (c *SnapshotCache) Age() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return 0
	}
	return c.now().Sub(c.storedAt)
}
