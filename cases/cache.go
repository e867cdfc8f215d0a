package cases

import (
	"maps"
	"sync"
	"time"
)

// listCache keeps the last ListAll snapshot for ttl. Writes made through the
// Service invalidate it; writes by other processes show up after ttl.
// A snapshot fetched across an invalidation is never stored.
type listCache struct {
	mu        sync.Mutex
	ttl       time.Duration
	items     map[string]Record
	fetchedAt time.Time
	gen       uint64
}

func newListCache(ttl time.Duration) *listCache {
	return &listCache{ttl: ttl}
}

func (c *listCache) get(now time.Time) (map[string]Record, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil || now.Sub(c.fetchedAt) >= c.ttl {
		return nil, false
	}
	return maps.Clone(c.items), true
}

// generation is read before a fetch and handed back to put.
func (c *listCache) generation() uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *listCache) put(items map[string]Record, now time.Time, gen uint64) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.items = maps.Clone(items)
	c.fetchedAt = now
}

func (c *listCache) invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.gen++
}
