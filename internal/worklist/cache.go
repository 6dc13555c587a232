package worklist

import (
	"sync"
	"time"
)

// viewCache memoizes derived views with a TTL. When full it drops expired
// entries first, then the entry closest to expiry.
type viewCache struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu       sync.RWMutex
	entries  map[string]cacheEntry
	checksum string
}

type cacheEntry struct {
	view      View
	expiresAt time.Time
}

func newViewCache(ttl time.Duration, maxEntries int, now func() time.Time) *viewCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if now == nil {
		now = time.Now
	}
	return &viewCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        now,
		entries:    make(map[string]cacheEntry),
	}
}

// get returns the cached view if the entry exists and hasn't expired.
func (c *viewCache) get(key string) (View, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || c.now().After(entry.expiresAt) {
		return View{}, false
	}
	return entry.view, true
}

// put stores a view with the cache TTL.
func (c *viewCache) put(key string, view View) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictExpired()
		if len(c.entries) >= c.maxEntries {
			c.evictSoonest()
		}
	}

	c.entries[key] = cacheEntry{
		view:      view,
		expiresAt: c.now().Add(c.ttl),
	}
}

// evictExpired removes expired entries. Must be called with mu held.
func (c *viewCache) evictExpired() {
	now := c.now()
	for k, v := range c.entries {
		if now.After(v.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// evictSoonest removes the entry closest to expiry. Must be called with mu
// held.
func (c *viewCache) evictSoonest() {
	var (
		victim string
		at     time.Time
		found  bool
	)
	for k, v := range c.entries {
		if !found || v.expiresAt.Before(at) || (v.expiresAt.Equal(at) && k < victim) {
			victim, at, found = k, v.expiresAt, true
		}
	}
	if found {
		delete(c.entries, victim)
	}
}

// reset drops every entry.
func (c *viewCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// sync resets the cache when the registry checksum differs from the one its
// entries were derived from. It reports whether a reset happened.
func (c *viewCache) sync(checksum string) bool {
	c.mu.RLock()
	current := c.checksum
	c.mu.RUnlock()
	if current == checksum {
		return false
	}

	c.reset()
	c.mu.Lock()
	c.checksum = checksum
	c.mu.Unlock()
	return current != ""
}

func (c *viewCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
