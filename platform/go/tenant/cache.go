package tenant

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultCacheTTL bounds how stale a resolution result may be observed after
// the underlying tenant changes in the store. Nothing invalidates entries on
// status changes; callers tolerate up to one TTL window of staleness.
const DefaultCacheTTL = 5 * time.Minute

// DomainKey is the cache key for custom-domain resolution results.
func DomainKey(host string) string { return "domain:" + host }

// SlugKey is the cache key for slug-based resolution results.
func SlugKey(slug string) string { return "tenant:" + slug }

// CacheEntry memoizes one resolution result, positive or negative. Negative
// results (not found, inactive, invalid format) are cached too so poison
// lookups do not repeatedly hit the store.
type CacheEntry struct {
	Tenant    *Info
	Reason    Reason
	CreatedAt time.Time
}

// Cache is a process-local TTL cache for resolution results. It is never
// persisted and there is no cross-instance invalidation; Clear is the only
// way to evict before the TTL elapses. The clock is injectable so tests can
// drive expiry deterministically.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   clock.Clock
	entries map[string]CacheEntry
}

// NewCache builds a Cache. A non-positive ttl falls back to DefaultCacheTTL;
// a nil clk falls back to the wall clock.
func NewCache(ttl time.Duration, clk clock.Clock) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Cache{ttl: ttl, clock: clk, entries: make(map[string]CacheEntry)}
}

// Get returns the live entry for key, or nil on both a true miss and a stale
// hit. Stale entries are evicted on the way out.
func (c *Cache) Get(key string) *CacheEntry {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil
	}

	if c.clock.Now().Sub(entry.CreatedAt) > c.ttl {
		c.mu.Lock()
		// Re-check under the write lock; Set may have refreshed the entry.
		if cur, still := c.entries[key]; still && c.clock.Now().Sub(cur.CreatedAt) > c.ttl {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil
	}

	return &entry
}

// Set stores a resolution result under key, replacing any previous entry.
func (c *Cache) Set(key string, t *Info, reason Reason) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = CacheEntry{Tenant: t, Reason: reason, CreatedAt: c.clock.Now()}
}

// Clear force-evicts every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]CacheEntry)
}

// Len reports the number of entries currently held, stale or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
