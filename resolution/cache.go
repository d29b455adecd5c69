package resolution

import (
	"sync"
	"time"

	"ocm.software/open-component-model/presentation/catalog"
)

// DefaultCacheTTL is the age after which cached entity data is considered stale.
const DefaultCacheTTL = 30 * time.Second

// CacheEntry is the last known data for a reference.
type CacheEntry struct {
	Ref string
	// Entity is nil when the catalog reported the reference as not found.
	Entity    *catalog.Entity
	FetchedAt time.Time
}

// SnapshotCache keeps the last known entity data of every reference that was ever fetched.
// Entries are never evicted; they only become stale. Safe for concurrent use.
type SnapshotCache struct {
	mu    sync.RWMutex
	store map[string]CacheEntry
	ttl   time.Duration
}

// NewSnapshotCache creates a new durable snapshot cache.
func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &SnapshotCache{
		ttl:   ttl,
		store: make(map[string]CacheEntry),
	}
}

// Get retrieves the entry for ref.
func (c *SnapshotCache) Get(ref string) (CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.store[ref]
	return entry, ok
}

// Set stores entity data fetched at fetchedAt.
// Writes older than the stored entry are ignored so timestamps never go backwards.
func (c *SnapshotCache) Set(ref string, entity *catalog.Entity, fetchedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.store[ref]; ok && existing.FetchedAt.After(fetchedAt) {
		return
	}
	c.store[ref] = CacheEntry{Ref: ref, Entity: entity, FetchedAt: fetchedAt}
}

// Len returns the number of references with an entry.
func (c *SnapshotCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// TTL returns the staleness threshold.
func (c *SnapshotCache) TTL() time.Duration {
	return c.ttl
}

// IsStale reports whether entry is older than the TTL at now.
func (c *SnapshotCache) IsStale(entry CacheEntry, now time.Time) bool {
	return now.Sub(entry.FetchedAt) > c.ttl
}
