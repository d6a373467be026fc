package fragment

import (
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/pdok/mapstream/metrics"
	"github.com/pdok/mapstream/quadkey"
)

// Cache is a least recently used cache of fragments, known empty ones included.
// Every (region, quad) pair takes one slot, so evicting one region never drops another.
// It is safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	capacity int
	// oldest first
	entries *orderedmap.OrderedMap[Key, Fragment]
	stats   CacheStats
}

type CacheStats struct {
	Entries   int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// CacheCapacity sizes a cache after the viewport: every visible tile for a few zoom levels,
// for a number of regions per tile.
func CacheCapacity(visibleTiles, zoomWindow, regionsPerTile int) int {
	return max(1, visibleTiles*zoomWindow*regionsPerTile)
}

func NewCache(capacity int) *Cache {
	return &Cache{
		capacity: max(1, capacity),
		entries:  orderedmap.New[Key, Fragment](),
	}
}

// Contains reports whether the fragment of region in q is cached, without counting as a use.
func (c *Cache) Contains(regionID string, q quadkey.QuadKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries.Get(NewKey(regionID, q))
	return ok
}

// Get returns the cached fragment of region in q and marks it as most recently used.
// A cached fragment can be empty, the second result only tells whether it was cached.
func (c *Cache) Get(regionID string, q quadkey.QuadKey) (Fragment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(NewKey(regionID, q))
}

func (c *Cache) get(key Key) (Fragment, bool) {
	f, ok := c.entries.Get(key)
	if !ok {
		c.stats.Misses++
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return Fragment{}, false
	}
	c.entries.Delete(key)
	c.entries.Set(key, f)
	c.stats.Hits++
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return f, true
}

func (c *Cache) Put(regionID string, f Fragment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(NewKey(regionID, f.QuadKey), f)
	c.evict()
}

// PutEmpty remembers that region has nothing in q.
func (c *Cache) PutEmpty(regionID string, q quadkey.QuadKey) {
	c.Put(regionID, Empty(q))
}

// PutAll stores fragments per region in one go, so no reader sees half of them.
func (c *Cache) PutAll(fragments map[string][]Fragment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for regionID, fs := range fragments {
		for _, f := range fs {
			c.put(NewKey(regionID, f.QuadKey), f)
		}
	}
	c.evict()
}

func (c *Cache) put(key Key, f Fragment) {
	if f.IsEmpty() {
		f.Geometry = nil
	}
	c.entries.Delete(key)
	c.entries.Set(key, f)
}

// Resize changes the capacity, evicting what no longer fits.
func (c *Cache) Resize(capacity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capacity = max(1, capacity)
	c.evict()
}

func (c *Cache) evict() {
	for c.entries.Len() > c.capacity {
		oldest := c.entries.Oldest()
		c.entries.Delete(oldest.Key)
		c.stats.Evictions++
		metrics.CacheEvictions.Inc()
	}
	metrics.CacheEntries.Set(float64(c.entries.Len()))
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = c.entries.Len()
	s.Capacity = c.capacity
	return s
}
