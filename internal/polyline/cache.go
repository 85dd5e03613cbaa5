package polyline

import (
	"sync"

	"itinerary-layout/internal/plan"
)

// CacheMetrics receives hit/miss notifications. May be nil.
type CacheMetrics interface {
	PolylineCacheHit()
	PolylineCacheMiss()
}

// Cache memoizes Decode by encoded string. Decoding is deterministic so
// entries never go stale; the map is dropped wholesale once it reaches
// capacity. Returned slices are shared and must not be modified.
type Cache struct {
	capacity int
	metrics  CacheMetrics

	mu      sync.RWMutex
	entries map[string][]plan.Point
}

func NewCache(capacity int, m CacheMetrics) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	return &Cache{
		capacity: capacity,
		metrics:  m,
		entries:  make(map[string][]plan.Point),
	}
}

// Decode returns the cached points for encoded, decoding on a miss.
// Failed decodes are not cached.
func (c *Cache) Decode(encoded string) ([]plan.Point, error) {
	c.mu.RLock()
	pts, ok := c.entries[encoded]
	c.mu.RUnlock()
	if ok {
		if c.metrics != nil {
			c.metrics.PolylineCacheHit()
		}
		return pts, nil
	}
	if c.metrics != nil {
		c.metrics.PolylineCacheMiss()
	}
	pts, err := Decode(encoded)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if len(c.entries) >= c.capacity {
		c.entries = make(map[string][]plan.Point)
	}
	c.entries[encoded] = pts
	c.mu.Unlock()
	return pts, nil
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
