package geo

import (
	"strings"
	"sync"

	"github.com/couchcryptid/disaster-alert-service/internal/domain"
)

// CoordinateCache memoizes resolved cities for the lifetime of its owner.
// Entries never expire. Concurrent misses for the same key may both insert;
// the later write wins with an equivalent value.
type CoordinateCache struct {
	mu      sync.RWMutex
	entries map[string]domain.CoordinateEntry
}

// NewCoordinateCache returns an empty cache.
func NewCoordinateCache() *CoordinateCache {
	return &CoordinateCache{entries: make(map[string]domain.CoordinateEntry)}
}

// Get returns the entry cached under name.
func (c *CoordinateCache) Get(name string) (domain.CoordinateEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[cacheKey(name)]
	return e, ok
}

// Put stores e under name.
func (c *CoordinateCache) Put(name string, e domain.CoordinateEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(name)] = e
}

// Len returns the number of cached cities.
func (c *CoordinateCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cacheKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
