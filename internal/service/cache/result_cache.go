package cache

import (
	"sync"

	"StockStats/internal/domain/models"
)

// ResultCache memoizes successful stats results. Entries never expire; they
// leave only through Invalidate or ClearAll.
//
// StatsSuccess is a flat value type, so storing and returning it by value
// gives callers an independent copy in both directions.
type ResultCache struct {
	mu sync.RWMutex
	m  map[CacheKey]models.StatsSuccess
}

func NewResultCache() *ResultCache {
	return &ResultCache{m: make(map[CacheKey]models.StatsSuccess)}
}

func (c *ResultCache) Get(key CacheKey) (models.StatsSuccess, bool) {
	c.mu.RLock()
	v, ok := c.m[key]
	c.mu.RUnlock()
	return v, ok
}

func (c *ResultCache) Put(key CacheKey, v models.StatsSuccess) {
	c.mu.Lock()
	c.m[key] = v
	c.mu.Unlock()
}

// Invalidate removes key if present.
func (c *ResultCache) Invalidate(key CacheKey) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

// ClearAll empties the cache and reports how many entries were dropped.
func (c *ResultCache) ClearAll() int {
	c.mu.Lock()
	n := len(c.m)
	c.m = make(map[CacheKey]models.StatsSuccess)
	c.mu.Unlock()
	return n
}

func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
