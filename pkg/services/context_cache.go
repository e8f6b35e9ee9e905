package services

import (
	"sort"
	"sync"

	"github.com/LunaGrandjean/LVMH-project/pkg/models"
)

// ContextCache memoizes resolved location context for the lifetime of the process.
// Entries never expire; Reset is the only way to drop them.
type ContextCache struct {
	mu      sync.RWMutex
	entries map[models.ContextKey]models.ExternalContext
}

// NewContextCache creates an empty cache.
func NewContextCache() *ContextCache {
	return &ContextCache{entries: make(map[models.ContextKey]models.ExternalContext)}
}

// Get returns a copy of the cached context for key.
func (c *ContextCache) Get(key models.ContextKey) (models.ExternalContext, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put stores value under key, replacing any previous entry.
func (c *ContextCache) Put(key models.ContextKey, value models.ExternalContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Len returns the number of cached keys.
func (c *ContextCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Keys returns the cached keys in sorted order.
func (c *ContextCache) Keys() []models.ContextKey {
	c.mu.RLock()
	keys := make([]models.ContextKey, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Reset drops every entry.
func (c *ContextCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[models.ContextKey]models.ExternalContext)
}
