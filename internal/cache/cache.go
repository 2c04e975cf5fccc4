// Package cache provides the process-wide memoization layer for generated
// forecasts. The pipeline never depends on it for correctness, only for
// latency, and invalidation failures are tolerated by callers.
package cache

import (
	"sync"
	"time"
)

// Cache is a mutex-guarded TTL cache with a narrow get/put/invalidate
// contract.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

type entry struct {
	value   interface{}
	expires time.Time
}

// New creates a cache whose entries live for ttl. A non-positive ttl
// disables expiry.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Get returns the cached value for key, or false when absent or expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().After(e.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Put stores value under key with the configured TTL.
func (c *Cache) Put(key string, value interface{}) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate drops every cached entry.
func (c *Cache) Invalidate() error {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
	return nil
}
