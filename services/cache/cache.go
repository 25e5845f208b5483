package cache

import (
	"encoding/json"
	"sync"
	"time"
)

// DefaultTTL is used when a non-positive TTL is supplied.
const DefaultTTL = 5 * time.Minute

type entry struct {
	value     json.RawMessage
	expiresAt time.Time
}

// Cache is a concurrent-safe TTL key/value store for rendered responses.
// Expired entries are simply treated as absent and overwritten on the next
// store; there is no eviction beyond expiry because the key space is fixed by
// the supported query-parameter combinations.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

// New creates a cache whose entries live for ttl.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached value for key, or a miss once the entry has expired.
func (c *Cache) Get(key string) (json.RawMessage, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key. Concurrent stores for the same key are
// last-write-wins; staleness within one TTL is acceptable.
func (c *Cache) Set(key string, value json.RawMessage) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}
