// Package cache provides a small TTL-bounded map used to reuse per-user
// Plex clients and catalog index snapshots between requests. It replaces
// implicit module-level caches with a component the caller owns and can
// invalidate explicitly.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// TTL is a string-keyed cache whose entries expire a fixed duration
// after they were stored. Safe for concurrent use.
type TTL[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry[V]
}

func New[V any](ttl time.Duration) *TTL[V] {
	return &TTL[V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the cached value for key if it has not expired. Expired
// entries are removed on access.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, resetting its expiry.
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, storedAt: c.now()}
}

// Invalidate drops the entry for key, if any.
func (c *TTL[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
