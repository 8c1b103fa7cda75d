// Package querycache holds server-derived page data between refetches.
// Entries are dropped explicitly after mutations and wholesale on sign-out.
package querycache

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

type entry struct {
	data      any
	expiresAt time.Time
}

// Cache is a TTL cache keyed by query path (e.g. "payments/balance").
//
// Clear starts a new generation. A fetch that began under an earlier
// generation stores with SetIn and is discarded, so a response landing after
// sign-out never repopulates the cache for the next user.
type Cache struct {
	store sync.Map
	ttl   time.Duration
	now   func() time.Time

	mu         sync.Mutex
	generation uint64
}

// New creates a cache whose entries expire after ttl.
func New(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, now: time.Now}
}

// Get returns a live entry.
func (c *Cache) Get(key string) (any, bool) {
	val, ok := c.store.Load(key)
	if !ok {
		slog.Debug("Cache miss", "key", key)
		return nil, false
	}

	e := val.(entry)
	if c.now().After(e.expiresAt) {
		c.store.Delete(key)
		slog.Debug("Cache expired", "key", key)
		return nil, false
	}

	slog.Debug("Cache hit", "key", key)
	return e.data, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Store(key, entry{data: value, expiresAt: c.now().Add(ttl)})
	slog.Debug("Cache set", "key", key, "ttl", ttl)
}

// Generation identifies the current cache contents. Read it before issuing
// the request whose result is passed to SetIn.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// SetIn stores value under key only if the cache has not been cleared
// since gen was read. It reports whether the value was stored.
func (c *Cache) SetIn(gen uint64, key string, value any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		slog.Debug("Cache set discarded", "key", key, "generation", gen, "current", c.generation)
		return false
	}
	c.store.Store(key, entry{data: value, expiresAt: c.now().Add(c.ttl)})
	slog.Debug("Cache set", "key", key, "ttl", c.ttl)
	return true
}

// Invalidate drops every key starting with prefix and returns how many
// were removed. Used after a mutation the user just performed.
func (c *Cache) Invalidate(prefix string) int {
	n := 0
	c.store.Range(func(key, _ any) bool {
		if strings.HasPrefix(key.(string), prefix) {
			c.store.Delete(key)
			n++
		}
		return true
	})
	slog.Debug("Cache invalidated", "prefix", prefix, "removed", n)
	return n
}

// Clear drops everything and starts a new generation.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.store.Range(func(key, _ any) bool {
		c.store.Delete(key)
		return true
	})
	slog.Debug("Cache cleared", "generation", c.generation)
}
