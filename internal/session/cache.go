package session

import (
	"fmt"
	"sync"
	"time"

	"fleet-analytics/internal/metrics"
)

type cacheEntry struct {
	value     any
	fetchedAt time.Time
}

// Cache is the per-session lookup cache. Entries are memoized per TTL and
// the whole cache dies with the session; nothing is expired individually
// ahead of its TTL.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// GetOrFetch returns the cached value for key when it is younger than ttl,
// otherwise invokes fetch and stores the result. Fetch errors are returned
// and never cached, so a failed lookup is retried on the next access.
func (c *Cache) GetOrFetch(key string, ttl time.Duration, fetch func() (any, error)) (any, error) {
	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && c.now().Sub(entry.fetchedAt) < ttl {
		c.mu.Unlock()
		metrics.TopologyCacheEvents.WithLabelValues("hit").Inc()
		return entry.value, nil
	}
	c.mu.Unlock()

	metrics.TopologyCacheEvents.WithLabelValues("miss").Inc()

	value, err := fetch()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, fetchedAt: c.now()}
	c.mu.Unlock()
	return value, nil
}

// Invalidate drops every entry as a unit.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Lookup is the typed front of Cache.GetOrFetch.
func Lookup[T any](c *Cache, key string, ttl time.Duration, fetch func() (T, error)) (T, error) {
	var zero T
	value, err := c.GetOrFetch(key, ttl, func() (any, error) {
		return fetch()
	})
	if err != nil {
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("cache key %q holds %T", key, value)
	}
	return typed, nil
}
