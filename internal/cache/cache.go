// Package cache provides a small TTL cache with tag-based invalidation.
// Reads of platform-owned state (products, carts) go through it; every
// state-changing call invalidates the relevant tag so the next read is
// authoritative.
package cache

import (
	"sync"
	"time"
)

// TagCart is the invalidation tag for cart reads.
const TagCart = "cart"

// TagProducts is the invalidation tag for product catalog reads.
const TagProducts = "products"

type entry[T any] struct {
	value   T
	expires time.Time
	tags    []string
}

// Cache is a thread-safe TTL cache whose entries carry tags.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	ttl     time.Duration
}

// New creates a cache with the given default TTL.
func New[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		entries: make(map[string]entry[T]),
		ttl:     ttl,
	}
}

// Get returns the cached value when present and unexpired.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expires) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores a value under the key with the given tags.
func (c *Cache[T]) Set(key string, value T, tags ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[T]{
		value:   value,
		expires: time.Now().Add(c.ttl),
		tags:    tags,
	}
}

// InvalidateTag drops every entry carrying the tag.
func (c *Cache[T]) InvalidateTag(tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		for _, t := range e.tags {
			if t == tag {
				delete(c.entries, key)
				break
			}
		}
	}
}

// Invalidate drops one key.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Purge drops everything.
func (c *Cache[T]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[T])
}

// Len returns the number of entries, expired ones included.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
