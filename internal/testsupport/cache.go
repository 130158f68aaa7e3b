package testsupport

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/jnst/store-backoffice/internal/cache"
)

// Cache is an in-memory cache.Cache that records removals and can be made
// unavailable.
type Cache struct {
	mu      sync.Mutex
	entries map[string][]byte
	removed []string
	down    error
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string][]byte)}
}

// SetDown makes every operation fail with err; nil restores the cache.
func (c *Cache) SetDown(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.down = err
}

// Get implements cache.Cache.
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.down != nil {
		return nil, c.down
	}

	v, ok := c.entries[key]
	if !ok {
		return nil, cache.ErrMiss
	}

	return slices.Clone(v), nil
}

// Set implements cache.Cache.
func (c *Cache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.down != nil {
		return c.down
	}

	c.entries[key] = slices.Clone(value)

	return nil
}

// Remove implements cache.Cache.
func (c *Cache) Remove(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.down != nil {
		return c.down
	}

	for _, k := range keys {
		delete(c.entries, k)
	}

	c.removed = append(c.removed, keys...)

	return nil
}

// Has reports whether key holds an entry.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[key]

	return ok
}

// Put stores a raw entry, bypassing failure injection.
func (c *Cache) Put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = slices.Clone(value)
}

// Removed returns every key removed so far, in order.
func (c *Cache) Removed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.removed)
}
