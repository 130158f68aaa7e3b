package cache

import (
	"context"
	"time"

	"github.com/viccon/sturdyc"
)

const (
	memoryNumShards          = 64
	memoryEvictionPercentage = 10
)

// MemoryCache is an in-process Cache backed by sturdyc. sturdyc applies one TTL
// to every entry, so the ttl passed to Set is ignored in favour of the TTL
// given at construction.
type MemoryCache struct {
	client *sturdyc.Client[[]byte]
}

// NewMemoryCache creates an in-process cache holding up to capacity entries.
func NewMemoryCache(capacity int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		client: sturdyc.New[[]byte](capacity, memoryNumShards, ttl, memoryEvictionPercentage),
	}
}

// Get returns the value of key.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := c.client.Get(key)
	if !ok {
		return nil, ErrMiss
	}

	return value, nil
}

// Set stores a copy of value.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.client.Set(key, append([]byte(nil), value...))
	return nil
}

// Remove deletes keys.
func (c *MemoryCache) Remove(_ context.Context, keys ...string) error {
	for _, key := range keys {
		c.client.Delete(key)
	}

	return nil
}
