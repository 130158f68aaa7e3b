// Package cache provides the cache port used as a side channel over the primary
// store, its backends and the cache-aside helpers built on top of it.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Cache is a key/value store with per-entry TTL. Concurrent Set and Remove on
// the same key are last-write-wins.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Remove(ctx context.Context, keys ...string) error
}

// NopCache is a disabled cache: every Get misses and writes are dropped.
type NopCache struct{}

// Get always misses.
func (NopCache) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

// Set does nothing.
func (NopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Remove does nothing.
func (NopCache) Remove(context.Context, ...string) error { return nil }
