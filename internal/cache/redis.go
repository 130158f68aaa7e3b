package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// RedisCache implements Cache on Redis strings.
type RedisCache struct {
	client rueidis.Client
	prefix string
}

// NewRedisCache creates a Redis backed cache. Every key is namespaced with prefix.
func NewRedisCache(client rueidis.Client, prefix string) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: prefix,
	}
}

// Get returns the raw value of key.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := c.client.B().Get().Key(c.prefix + key).Build()

	value, err := c.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrMiss
		}

		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	return value, nil
}

// Set stores value with a millisecond-precision expiry.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	cmd := c.client.B().Set().Key(c.prefix + key).Value(rueidis.BinaryString(value)).
		PxMilliseconds(ttl.Milliseconds()).
		Build()

	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

// Remove deletes keys in a single DEL.
func (c *RedisCache) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = c.prefix + key
	}

	if err := c.client.Do(ctx, c.client.B().Del().Key(prefixed...).Build()).Error(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}

	return nil
}
