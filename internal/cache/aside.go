package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

// Aside implements the cache-aside side of reads and writes. The cache is a
// derived, disposable view: every backend failure is logged and reported to
// the caller as a miss, never as an error.
type Aside struct {
	backend Cache
	ttl     time.Duration
	logger  *slog.Logger
}

// NewAside wraps backend. Entries are stored with ttl.
func NewAside(backend Cache, ttl time.Duration, logger *slog.Logger) *Aside {
	if backend == nil {
		backend = NopCache{}
	}

	return &Aside{
		backend: backend,
		ttl:     ttl,
		logger:  logger,
	}
}

// Lookup decodes the value stored under key. ok is false on a miss, on a
// backend failure and on an undecodable entry.
func Lookup[T any](ctx context.Context, a *Aside, key string) (value T, ok bool) {
	raw, err := a.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			a.logger.Warn("cache unavailable, treating as miss",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}

		return value, false
	}

	if err := json.Unmarshal(raw, &value); err != nil {
		a.logger.Warn("discarding undecodable cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		a.Invalidate(ctx, key)

		var zero T

		return zero, false
	}

	return value, true
}

// Store populates key with value. Population is best effort.
func (a *Aside) Store(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		a.logger.Warn("failed to encode cache entry", slog.String("key", key), slog.String("error", err.Error()))
		return
	}

	if err := a.backend.Set(ctx, key, raw, a.ttl); err != nil {
		a.logger.Warn("failed to populate cache", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// Invalidate removes keys. A failure leaves the entries to expire by TTL.
func (a *Aside) Invalidate(ctx context.Context, keys ...string) {
	if err := a.backend.Remove(ctx, keys...); err != nil {
		a.logger.Warn("failed to invalidate cache",
			slog.Any("keys", keys),
			slog.String("error", err.Error()),
		)

		return
	}

	a.logger.Debug("cache invalidated", slog.Any("keys", keys))
}
