package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnst/store-backoffice/internal/logger"
)

type item struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// brokenCache fails every operation.
type brokenCache struct{ calls int }

var errUnavailable = errors.New("connection refused")

func (b *brokenCache) Get(context.Context, string) ([]byte, error) {
	b.calls++
	return nil, errUnavailable
}

func (b *brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	b.calls++
	return errUnavailable
}

func (b *brokenCache) Remove(context.Context, ...string) error {
	b.calls++
	return errUnavailable
}

func TestAside_StoreThenLookup(t *testing.T) {
	ctx := context.Background()
	aside := NewAside(NewMemoryCache(100, time.Minute), time.Minute, logger.Discard())

	_, ok := Lookup[item](ctx, aside, "item:1")
	assert.False(t, ok)

	aside.Store(ctx, "item:1", item{ID: 1, Name: "Tools"})

	got, ok := Lookup[item](ctx, aside, "item:1")
	require.True(t, ok)
	assert.Equal(t, item{ID: 1, Name: "Tools"}, got)

	aside.Invalidate(ctx, "item:1")

	_, ok = Lookup[item](ctx, aside, "item:1")
	assert.False(t, ok)
}

func TestAside_BackendFailureIsAMiss(t *testing.T) {
	ctx := context.Background()
	backend := &brokenCache{}
	aside := NewAside(backend, time.Minute, logger.Discard())

	_, ok := Lookup[item](ctx, aside, "item:1")
	assert.False(t, ok)

	assert.NotPanics(t, func() {
		aside.Store(ctx, "item:1", item{ID: 1})
		aside.Invalidate(ctx, "item:1")
	})
	assert.Equal(t, 3, backend.calls)
}

func TestAside_UndecodableEntryIsDiscarded(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryCache(100, time.Minute)
	require.NoError(t, backend.Set(ctx, "item:1", []byte("{not json"), time.Minute))

	aside := NewAside(backend, time.Minute, logger.Discard())

	_, ok := Lookup[item](ctx, aside, "item:1")
	assert.False(t, ok)

	_, err := backend.Get(ctx, "item:1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestAside_NilBackendDisablesCaching(t *testing.T) {
	ctx := context.Background()
	aside := NewAside(nil, time.Minute, logger.Discard())

	aside.Store(ctx, "item:1", item{ID: 1})

	_, ok := Lookup[item](ctx, aside, "item:1")
	assert.False(t, ok)
}

func TestMemoryCache_SetCopiesValue(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, time.Minute)

	value := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", value, 0))
	value[0] = 'x'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	require.NoError(t, c.Remove(ctx, "k", "missing"))

	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "category:3", CategoryKey(3))
	assert.Equal(t, "product:12", ProductKey(12))
	assert.Equal(t, "category_list", CategoryListKey)
	assert.Equal(t, "products_list", ProductListKey)
}
