package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnst/store-backoffice/internal/cache"
	"github.com/jnst/store-backoffice/internal/model"
)

func TestCategoryService_CreateListUpdateGet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created := f.createCategory(t, "Tools")
	assert.Positive(t, created.ID)

	list, err := f.categories.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Tools", list[0].Name)
	assert.True(t, f.cache.Has(cache.CategoryListKey))

	got, err := f.categories.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tools", got.Name)
	assert.True(t, f.cache.Has(cache.CategoryKey(created.ID)))

	err = f.categories.Update(ctx, created.ID, &model.UpdateCategoryParams{ID: created.ID, Name: "Tools2"})
	require.NoError(t, err)

	assert.False(t, f.cache.Has(cache.CategoryListKey))
	assert.False(t, f.cache.Has(cache.CategoryKey(created.ID)))
	assert.Subset(t, f.cache.Removed(), []string{cache.CategoryListKey, cache.CategoryKey(created.ID)})

	got, err = f.categories.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tools2", got.Name)
	assert.True(t, f.cache.Has(cache.CategoryKey(created.ID)))

	assert.Equal(t,
		[]string{string(model.EventActionCategoryCreated), string(model.EventActionCategoryUpdated)},
		eventTypes(f.store.OutboxEvents()),
	)
}

func TestCategoryService_GetServesFromCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cached, err := json.Marshal(&model.Category{ID: 99, Name: "Cached"})
	require.NoError(t, err)
	f.cache.Put(cache.CategoryKey(99), cached)

	got, err := f.categories.Get(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, "Cached", got.Name)
}

func TestCategoryService_GetMissingIsNotFoundAndNotCached(t *testing.T) {
	f := newFixture(t)

	_, err := f.categories.Get(context.Background(), 404)
	require.ErrorIs(t, err, model.ErrCategoryNotFound)
	assert.False(t, f.cache.Has(cache.CategoryKey(404)))
}

func TestCategoryService_CacheOutageDegradesToStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.cache.SetDown(errors.New("dial tcp: connection refused"))

	created := f.createCategory(t, "Garden")

	list, err := f.categories.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, f.categories.Update(ctx, created.ID, &model.UpdateCategoryParams{ID: created.ID, Name: "Outdoor"}))

	got, err := f.categories.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Outdoor", got.Name)
}

func TestCategoryService_OutboxFailureRollsBackEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.FailOutboxWrites(errors.New("outbox insert failed"))

	_, err := f.categories.Create(ctx, &model.CreateCategoryParams{Name: "Tools"})
	require.Error(t, err)

	f.store.FailOutboxWrites(nil)

	list, err := f.categories.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.store.OutboxEvents())
	assert.Empty(t, f.cache.Removed())
}

func TestCategoryService_CancelledRequestLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	created := f.createCategory(t, "Tools")
	removedBefore := len(f.cache.Removed())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.categories.Update(ctx, created.ID, &model.UpdateCategoryParams{ID: created.ID, Name: "Other"})
	require.ErrorIs(t, err, context.Canceled)

	got, err := f.categories.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tools", got.Name)
	assert.Len(t, f.store.OutboxEvents(), 1)
	assert.Len(t, f.cache.Removed(), removedBefore)
}

func TestCategoryService_UpdateIDMismatch(t *testing.T) {
	f := newFixture(t)
	created := f.createCategory(t, "Tools")

	err := f.categories.Update(context.Background(), created.ID, &model.UpdateCategoryParams{ID: created.ID + 1, Name: "X"})
	require.ErrorIs(t, err, model.ErrIDMismatch)
	assert.Equal(t, model.KindValidation, model.KindOf(err))
	assert.Len(t, f.store.OutboxEvents(), 1)
}

func TestCategoryService_UpdateMissingIsNotFound(t *testing.T) {
	f := newFixture(t)

	err := f.categories.Update(context.Background(), 5, &model.UpdateCategoryParams{ID: 5, Name: "Ghost"})
	require.ErrorIs(t, err, model.ErrCategoryNotFound)
	assert.Empty(t, f.store.OutboxEvents())
}

func TestCategoryService_RenameInvalidatesProductsOfCategory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	category := f.createCategory(t, "Tools")
	product := f.createProduct(t, "Hammer", category.ID, 10)

	_, err := f.products.Get(ctx, product.ID)
	require.NoError(t, err)
	_, err = f.products.List(ctx)
	require.NoError(t, err)

	require.NoError(t, f.categories.Update(ctx, category.ID, &model.UpdateCategoryParams{ID: category.ID, Name: "Hardware"}))

	assert.False(t, f.cache.Has(cache.ProductKey(product.ID)))
	assert.False(t, f.cache.Has(cache.ProductListKey))

	got, err := f.products.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hardware", got.CategoryName)
}

func TestCategoryService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("empty category", func(t *testing.T) {
		f := newFixture(t)
		category := f.createCategory(t, "Tools")

		_, err := f.categories.Get(ctx, category.ID)
		require.NoError(t, err)

		require.NoError(t, f.categories.Delete(ctx, category.ID))

		assert.False(t, f.cache.Has(cache.CategoryKey(category.ID)))

		_, err = f.categories.Get(ctx, category.ID)
		require.ErrorIs(t, err, model.ErrCategoryNotFound)

		assert.Equal(t,
			[]string{string(model.EventActionCategoryCreated), string(model.EventActionCategoryDeleted)},
			eventTypes(f.store.OutboxEvents()),
		)
	})

	t.Run("category with products", func(t *testing.T) {
		f := newFixture(t)
		category := f.createCategory(t, "Tools")
		f.createProduct(t, "Hammer", category.ID, 10)

		err := f.categories.Delete(ctx, category.ID)
		require.ErrorIs(t, err, model.ErrCategoryInUse)
		assert.Equal(t, model.KindConflict, model.KindOf(err))

		_, err = f.categories.Get(ctx, category.ID)
		require.NoError(t, err)
	})

	t.Run("missing category", func(t *testing.T) {
		f := newFixture(t)

		err := f.categories.Delete(ctx, 77)
		require.ErrorIs(t, err, model.ErrCategoryNotFound)
		assert.Empty(t, f.cache.Removed())
	})
}

func TestCategoryService_CreateValidates(t *testing.T) {
	f := newFixture(t)

	_, err := f.categories.Create(context.Background(), &model.CreateCategoryParams{})
	require.ErrorIs(t, err, model.ErrInvalidName)
	assert.Empty(t, f.store.OutboxEvents())
}

func TestCategoryService_EventPayload(t *testing.T) {
	f := newFixture(t)
	category := f.createCategory(t, "Tools")

	events := f.store.OutboxEvents()
	require.Len(t, events, 1)

	var payload model.CategoryEvent
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))

	assert.Equal(t, model.CategoryEvent{CategoryID: category.ID, Name: "Tools", Action: model.EventActionCategoryCreated}, payload)
	assert.Equal(t, model.CategoryAggregateID(category.ID), events[0].AggregateID)
	assert.Equal(t, model.OutboxStatusPending, events[0].Status)
	assert.NotEqual(t, [16]byte{}, [16]byte(events[0].MessageID))
}

func TestCategoryService_ListOrderedByID(t *testing.T) {
	f := newFixture(t)

	tools := f.createCategory(t, "Tools")
	garden := f.createCategory(t, "Garden")

	list, err := f.categories.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []int64{tools.ID, garden.ID}, []int64{list[0].ID, list[1].ID})
}
