package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jnst/store-backoffice/internal/cache"
	"github.com/jnst/store-backoffice/internal/logger"
	"github.com/jnst/store-backoffice/internal/model"
	"github.com/jnst/store-backoffice/internal/testsupport"
)

type fixture struct {
	store      *testsupport.Store
	cache      *testsupport.Cache
	categories CategoryService
	products   ProductService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := testsupport.NewStore()
	backend := testsupport.NewCache()
	aside := cache.NewAside(backend, 10*time.Minute, logger.Discard())

	return &fixture{
		store: store,
		cache: backend,
		categories: NewCategoryServiceImpl(
			store.Categories(), store.Outbox(), store, aside, logger.Discard(),
		),
		products: NewProductServiceImpl(
			store.Products(), store.Categories(), store.Outbox(), store, aside, logger.Discard(),
		),
	}
}

func (f *fixture) createCategory(t *testing.T, name string) *model.Category {
	t.Helper()

	category, err := f.categories.Create(context.Background(), &model.CreateCategoryParams{Name: name})
	require.NoError(t, err)

	return category
}

func (f *fixture) createProduct(t *testing.T, name string, categoryID int64, price float64) *model.Product {
	t.Helper()

	product, err := f.products.Create(context.Background(), &model.CreateProductParams{
		Name:       name,
		Price:      price,
		Stock:      1,
		CategoryID: categoryID,
	})
	require.NoError(t, err)

	return product
}

func eventTypes(events []model.OutboxEvent) []string {
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.EventType)
	}

	return types
}
