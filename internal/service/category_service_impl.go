package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jnst/store-backoffice/internal/cache"
	"github.com/jnst/store-backoffice/internal/model"
	"github.com/jnst/store-backoffice/internal/repository"
)

// CategoryServiceImpl implements CategoryService with cache-aside reads and
// outbox-backed writes.
type CategoryServiceImpl struct {
	categoryRepo   repository.CategoryRepository
	outboxRepo     repository.OutboxRepository
	transactionMgr repository.TransactionManager
	cache          *cache.Aside
	logger         *slog.Logger
}

// NewCategoryServiceImpl creates a new CategoryService implementation.
func NewCategoryServiceImpl(
	categoryRepo repository.CategoryRepository,
	outboxRepo repository.OutboxRepository,
	transactionMgr repository.TransactionManager,
	aside *cache.Aside,
	logger *slog.Logger,
) CategoryService {
	return &CategoryServiceImpl{
		categoryRepo:   categoryRepo,
		outboxRepo:     outboxRepo,
		transactionMgr: transactionMgr,
		cache:          aside,
		logger:         logger,
	}
}

// List returns all categories.
func (s *CategoryServiceImpl) List(ctx context.Context) ([]*model.Category, error) {
	if categories, ok := cache.Lookup[[]*model.Category](ctx, s.cache, cache.CategoryListKey); ok {
		return categories, nil
	}

	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	s.cache.Store(ctx, cache.CategoryListKey, categories)

	return categories, nil
}

// Get returns one category. Absence is not cached.
func (s *CategoryServiceImpl) Get(ctx context.Context, id int64) (*model.Category, error) {
	key := cache.CategoryKey(id)

	if category, ok := cache.Lookup[*model.Category](ctx, s.cache, key); ok && category != nil {
		return category, nil
	}

	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Store(ctx, key, category)

	return category, nil
}

// Create persists a category and its category_created event.
func (s *CategoryServiceImpl) Create(ctx context.Context, params *model.CreateCategoryParams) (*model.Category, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var created *model.Category

	err := s.transactionMgr.WithTransaction(ctx, func(ctx context.Context) error {
		category, err := s.categoryRepo.Create(ctx, params)
		if err != nil {
			return fmt.Errorf("failed to create category: %w", err)
		}

		created = category

		return s.appendEvent(ctx, category, model.EventActionCategoryCreated)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(context.WithoutCancel(ctx), cache.CategoryListKey)
	s.logger.Info("category created", slog.Int64("category_id", created.ID))

	return created, nil
}

// Update renames a category. Cached products embed the category name, so
// they are invalidated too.
func (s *CategoryServiceImpl) Update(ctx context.Context, id int64, params *model.UpdateCategoryParams) error {
	if params.ID != id {
		return model.ErrIDMismatch
	}

	if err := params.Validate(); err != nil {
		return err
	}

	var productIDs []int64

	err := s.transactionMgr.WithTransaction(ctx, func(ctx context.Context) error {
		category, err := s.categoryRepo.Update(ctx, params)
		if err != nil {
			return err
		}

		productIDs, err = s.categoryRepo.ProductIDs(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to list category products: %w", err)
		}

		return s.appendEvent(ctx, category, model.EventActionCategoryUpdated)
	})
	if err != nil {
		return err
	}

	keys := []string{cache.CategoryKey(id), cache.CategoryListKey}
	if len(productIDs) > 0 {
		keys = append(keys, cache.ProductListKey)
		for _, productID := range productIDs {
			keys = append(keys, cache.ProductKey(productID))
		}
	}

	s.cache.Invalidate(context.WithoutCancel(ctx), keys...)
	s.logger.Info("category updated", slog.Int64("category_id", id), slog.Int("products_invalidated", len(productIDs)))

	return nil
}

// Delete removes a category that has no products.
func (s *CategoryServiceImpl) Delete(ctx context.Context, id int64) error {
	err := s.transactionMgr.WithTransaction(ctx, func(ctx context.Context) error {
		category, err := s.categoryRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		count, err := s.categoryRepo.CountProducts(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count category products: %w", err)
		}

		if count > 0 {
			return model.ErrCategoryInUse
		}

		// A product inserted concurrently still trips the foreign key.
		if err := s.categoryRepo.Delete(ctx, id); err != nil {
			return err
		}

		return s.appendEvent(ctx, category, model.EventActionCategoryDeleted)
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(context.WithoutCancel(ctx), cache.CategoryKey(id), cache.CategoryListKey)
	s.logger.Info("category deleted", slog.Int64("category_id", id))

	return nil
}

func (s *CategoryServiceImpl) appendEvent(ctx context.Context, category *model.Category, action model.EventAction) error {
	return appendEvent(ctx, s.outboxRepo, model.CategoryAggregateID(category.ID), action, model.CategoryEvent{
		CategoryID: category.ID,
		Name:       category.Name,
		Action:     action,
	})
}
