package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jnst/store-backoffice/internal/cache"
	"github.com/jnst/store-backoffice/internal/model"
	"github.com/jnst/store-backoffice/internal/repository"
)

// ProductServiceImpl implements ProductService with cache-aside reads and
// outbox-backed writes.
type ProductServiceImpl struct {
	productRepo    repository.ProductRepository
	categoryRepo   repository.CategoryRepository
	outboxRepo     repository.OutboxRepository
	transactionMgr repository.TransactionManager
	cache          *cache.Aside
	logger         *slog.Logger
}

// NewProductServiceImpl creates a new ProductService implementation.
func NewProductServiceImpl(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	outboxRepo repository.OutboxRepository,
	transactionMgr repository.TransactionManager,
	aside *cache.Aside,
	logger *slog.Logger,
) ProductService {
	return &ProductServiceImpl{
		productRepo:    productRepo,
		categoryRepo:   categoryRepo,
		outboxRepo:     outboxRepo,
		transactionMgr: transactionMgr,
		cache:          aside,
		logger:         logger,
	}
}

// List returns all products with their category names.
func (s *ProductServiceImpl) List(ctx context.Context) ([]*model.ProductDetail, error) {
	if products, ok := cache.Lookup[[]*model.ProductDetail](ctx, s.cache, cache.ProductListKey); ok {
		return products, nil
	}

	products, err := s.productRepo.ListWithCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	s.cache.Store(ctx, cache.ProductListKey, products)

	return products, nil
}

// Get returns one product with its category name.
func (s *ProductServiceImpl) Get(ctx context.Context, id int64) (*model.ProductDetail, error) {
	key := cache.ProductKey(id)

	if product, ok := cache.Lookup[*model.ProductDetail](ctx, s.cache, key); ok && product != nil {
		return product, nil
	}

	product, err := s.productRepo.GetWithCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Store(ctx, key, product)

	return product, nil
}

// Create persists a product and its product_created event.
func (s *ProductServiceImpl) Create(ctx context.Context, params *model.CreateProductParams) (*model.Product, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var created *model.Product

	err := s.transactionMgr.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.requireCategory(ctx, params.CategoryID); err != nil {
			return err
		}

		product, err := s.productRepo.Create(ctx, params)
		if err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		created = product

		return s.appendEvent(ctx, product.ID, product.Name, product.CategoryID, model.EventActionProductCreated)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(context.WithoutCancel(ctx), cache.ProductListKey)
	s.logger.Info("product created", slog.Int64("product_id", created.ID))

	return created, nil
}

// Update replaces a product's fields.
func (s *ProductServiceImpl) Update(ctx context.Context, id int64, params *model.UpdateProductParams) error {
	if params.ID != id {
		return model.ErrIDMismatch
	}

	if err := params.Validate(); err != nil {
		return err
	}

	err := s.transactionMgr.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.requireCategory(ctx, params.CategoryID); err != nil {
			return err
		}

		product, err := s.productRepo.Update(ctx, params)
		if err != nil {
			return err
		}

		return s.appendEvent(ctx, product.ID, product.Name, product.CategoryID, model.EventActionProductUpdated)
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(context.WithoutCancel(ctx), cache.ProductKey(id), cache.ProductListKey)
	s.logger.Info("product updated", slog.Int64("product_id", id))

	return nil
}

// Delete removes a product.
func (s *ProductServiceImpl) Delete(ctx context.Context, id int64) error {
	err := s.transactionMgr.WithTransaction(ctx, func(ctx context.Context) error {
		product, err := s.productRepo.GetWithCategory(ctx, id)
		if err != nil {
			return err
		}

		if err := s.productRepo.Delete(ctx, id); err != nil {
			return err
		}

		return s.appendEvent(ctx, product.ID, product.Name, product.CategoryID, model.EventActionProductDeleted)
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(context.WithoutCancel(ctx), cache.ProductKey(id), cache.ProductListKey)
	s.logger.Info("product deleted", slog.Int64("product_id", id))

	return nil
}

func (s *ProductServiceImpl) requireCategory(ctx context.Context, categoryID int64) error {
	exists, err := s.categoryRepo.Exists(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("failed to check category %d: %w", categoryID, err)
	}

	if !exists {
		return model.MissingCategoryError(categoryID)
	}

	return nil
}

func (s *ProductServiceImpl) appendEvent(
	ctx context.Context,
	id int64,
	name string,
	categoryID int64,
	action model.EventAction,
) error {
	return appendEvent(ctx, s.outboxRepo, model.ProductAggregateID(id), action, model.ProductEvent{
		ProductID:  id,
		Name:       name,
		CategoryID: categoryID,
		Action:     action,
	})
}
