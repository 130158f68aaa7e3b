// Package repository provides data access interfaces and implementations.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jnst/store-backoffice/internal/model"
)

// CategoryRepository defines methods for category data access.
type CategoryRepository interface {
	Create(ctx context.Context, params *model.CreateCategoryParams) (*model.Category, error)
	GetByID(ctx context.Context, id int64) (*model.Category, error)
	List(ctx context.Context) ([]*model.Category, error)
	Update(ctx context.Context, params *model.UpdateCategoryParams) (*model.Category, error)
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
	CountProducts(ctx context.Context, id int64) (int64, error)
	ProductIDs(ctx context.Context, id int64) ([]int64, error)
}

// ProductRepository defines methods for product data access. Reads always
// join the owning category.
type ProductRepository interface {
	Create(ctx context.Context, params *model.CreateProductParams) (*model.Product, error)
	GetWithCategory(ctx context.Context, id int64) (*model.ProductDetail, error)
	ListWithCategory(ctx context.Context) ([]*model.ProductDetail, error)
	Update(ctx context.Context, params *model.UpdateProductParams) (*model.Product, error)
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

// UserRepository defines methods for user data access.
type UserRepository interface {
	Create(ctx context.Context, params *model.CreateUserParams) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// OutboxRepository defines methods for outbox event data access.
type OutboxRepository interface {
	CreateEvent(ctx context.Context, params *model.CreateOutboxEventParams) (*model.OutboxEvent, error)
	// FetchDue locks up to limit deliverable events whose next attempt is due.
	FetchDue(ctx context.Context, now time.Time, limit int) ([]*model.OutboxEvent, error)
	MarkAsPublished(ctx context.Context, id int64, at time.Time) error
	ScheduleRetry(ctx context.Context, id int64, attempts int, next time.Time, lastErr string) error
	MarkAsFailed(ctx context.Context, id int64, attempts int, lastErr string) error
	ListFailed(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	Requeue(ctx context.Context, id int64, now time.Time) error
}

// InboxRepository records processed messages per consumer.
type InboxRepository interface {
	// Record stores the marker and reports whether it was new.
	Record(ctx context.Context, messageID uuid.UUID, consumer string) (bool, error)
}

// ReportRepository runs reporting aggregates.
type ReportRepository interface {
	InventorySummary(ctx context.Context) ([]*model.InventorySummary, error)
}

// TransactionManager defines methods for database transaction management.
type TransactionManager interface {
	// WithTransaction runs fn in a transaction. Repository calls made with the
	// ctx passed to fn join that transaction.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
