// Package service provides business logic layer implementations.
package service

import (
	"context"

	"github.com/jnst/store-backoffice/internal/messaging"
	"github.com/jnst/store-backoffice/internal/model"
)

// CategoryService defines business logic methods for category management.
type CategoryService interface {
	List(ctx context.Context) ([]*model.Category, error)
	Get(ctx context.Context, id int64) (*model.Category, error)
	Create(ctx context.Context, params *model.CreateCategoryParams) (*model.Category, error)
	// Update rejects params whose ID differs from id.
	Update(ctx context.Context, id int64, params *model.UpdateCategoryParams) error
	Delete(ctx context.Context, id int64) error
}

// ProductService defines business logic methods for product management.
type ProductService interface {
	List(ctx context.Context) ([]*model.ProductDetail, error)
	Get(ctx context.Context, id int64) (*model.ProductDetail, error)
	Create(ctx context.Context, params *model.CreateProductParams) (*model.Product, error)
	// Update rejects params whose ID differs from id.
	Update(ctx context.Context, id int64, params *model.UpdateProductParams) error
	Delete(ctx context.Context, id int64) error
}

// AuthService defines registration and login.
type AuthService interface {
	Register(ctx context.Context, params *model.RegisterParams) (*model.User, error)
	Login(ctx context.Context, params *model.LoginParams) (*model.AuthToken, error)
}

// ReportService defines reporting queries.
type ReportService interface {
	InventorySummary(ctx context.Context) ([]*model.InventorySummary, error)
}

// OutboxService defines business logic methods for outbox event processing.
type OutboxService interface {
	ProcessUnpublishedEvents(ctx context.Context, limit int) (*RelayResult, error)
	ListParked(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	Requeue(ctx context.Context, id int64) error
}

// EventConsumer processes delivered events exactly once per consumer name.
type EventConsumer interface {
	Consume(ctx context.Context, env *messaging.Envelope) error
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) ([]byte, error)
	Compare(hash []byte, password string) (bool, error)
}

// TokenIssuer issues bearer tokens for authenticated users.
type TokenIssuer interface {
	CreateToken(user *model.User) (*model.AuthToken, error)
}
