package repository

import (
	"context"

	"github.com/jnst/store-backoffice/internal/model"
)

// UserRepositoryImpl implements UserRepository using PostgreSQL.
type UserRepositoryImpl struct {
	pool DBTX
}

// NewUserRepositoryImpl creates a new UserRepository implementation.
func NewUserRepositoryImpl(pool DBTX) UserRepository {
	return &UserRepositoryImpl{pool: pool}
}

// Create creates a new user.
func (r *UserRepositoryImpl) Create(ctx context.Context, params *model.CreateUserParams) (*model.User, error) {
	user := model.User{
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
	}

	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO users (email, password_hash, role) VALUES ($1, $2, $3) RETURNING id, created_at`,
		params.Email, params.PasswordHash, params.Role,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isViolation(err, uniqueViolation) {
			return nil, model.ErrEmailTaken
		}

		return nil, translateError(err, nil)
	}

	return &user, nil
}

// GetByEmail retrieves a user by email.
func (r *UserRepositoryImpl) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User

	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id, email, password_hash, role, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		return nil, translateError(err, model.ErrUserNotFound)
	}

	return &user, nil
}

// ExistsByEmail reports whether an email is registered.
func (r *UserRepositoryImpl) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool

	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`,
		email,
	).Scan(&exists)

	return exists, err
}
