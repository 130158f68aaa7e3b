package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jnst/store-backoffice/internal/model"
	"github.com/jnst/store-backoffice/internal/repository"
)

// AuthServiceImpl implements AuthService.
type AuthServiceImpl struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	logger   *slog.Logger
}

// NewAuthServiceImpl creates a new AuthService implementation.
func NewAuthServiceImpl(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	logger *slog.Logger,
) AuthService {
	return &AuthServiceImpl{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger,
	}
}

// Register creates a seller account. Emails are compared lowercased.
func (s *AuthServiceImpl) Register(ctx context.Context, params *model.RegisterParams) (*model.User, error) {
	params.Normalize()

	if err := params.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, params.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if exists {
		return nil, model.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// The unique index still guards a concurrent registration.
	user, err := s.userRepo.Create(ctx, &model.CreateUserParams{
		Email:        params.Email,
		PasswordHash: hash,
		Role:         model.RoleSeller,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.Int64("user_id", user.ID))

	return user, nil
}

// Login verifies credentials and issues a token. Unknown emails and wrong
// passwords fail identically.
func (s *AuthServiceImpl) Login(ctx context.Context, params *model.LoginParams) (*model.AuthToken, error) {
	email := model.NormalizeEmail(params.Email)
	if email == "" || params.Password == "" {
		return nil, model.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrInvalidCredentials
		}

		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := s.hasher.Compare(user.PasswordHash, params.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	if !ok {
		return nil, model.ErrInvalidCredentials
	}

	return s.tokens.CreateToken(user)
}
