// Package auth issues and verifies bearer tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/jonboulle/clockwork"

	"github.com/jnst/store-backoffice/internal/model"
)

// ErrInvalidToken is returned for a malformed, expired or forged token.
var ErrInvalidToken = model.NewError(model.KindUnauthorized, "invalid or expired token")

// Claims are the token claims of an authenticated user.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the subject as a user id.
func (c *Claims) UserID() int64 {
	id, _ := strconv.ParseInt(c.Subject, 10, 64)
	return id
}

// TokenConfig configures token signing.
type TokenConfig struct {
	Key      string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// TokenService signs and verifies HS256 tokens.
type TokenService struct {
	cfg   TokenConfig
	clock clockwork.Clock
}

// NewTokenService creates a token service using the wall clock.
func NewTokenService(cfg TokenConfig) *TokenService {
	return NewTokenServiceWithClock(cfg, clockwork.NewRealClock())
}

// NewTokenServiceWithClock creates a token service with an explicit clock.
func NewTokenServiceWithClock(cfg TokenConfig, clock clockwork.Clock) *TokenService {
	return &TokenService{cfg: cfg, clock: clock}
}

// CreateToken issues a token for user.
func (s *TokenService) CreateToken(user *model.User) (*model.AuthToken, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.cfg.TTL)

	claims := Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Key))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &model.AuthToken{Token: signed, ExpiresAt: expiresAt}, nil
}

// ParseToken verifies signature, issuer, audience and expiry.
func (s *TokenService) ParseToken(raw string) (*Claims, error) {
	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	_, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.Key), nil
	})
	if err != nil {
		return nil, model.WrapError(model.KindUnauthorized, err, "%s", ErrInvalidToken.Message)
	}

	now := s.clock.Now()
	if !claims.VerifyExpiresAt(now, true) || !claims.VerifyNotBefore(now, false) {
		return nil, ErrInvalidToken
	}

	if !claims.VerifyIssuer(s.cfg.Issuer, true) || !claims.VerifyAudience(s.cfg.Audience, true) {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}

// IsInvalidToken reports whether err came from token verification.
func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}
