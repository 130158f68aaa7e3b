package model

import (
	"net/mail"
	"strings"
	"time"
)

const (
	// RoleSeller is assigned to every registered user.
	RoleSeller = "Seller"
	// RoleAdmin may operate the outbox.
	RoleAdmin = "Admin"

	minPasswordLength = 6
)

// User represents a back office user.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterParams represents parameters for registering a user.
type RegisterParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Normalize lowercases and trims the email.
func (p *RegisterParams) Normalize() {
	p.Email = NormalizeEmail(p.Email)
}

// Validate validates the registration parameters.
func (p *RegisterParams) Validate() error {
	if _, err := mail.ParseAddress(p.Email); err != nil || p.Email == "" {
		return ErrInvalidEmail
	}

	if len(p.Password) < minPasswordLength {
		return ErrInvalidPassword
	}

	return nil
}

// LoginParams represents login credentials.
type LoginParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateUserParams represents parameters for persisting a user.
type CreateUserParams struct {
	Email        string
	PasswordHash []byte
	Role         string
}

// AuthToken is returned by a successful login.
type AuthToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
