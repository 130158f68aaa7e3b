package model

import (
	"errors"
	"fmt"
)

// Kind classifies an error so that callers can choose a response without
// inspecting error strings.
type Kind int

const (
	// KindInternal is an unexpected failure.
	KindInternal Kind = iota
	// KindValidation is bad input or mismatched identifiers.
	KindValidation
	// KindUnauthorized is an authentication failure.
	KindUnauthorized
	// KindForbidden is an authenticated caller without the required role.
	KindForbidden
	// KindNotFound is a missing entity.
	KindNotFound
	// KindConflict is an integrity or concurrency conflict.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a domain error with a kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind and message, so sentinels
// declared below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Kind == e.Kind && t.Message == e.Message
}

// NewError creates an error of the given kind.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a kind to an underlying error.
func WrapError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}

	return KindInternal
}

var (
	// ErrInvalidName is returned when an entity name is empty or too long.
	ErrInvalidName = NewError(KindValidation, "name is required and must be at most 100 characters")
	// ErrInvalidPrice is returned when a product price is out of range.
	ErrInvalidPrice = NewError(KindValidation, "price must be between 0.01 and 999999.99")
	// ErrInvalidStock is returned when a product stock is negative.
	ErrInvalidStock = NewError(KindValidation, "stock cannot be negative")
	// ErrInvalidCategoryID is returned when a product has no category.
	ErrInvalidCategoryID = NewError(KindValidation, "categoryId is required")
	// ErrInvalidEmail is returned when an email is empty or malformed.
	ErrInvalidEmail = NewError(KindValidation, "a valid email is required")
	// ErrInvalidPassword is returned when a password is too short.
	ErrInvalidPassword = NewError(KindValidation, "password must be at least 6 characters")
	// ErrIDMismatch is returned when the path id differs from the body id.
	ErrIDMismatch = NewError(KindValidation, "the id in the path does not match the id in the body")
	// ErrEmailTaken is returned on registration with an existing email.
	ErrEmailTaken = NewError(KindValidation, "email is already in use")
	// ErrInvalidCredentials is returned on login with a bad email or password.
	ErrInvalidCredentials = NewError(KindUnauthorized, "invalid email or password")
	// ErrCategoryNotFound is returned when a category does not exist.
	ErrCategoryNotFound = NewError(KindNotFound, "category not found")
	// ErrProductNotFound is returned when a product does not exist.
	ErrProductNotFound = NewError(KindNotFound, "product not found")
	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = NewError(KindNotFound, "user not found")
	// ErrOutboxEventNotFound is returned when an outbox event does not exist.
	ErrOutboxEventNotFound = NewError(KindNotFound, "outbox event not found")
	// ErrCategoryInUse is returned when deleting a category that still has products.
	ErrCategoryInUse = NewError(KindConflict, "category still has products")
)

// MissingCategoryError reports a product referencing a category that does not exist.
func MissingCategoryError(categoryID int64) *Error {
	return NewError(KindValidation, "category %d does not exist", categoryID)
}
