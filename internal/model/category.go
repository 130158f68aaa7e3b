// Package model defines domain models and data structures.
package model

import "unicode/utf8"

const maxNameLength = 100

// Category represents a product category.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CreateCategoryParams represents parameters for creating a new category.
type CreateCategoryParams struct {
	Name string `json:"name"`
}

// Validate validates the create category parameters.
func (p *CreateCategoryParams) Validate() error {
	return validateName(p.Name, 1)
}

// UpdateCategoryParams represents parameters for updating a category.
type UpdateCategoryParams struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Validate validates the update category parameters.
func (p *UpdateCategoryParams) Validate() error {
	return validateName(p.Name, 1)
}

func validateName(name string, minLength int) error {
	n := utf8.RuneCountInString(name)
	if n < minLength || n > maxNameLength {
		return ErrInvalidName
	}

	return nil
}
