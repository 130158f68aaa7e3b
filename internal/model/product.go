package model

const (
	minPrice = 0.01
	maxPrice = 999999.99

	minUpdatedNameLength = 3
)

// Product represents a product row.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Image       *string `json:"image,omitempty"`
	CategoryID  int64   `json:"categoryId"`
}

// ProductDetail is a product joined with its category name. It is the
// response shape and the cached shape of product reads.
type ProductDetail struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Stock        int     `json:"stock"`
	Image        *string `json:"image,omitempty"`
	CategoryID   int64   `json:"categoryId"`
	CategoryName string  `json:"categoryName"`
}

// CreateProductParams represents parameters for creating a new product.
type CreateProductParams struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Image       *string `json:"image,omitempty"`
	CategoryID  int64   `json:"categoryId"`
}

// Validate validates the create product parameters.
func (p *CreateProductParams) Validate() error {
	if err := validateName(p.Name, 1); err != nil {
		return err
	}

	return validateProductFields(p.Price, p.Stock, p.CategoryID)
}

// UpdateProductParams represents parameters for updating a product.
type UpdateProductParams struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Image       *string `json:"image,omitempty"`
	CategoryID  int64   `json:"categoryId"`
}

// Validate validates the update product parameters.
func (p *UpdateProductParams) Validate() error {
	if err := validateName(p.Name, minUpdatedNameLength); err != nil {
		return err
	}

	return validateProductFields(p.Price, p.Stock, p.CategoryID)
}

func validateProductFields(price float64, stock int, categoryID int64) error {
	if price < minPrice || price > maxPrice {
		return ErrInvalidPrice
	}

	if stock < 0 {
		return ErrInvalidStock
	}

	if categoryID <= 0 {
		return ErrInvalidCategoryID
	}

	return nil
}
