package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/jnst/store-backoffice/internal/model"
)

const productDetailColumns = `p.id, p.name, p.description, p.price, p.stock, p.image, p.category_id, c.name`

// ProductRepositoryImpl implements ProductRepository using PostgreSQL.
type ProductRepositoryImpl struct {
	pool DBTX
}

// NewProductRepositoryImpl creates a new ProductRepository implementation.
func NewProductRepositoryImpl(pool DBTX) ProductRepository {
	return &ProductRepositoryImpl{pool: pool}
}

// Create creates a new product.
func (r *ProductRepositoryImpl) Create(ctx context.Context, params *model.CreateProductParams) (*model.Product, error) {
	product := model.Product{
		Name:        params.Name,
		Description: params.Description,
		Price:       params.Price,
		Stock:       params.Stock,
		Image:       params.Image,
		CategoryID:  params.CategoryID,
	}

	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO products (name, description, price, stock, image, category_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		params.Name, params.Description, params.Price, params.Stock, params.Image, params.CategoryID,
	).Scan(&product.ID)
	if err != nil {
		return nil, translateError(err, nil)
	}

	return &product, nil
}

// GetWithCategory retrieves a product joined with its category.
func (r *ProductRepositoryImpl) GetWithCategory(ctx context.Context, id int64) (*model.ProductDetail, error) {
	row := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+productDetailColumns+`
		 FROM products p
		 JOIN categories c ON c.id = p.category_id
		 WHERE p.id = $1`,
		id,
	)

	detail, err := scanProductDetail(row)
	if err != nil {
		return nil, translateError(err, model.ErrProductNotFound)
	}

	return detail, nil
}

// ListWithCategory retrieves every product joined with its category.
func (r *ProductRepositoryImpl) ListWithCategory(ctx context.Context) ([]*model.ProductDetail, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+productDetailColumns+`
		 FROM products p
		 JOIN categories c ON c.id = p.category_id
		 ORDER BY p.id`,
	)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.ProductDetail, error) {
		return scanProductDetail(row)
	})
}

// Update overwrites every mutable product column.
func (r *ProductRepositoryImpl) Update(ctx context.Context, params *model.UpdateProductParams) (*model.Product, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE products
		 SET name = $2, description = $3, price = $4, stock = $5, image = $6, category_id = $7
		 WHERE id = $1`,
		params.ID, params.Name, params.Description, params.Price, params.Stock, params.Image, params.CategoryID,
	)
	if err != nil {
		return nil, translateError(err, nil)
	}

	if tag.RowsAffected() == 0 {
		return nil, model.ErrProductNotFound
	}

	return &model.Product{
		ID:          params.ID,
		Name:        params.Name,
		Description: params.Description,
		Price:       params.Price,
		Stock:       params.Stock,
		Image:       params.Image,
		CategoryID:  params.CategoryID,
	}, nil
}

// Delete removes a product.
func (r *ProductRepositoryImpl) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return translateError(err, nil)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	return nil
}

// Exists reports whether a product exists.
func (r *ProductRepositoryImpl) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool

	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`,
		id,
	).Scan(&exists)

	return exists, err
}

func scanProductDetail(row pgx.Row) (*model.ProductDetail, error) {
	var detail model.ProductDetail

	err := row.Scan(
		&detail.ID,
		&detail.Name,
		&detail.Description,
		&detail.Price,
		&detail.Stock,
		&detail.Image,
		&detail.CategoryID,
		&detail.CategoryName,
	)
	if err != nil {
		return nil, err
	}

	return &detail, nil
}
