package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/jnst/store-backoffice/internal/model"
)

// CategoryRepositoryImpl implements CategoryRepository using PostgreSQL.
type CategoryRepositoryImpl struct {
	pool DBTX
}

// NewCategoryRepositoryImpl creates a new CategoryRepository implementation.
func NewCategoryRepositoryImpl(pool DBTX) CategoryRepository {
	return &CategoryRepositoryImpl{pool: pool}
}

// Create creates a new category.
func (r *CategoryRepositoryImpl) Create(ctx context.Context, params *model.CreateCategoryParams) (*model.Category, error) {
	var category model.Category

	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO categories (name) VALUES ($1) RETURNING id, name`,
		params.Name,
	).Scan(&category.ID, &category.Name)
	if err != nil {
		return nil, translateError(err, nil)
	}

	return &category, nil
}

// GetByID retrieves a category by ID.
func (r *CategoryRepositoryImpl) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	var category model.Category

	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id, name FROM categories WHERE id = $1`,
		id,
	).Scan(&category.ID, &category.Name)
	if err != nil {
		return nil, translateError(err, model.ErrCategoryNotFound)
	}

	return &category, nil
}

// List retrieves every category ordered by id.
func (r *CategoryRepositoryImpl) List(ctx context.Context) ([]*model.Category, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Category, error) {
		var category model.Category
		err := row.Scan(&category.ID, &category.Name)

		return &category, err
	})
}

// Update renames a category.
func (r *CategoryRepositoryImpl) Update(ctx context.Context, params *model.UpdateCategoryParams) (*model.Category, error) {
	var category model.Category

	err := conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE categories SET name = $2 WHERE id = $1 RETURNING id, name`,
		params.ID, params.Name,
	).Scan(&category.ID, &category.Name)
	if err != nil {
		return nil, translateError(err, model.ErrCategoryNotFound)
	}

	return &category, nil
}

// Delete removes a category. The products foreign key is ON DELETE RESTRICT,
// so a category with products fails with ErrCategoryInUse.
func (r *CategoryRepositoryImpl) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if isViolation(err, foreignKeyViolation) {
			return model.WrapError(model.KindConflict, err, "%s", model.ErrCategoryInUse.Message)
		}

		return translateError(err, nil)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrCategoryNotFound
	}

	return nil
}

// Exists reports whether a category exists.
func (r *CategoryRepositoryImpl) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool

	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`,
		id,
	).Scan(&exists)

	return exists, err
}

// CountProducts counts the products referencing a category.
func (r *CategoryRepositoryImpl) CountProducts(ctx context.Context, id int64) (int64, error) {
	var count int64

	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM products WHERE category_id = $1`,
		id,
	).Scan(&count)

	return count, err
}

// ProductIDs lists the ids of the products in a category.
func (r *CategoryRepositoryImpl) ProductIDs(ctx context.Context, id int64) ([]int64, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT id FROM products WHERE category_id = $1 ORDER BY id`,
		id,
	)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[int64])
}
