package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/jnst/store-backoffice/internal/model"
)

// ReportRepositoryImpl implements ReportRepository with plain SQL aggregates.
type ReportRepositoryImpl struct {
	pool DBTX
}

// NewReportRepositoryImpl creates a new ReportRepository implementation.
func NewReportRepositoryImpl(pool DBTX) ReportRepository {
	return &ReportRepositoryImpl{pool: pool}
}

// InventorySummary groups products per category with their count and the sum
// of their prices, highest value first.
func (r *ReportRepositoryImpl) InventorySummary(ctx context.Context) ([]*model.InventorySummary, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT c.name, COUNT(p.id), COALESCE(SUM(p.price), 0)::float8 AS stock_value
		 FROM products p
		 JOIN categories c ON c.id = p.category_id
		 GROUP BY c.name
		 ORDER BY stock_value DESC`,
	)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.InventorySummary, error) {
		var summary model.InventorySummary
		err := row.Scan(&summary.CategoryName, &summary.TotalProducts, &summary.StockValue)

		return &summary, err
	})
}
