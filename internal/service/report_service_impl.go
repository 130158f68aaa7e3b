package service

import (
	"context"
	"fmt"

	"github.com/jnst/store-backoffice/internal/model"
	"github.com/jnst/store-backoffice/internal/repository"
)

// ReportServiceImpl implements ReportService. Reports read the store directly.
type ReportServiceImpl struct {
	reportRepo repository.ReportRepository
}

// NewReportServiceImpl creates a new ReportService implementation.
func NewReportServiceImpl(reportRepo repository.ReportRepository) ReportService {
	return &ReportServiceImpl{reportRepo: reportRepo}
}

// InventorySummary returns stock value per category, highest first.
func (s *ReportServiceImpl) InventorySummary(ctx context.Context) ([]*model.InventorySummary, error) {
	summary, err := s.reportRepo.InventorySummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build inventory summary: %w", err)
	}

	return summary, nil
}
