package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/entity"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/repository"
	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/money"
)

// DashboardService aggregates reporting data for the dashboard
type DashboardService struct {
	invoiceRepo  repository.InvoiceRepository
	emailLogRepo repository.EmailLogRepository
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(invoiceRepo repository.InvoiceRepository, emailLogRepo repository.EmailLogRepository) *DashboardService {
	return &DashboardService{
		invoiceRepo:  invoiceRepo,
		emailLogRepo: emailLogRepo,
	}
}

// DashboardStats is the dashboard payload. Monetary totals are formatted as
// decimal strings alongside their minor-unit values.
type DashboardStats struct {
	TotalInvoices  int64                    `json:"total_invoices"`
	TotalAmount    string                   `json:"total_amount"`
	TotalPaid      string                   `json:"total_paid"`
	TotalPending   string                   `json:"total_pending"`
	StatusCounts   []repository.StatusCount `json:"status_counts"`
	Monthly        []repository.MonthlyStat `json:"monthly"`
	RecentOverdue  []entity.Invoice         `json:"recent_overdue"`
	RecentEmails   []entity.EmailLog        `json:"recent_emails"`
}

// GetStats builds the dashboard view for a user
func (s *DashboardService) GetStats(ctx context.Context, userID uuid.UUID) (*DashboardStats, error) {
	stats, err := s.invoiceRepo.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}

	emails, err := s.emailLogRepo.ListByUser(ctx, userID, 5)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		TotalInvoices: stats.TotalInvoices,
		TotalAmount:   money.FromMinor(stats.TotalAmount),
		TotalPaid:     money.FromMinor(stats.TotalPaid),
		TotalPending:  money.FromMinor(stats.TotalPending),
		StatusCounts:  stats.StatusCounts,
		Monthly:       stats.Monthly,
		RecentOverdue: stats.RecentOverdue,
		RecentEmails:  emails,
	}, nil
}
