package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/entity"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/enum"
	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/pagination"
)

// InvoiceRepository defines the interface for invoice data operations.
// Save enforces the optimistic-concurrency contract: it bumps the aggregate
// version and fails with a concurrency-conflict error when the persisted
// version no longer matches the loaded one.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	GetByNumber(ctx context.Context, userID uuid.UUID, number string) (*entity.Invoice, error)
	Save(ctx context.Context, invoice *entity.Invoice) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, params *InvoiceFilterParams) ([]entity.Invoice, int64, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, params *pagination.PaginationParams) ([]entity.Invoice, int64, error)
	// NextSequence returns the next invoice sequence number for the given
	// owner and year (max existing + 1).
	NextSequence(ctx context.Context, userID uuid.UUID, year int) (int, error)
	// ListOverdueCandidates returns non-terminal, non-draft invoices whose
	// due date passed but whose status is not yet overdue.
	ListOverdueCandidates(ctx context.Context, now time.Time, limit int) ([]entity.Invoice, error)
	Stats(ctx context.Context, userID uuid.UUID) (*InvoiceStats, error)
}

// InvoiceFilterParams contains filtering parameters for invoice queries
type InvoiceFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	Status     *enum.InvoiceStatus
	ClientID   *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
	SortBy     string
	SortOrder  string
}

// StatusCount is the number of invoices in one status.
type StatusCount struct {
	Status enum.InvoiceStatus `json:"status"`
	Count  int64              `json:"count"`
}

// MonthlyStat aggregates invoiced and collected amounts for one month.
type MonthlyStat struct {
	Month       int   `json:"month"`
	Count       int64 `json:"count"`
	TotalAmount int64 `json:"total_amount"`
	TotalPaid   int64 `json:"total_paid"`
}

// InvoiceStats is the per-owner reporting view consumed by dashboards.
type InvoiceStats struct {
	StatusCounts  []StatusCount    `json:"status_counts"`
	TotalInvoices int64            `json:"total_invoices"`
	TotalAmount   int64            `json:"total_amount"`
	TotalPaid     int64            `json:"total_paid"`
	TotalPending  int64            `json:"total_pending"`
	Monthly       []MonthlyStat    `json:"monthly"`
	RecentOverdue []entity.Invoice `json:"recent_overdue"`
}
