package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/entity"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/enum"
	domainRepo "github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/repository"
	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/apperror"
	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/pagination"
)

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) domainRepo.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	// Items, payments and history rows are created together with the
	// aggregate in one transaction via GORM association handling.
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *invoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at ASC") }).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("changed_at ASC") }).
		First(&invoice, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &invoice, err
}

func (r *invoiceRepository) GetByNumber(ctx context.Context, userID uuid.UUID, number string) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := r.db.WithContext(ctx).
		First(&invoice, "user_id = ? AND invoice_number = ?", userID, number).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &invoice, err
}

// Save persists the mutated aggregate. The invoice row update is guarded by
// a version check; zero rows affected means another writer got there first
// and the caller must reload and retry. Items are replaced wholesale,
// payments and status history rows are append-only inserts.
func (r *invoiceRepository) Save(ctx context.Context, invoice *entity.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.Invoice{}).
			Where("id = ? AND version = ?", invoice.ID, invoice.Version).
			Updates(map[string]interface{}{
				"client_id":        invoice.ClientID,
				"invoice_date":     invoice.InvoiceDate,
				"due_date":         invoice.DueDate,
				"status":           invoice.Status,
				"discount_amount":  invoice.DiscountAmount,
				"tax_amount":       invoice.TaxAmount,
				"subtotal":         invoice.Subtotal,
				"total_amount":     invoice.TotalAmount,
				"total_paid":       invoice.TotalPaid,
				"remaining_amount": invoice.RemainingAmount,
				"notes":            invoice.Notes,
				"terms":            invoice.Terms,
				"version":          invoice.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.NewConcurrencyConflictError()
		}
		invoice.Version++

		if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&entity.InvoiceItem{}).Error; err != nil {
			return err
		}
		for i := range invoice.Items {
			invoice.Items[i].ID = uuid.Nil
			invoice.Items[i].InvoiceID = invoice.ID
		}
		if len(invoice.Items) > 0 {
			if err := tx.Create(&invoice.Items).Error; err != nil {
				return err
			}
		}

		// Payment IDs are assigned when the ledger entry is applied, so new
		// rows are the ones the database has not stamped yet.
		for i := range invoice.Payments {
			if invoice.Payments[i].CreatedAt.IsZero() {
				invoice.Payments[i].InvoiceID = invoice.ID
				if err := tx.Create(&invoice.Payments[i]).Error; err != nil {
					return err
				}
			}
		}

		for i := range invoice.StatusHistory {
			if invoice.StatusHistory[i].ID == uuid.Nil {
				invoice.StatusHistory[i].InvoiceID = invoice.ID
				if err := tx.Create(&invoice.StatusHistory[i]).Error; err != nil {
					return err
				}
			}
		}

		return nil
	})
}

func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Invoice{}, "id = ?", id).Error
}

func (r *invoiceRepository) List(ctx context.Context, userID uuid.UUID, params *domainRepo.InvoiceFilterParams) ([]entity.Invoice, int64, error) {
	var invoices []entity.Invoice
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Invoice{}).Scopes(OwnerScope(ctx))

	if params.Search != "" {
		query = query.Where("invoice_number ILIKE ?", "%"+params.Search+"%")
	}

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if params.ClientID != nil {
		query = query.Where("client_id = ?", *params.ClientID)
	}

	if params.StartDate != nil {
		query = query.Where("invoice_date >= ?", *params.StartDate)
	}

	if params.EndDate != nil {
		query = query.Where("invoice_date <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := "created_at"
	sortOrder := "DESC"
	if params.SortBy != "" {
		sortBy = params.SortBy
	}
	if params.SortOrder == "ASC" || params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Preload("Client").
		Order(sortBy + " " + sortOrder).
		Find(&invoices).Error

	return invoices, total, err
}

func (r *invoiceRepository) ListByClient(ctx context.Context, clientID uuid.UUID, params *pagination.PaginationParams) ([]entity.Invoice, int64, error) {
	var invoices []entity.Invoice
	var total int64

	// Client-portal view: scoped by the billed client, not the owner.
	query := r.db.WithContext(ctx).Model(&entity.Invoice{}).
		Where("client_id = ?", clientID).
		Where("status <> ?", enum.InvoiceStatusDraft)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Offset(params.Offset()).Limit(params.PerPage).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").
		Find(&invoices).Error

	return invoices, total, err
}

// NextSequence returns max(existing sequence)+1 for the owner and year.
// Soft-deleted invoices are included so their numbers are never reissued.
// The sequence is the third dash-separated segment; it is zero-padded to
// four digits but grows wider past 9999, so it cannot be read as a fixed
// suffix.
func (r *invoiceRepository) NextSequence(ctx context.Context, userID uuid.UUID, year int) (int, error) {
	var maxSeq int
	prefix := fmt.Sprintf("INV-%d-", year)
	err := r.db.WithContext(ctx).Model(&entity.Invoice{}).Unscoped().
		Where("user_id = ? AND invoice_number LIKE ?", userID, prefix+"%").
		Select("COALESCE(MAX(CAST(SPLIT_PART(invoice_number, '-', 3) AS INTEGER)), 0)").
		Scan(&maxSeq).Error
	if err != nil {
		return 0, err
	}
	return maxSeq + 1, nil
}

func (r *invoiceRepository) ListOverdueCandidates(ctx context.Context, now time.Time, limit int) ([]entity.Invoice, error) {
	var invoices []entity.Invoice
	err := r.db.WithContext(ctx).
		Where("status IN ?", []enum.InvoiceStatus{
			enum.InvoiceStatusSent,
			enum.InvoiceStatusViewed,
			enum.InvoiceStatusPartialPaid,
		}).
		Where("due_date < ?", now).
		Limit(limit).
		Order("due_date ASC").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) Stats(ctx context.Context, userID uuid.UUID) (*domainRepo.InvoiceStats, error) {
	stats := &domainRepo.InvoiceStats{}

	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&entity.Invoice{}).Where("user_id = ?", userID)
	}

	if err := base().
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&stats.StatusCounts).Error; err != nil {
		return nil, err
	}

	type totalsRow struct {
		TotalInvoices int64
		TotalAmount   int64
		TotalPaid     int64
		TotalPending  int64
	}
	var totals totalsRow
	if err := base().
		Select("COUNT(*) AS total_invoices, COALESCE(SUM(total_amount),0) AS total_amount, COALESCE(SUM(total_paid),0) AS total_paid, COALESCE(SUM(remaining_amount),0) AS total_pending").
		Scan(&totals).Error; err != nil {
		return nil, err
	}
	stats.TotalInvoices = totals.TotalInvoices
	stats.TotalAmount = totals.TotalAmount
	stats.TotalPaid = totals.TotalPaid
	stats.TotalPending = totals.TotalPending

	yearStart := time.Date(time.Now().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	if err := base().
		Select("EXTRACT(MONTH FROM invoice_date)::int AS month, COUNT(*) AS count, COALESCE(SUM(total_amount),0) AS total_amount, COALESCE(SUM(total_paid),0) AS total_paid").
		Where("invoice_date >= ?", yearStart).
		Group("month").
		Order("month ASC").
		Scan(&stats.Monthly).Error; err != nil {
		return nil, err
	}

	if err := base().
		Where("status = ?", enum.InvoiceStatusOverdue).
		Preload("Client").
		Order("due_date ASC").
		Limit(5).
		Find(&stats.RecentOverdue).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
