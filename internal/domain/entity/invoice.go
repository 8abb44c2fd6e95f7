package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/enum"
	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/apperror"
	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/money"
)

// Actor identifies the principal performing a mutation, for audit trails.
type Actor struct {
	Role string    `json:"role"`
	ID   uuid.UUID `json:"id"`
}

// SystemActor is used for automatic transitions (payment-completed, overdue sweep).
var SystemActor = Actor{Role: "system", ID: uuid.Nil}

// Invoice is the aggregate root. Items, payments and status history are
// owned rows; all derived amounts are stored in minor units (cents) and
// recomputed on every mutation, never trusted from a previous save.
type Invoice struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_invoices_user_number" json:"user_id"`
	ClientID      uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	InvoiceNumber string    `gorm:"size:50;not null;uniqueIndex:idx_invoices_user_number" json:"invoice_number"`
	InvoiceDate   time.Time `gorm:"not null" json:"invoice_date"`
	DueDate       time.Time `gorm:"not null" json:"due_date"`

	Status enum.InvoiceStatus `gorm:"size:20;not null;default:'draft';index" json:"status"`

	// Money fields, minor units. Subtotal, TotalAmount, TotalPaid and
	// RemainingAmount are derived; Recalculate overwrites them.
	DiscountAmount  int64 `gorm:"not null;default:0" json:"-"`
	TaxAmount       int64 `gorm:"not null;default:0" json:"-"`
	Subtotal        int64 `gorm:"not null;default:0" json:"-"`
	TotalAmount     int64 `gorm:"not null;default:0" json:"-"`
	TotalPaid       int64 `gorm:"not null;default:0" json:"-"`
	RemainingAmount int64 `gorm:"not null;default:0" json:"-"`

	Notes string `gorm:"type:text" json:"notes"`
	Terms string `gorm:"type:text" json:"terms"`

	// Version backs the optimistic-concurrency check on save.
	Version int64 `gorm:"not null;default:1" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User          User           `gorm:"foreignKey:UserID" json:"-"`
	Client        *Client        `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Items         []InvoiceItem  `gorm:"foreignKey:InvoiceID" json:"items"`
	Payments      []Payment      `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
	StatusHistory []StatusChange `gorm:"foreignKey:InvoiceID" json:"status_history,omitempty"`
}

// MarshalJSON converts cent amounts to decimals for API responses
func (i Invoice) MarshalJSON() ([]byte, error) {
	type Alias Invoice
	return json.Marshal(&struct {
		Alias
		DiscountAmount  float64 `json:"discount_amount"`
		TaxAmount       float64 `json:"tax_amount"`
		Subtotal        float64 `json:"subtotal"`
		TotalAmount     float64 `json:"total_amount"`
		TotalPaid       float64 `json:"total_paid"`
		RemainingAmount float64 `json:"remaining_amount"`
	}{
		Alias:           Alias(i),
		DiscountAmount:  money.Float(i.DiscountAmount),
		TaxAmount:       money.Float(i.TaxAmount),
		Subtotal:        money.Float(i.Subtotal),
		TotalAmount:     money.Float(i.TotalAmount),
		TotalPaid:       money.Float(i.TotalPaid),
		RemainingAmount: money.Float(i.RemainingAmount),
	})
}

// BeforeCreate generates a UUID before creating a new invoice
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// Recalculate validates the line items and recomputes every derived amount:
// per-item amounts, subtotal, discounted total, total paid and remaining.
// A discount exceeding the subtotal is clamped to it, a deliberate policy so
// the total can never go negative.
func (i *Invoice) Recalculate() error {
	var subtotal int64
	for idx := range i.Items {
		item := &i.Items[idx]
		if err := item.validate(); err != nil {
			return err
		}
		item.Position = idx
		item.Amount = money.MulQuantity(item.Quantity, item.Rate)
		subtotal += item.Amount
	}

	if i.DiscountAmount < 0 {
		return apperror.NewInvalidItemError("discount amount cannot be negative")
	}
	if i.TaxAmount < 0 {
		return apperror.NewInvalidItemError("tax amount cannot be negative")
	}

	effectiveDiscount := i.DiscountAmount
	if effectiveDiscount > subtotal {
		effectiveDiscount = subtotal
	}

	i.Subtotal = subtotal
	i.TotalAmount = subtotal + i.TaxAmount - effectiveDiscount
	i.recomputePaid()
	return nil
}

// recomputePaid derives TotalPaid and RemainingAmount from the payment list.
// Overpayment is permitted: the remainder floors at zero and the surplus
// stays visible as TotalPaid exceeding TotalAmount.
func (i *Invoice) recomputePaid() {
	var paid int64
	for _, p := range i.Payments {
		paid += p.Amount
	}
	i.TotalPaid = paid
	i.RemainingAmount = i.TotalAmount - paid
	if i.RemainingAmount < 0 {
		i.RemainingAmount = 0
	}
}

// ApplyPayment validates and appends a payment, recomputes the paid totals,
// and reports whether the invoice became fully paid by this payment. The
// caller is responsible for routing the resulting paid transition through
// ChangeStatus so the audit trail stays single.
func (i *Invoice) ApplyPayment(p *Payment) (fullyPaid bool, err error) {
	if p.Amount <= 0 {
		return false, apperror.NewInvalidPaymentError("payment amount must be positive")
	}
	if !p.Method.IsValid() {
		return false, apperror.NewInvalidPaymentError(fmt.Sprintf("unrecognized payment method %q", p.Method))
	}
	if p.TransactionID == "" {
		return false, apperror.NewInvalidPaymentError("transaction id is required")
	}
	if i.Status == enum.InvoiceStatusDraft {
		return false, apperror.NewInvalidPaymentError("cannot record payment on a draft invoice")
	}
	if i.Status.IsTerminal() {
		return false, apperror.NewInvalidPaymentError("cannot record payment on a " + i.Status.String() + " invoice")
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now()
	}
	i.Payments = append(i.Payments, *p)
	i.recomputePaid()
	return i.RemainingAmount == 0, nil
}

// ChangeStatus validates and executes a status transition, appending exactly
// one history entry on success. This is the only sanctioned way to mutate
// Status; automatic transitions (payment completion, overdue sweep) call it
// too.
func (i *Invoice) ChangeStatus(target enum.InvoiceStatus, actor Actor, reason string) error {
	if !target.IsValid() {
		return apperror.NewInvalidStatusError(target.String())
	}
	if i.Status.IsTerminal() {
		return apperror.NewInvalidTransitionError(fmt.Sprintf("invoice is %s, no further transitions allowed", i.Status))
	}
	if target == i.Status {
		return apperror.NewInvalidTransitionError("invoice is already " + i.Status.String())
	}
	if !i.Status.CanTransitionTo(target) {
		return apperror.NewInvalidTransitionError(fmt.Sprintf("cannot transition from %s to %s", i.Status, target))
	}

	switch target {
	case enum.InvoiceStatusSent:
		if len(i.Items) == 0 {
			return apperror.NewInvalidTransitionError("cannot send an invoice with no items")
		}
	case enum.InvoiceStatusPartialPaid:
		if i.TotalPaid <= 0 || i.TotalPaid >= i.TotalAmount {
			return apperror.NewInvalidTransitionError("partial_paid requires payments covering part of the total")
		}
	case enum.InvoiceStatusPaid:
		if i.RemainingAmount != 0 {
			return apperror.NewInvalidTransitionError("cannot mark paid while an amount remains outstanding")
		}
	case enum.InvoiceStatusOverdue:
		if !i.DueDate.Before(time.Now()) {
			return apperror.NewInvalidTransitionError("cannot mark overdue before the due date")
		}
	case enum.InvoiceStatusCancelled:
		if len(i.Payments) > 0 {
			return apperror.NewInvalidTransitionError("cannot cancel an invoice with recorded payments")
		}
	}

	i.appendStatusChange(i.Status, target, actor, reason)
	i.Status = target
	return nil
}

// RecordCreation appends the creation-implied draft entry to the history.
func (i *Invoice) RecordCreation(actor Actor) {
	i.appendStatusChange("", enum.InvoiceStatusDraft, actor, "invoice created")
}

func (i *Invoice) appendStatusChange(from, to enum.InvoiceStatus, actor Actor, reason string) {
	i.StatusHistory = append(i.StatusHistory, StatusChange{
		InvoiceID:  i.ID,
		FromStatus: from,
		ToStatus:   to,
		ChangedAt:  time.Now(),
		ByRole:     actor.Role,
		ByID:       actor.ID,
		Reason:     reason,
	})
}

// IsLocked reports whether content mutations are rejected (paid invoices are
// immutable).
func (i *Invoice) IsLocked() bool {
	return i.Status == enum.InvoiceStatusPaid
}

// CheckDeletable enforces the deletion guard: only draft or cancelled
// invoices with no recorded payments may be deleted.
func (i *Invoice) CheckDeletable() error {
	if len(i.Payments) > 0 {
		return apperror.NewInvoiceNotDeletableError("Cannot delete invoice with payments")
	}
	if i.Status != enum.InvoiceStatusDraft && i.Status != enum.InvoiceStatusCancelled {
		return apperror.NewInvoiceNotDeletableError("Can only delete draft or cancelled invoices")
	}
	return nil
}

// InvoiceItem is a line item owned by an invoice; list order is display order.
type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Position    int             `gorm:"not null;default:0" json:"position"`
	Description string          `gorm:"size:500;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"quantity"`
	Rate        int64           `gorm:"not null" json:"-"`
	Amount      int64           `gorm:"not null" json:"-"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (it *InvoiceItem) validate() error {
	if it.Description == "" {
		return apperror.NewInvalidItemError("item description is required")
	}
	if it.Quantity.Sign() <= 0 {
		return apperror.NewInvalidItemError(fmt.Sprintf("item %q quantity must be positive", it.Description))
	}
	if it.Rate < 0 {
		return apperror.NewInvalidItemError(fmt.Sprintf("item %q rate cannot be negative", it.Description))
	}
	return nil
}

// MarshalJSON converts cent amounts to decimals for API responses
func (it InvoiceItem) MarshalJSON() ([]byte, error) {
	type Alias InvoiceItem
	return json.Marshal(&struct {
		Alias
		Rate   float64 `json:"rate"`
		Amount float64 `json:"amount"`
	}{
		Alias:  Alias(it),
		Rate:   money.Float(it.Rate),
		Amount: money.Float(it.Amount),
	})
}

// BeforeCreate generates a UUID before creating a new item
func (it *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the InvoiceItem model
func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// Payment is an append-only record of money received against an invoice.
// Rows are never updated or deleted once written.
type Payment struct {
	ID            uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID     uuid.UUID          `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Amount        int64              `gorm:"not null" json:"-"`
	Method        enum.PaymentMethod `gorm:"size:20;not null" json:"method"`
	TransactionID string             `gorm:"size:255;not null;index" json:"transaction_id"`
	PaidAt        time.Time          `gorm:"not null" json:"paid_at"`
	ByRole        string             `gorm:"size:20;not null" json:"recorded_by_role"`
	ByID          uuid.UUID          `gorm:"type:uuid" json:"recorded_by_id"`
	CreatedAt     time.Time          `json:"created_at"`
}

// MarshalJSON converts the cent amount to a decimal for API responses
func (p Payment) MarshalJSON() ([]byte, error) {
	type Alias Payment
	return json.Marshal(&struct {
		Alias
		Amount float64 `json:"amount"`
	}{
		Alias:  Alias(p),
		Amount: money.Float(p.Amount),
	})
}

// BeforeCreate generates a UUID before creating a new payment
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}

// StatusChange is one entry of the append-only status audit log.
type StatusChange struct {
	ID         uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID  uuid.UUID          `gorm:"type:uuid;not null;index" json:"invoice_id"`
	FromStatus enum.InvoiceStatus `gorm:"size:20" json:"from"`
	ToStatus   enum.InvoiceStatus `gorm:"size:20;not null" json:"to"`
	ChangedAt  time.Time          `gorm:"not null" json:"at"`
	ByRole     string             `gorm:"size:20;not null" json:"by_role"`
	ByID       uuid.UUID          `gorm:"type:uuid" json:"by_id"`
	Reason     string             `gorm:"type:text" json:"reason,omitempty"`
	CreatedAt  time.Time          `json:"-"`
}

// BeforeCreate generates a UUID before creating a new status change
func (s *StatusChange) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the StatusChange model
func (StatusChange) TableName() string {
	return "invoice_status_history"
}
