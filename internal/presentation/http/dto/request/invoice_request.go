package request

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceItemRequest represents one line item in an invoice request.
// Quantities and rates come in as decimal strings or numbers; the decimal
// type accepts both.
type InvoiceItemRequest struct {
	Description string          `json:"description" binding:"required,min=1,max=500"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	Rate        decimal.Decimal `json:"rate" binding:"required"`
}

// CreateInvoiceRequest represents an invoice creation request
type CreateInvoiceRequest struct {
	ClientID       uuid.UUID            `json:"client_id" binding:"required"`
	InvoiceDate    *time.Time           `json:"invoice_date"`
	DueDate        time.Time            `json:"due_date" binding:"required"`
	Items          []InvoiceItemRequest `json:"items" binding:"required,min=1,dive"`
	Notes          string               `json:"notes" binding:"max=2000"`
	Terms          string               `json:"terms" binding:"max=2000"`
	DiscountAmount decimal.Decimal      `json:"discount_amount"`
	TaxAmount      decimal.Decimal      `json:"tax_amount"`
}

// UpdateInvoiceRequest represents an invoice update request. Omitted fields
// keep their current values.
type UpdateInvoiceRequest struct {
	DueDate        *time.Time           `json:"due_date"`
	Items          []InvoiceItemRequest `json:"items" binding:"omitempty,min=1,dive"`
	Notes          *string              `json:"notes" binding:"omitempty,max=2000"`
	Terms          *string              `json:"terms" binding:"omitempty,max=2000"`
	DiscountAmount *decimal.Decimal     `json:"discount_amount"`
}

// ChangeStatusRequest represents a manual status transition request
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason" binding:"max=500"`
}

// AddPaymentRequest represents a payment recording request
type AddPaymentRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Method        string          `json:"method" binding:"required"`
	TransactionID string          `json:"transaction_id" binding:"required,min=1,max=255"`
	PaidAt        *time.Time      `json:"paid_at"`
}

// InvoiceFilterRequest represents invoice filter parameters
type InvoiceFilterRequest struct {
	Search    string `form:"search"`
	Status    string `form:"status"`
	ClientID  string `form:"client_id"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
	Page      int    `form:"page"`
	PerPage   int    `form:"per_page"`
}
