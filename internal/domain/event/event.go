package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Topics carried on the in-process bus. External collaborators (email, PDF)
// subscribe to these; publishing is best-effort and happens only after the
// owning transaction committed.
const (
	TopicInvoiceCreated       = "invoice.created"
	TopicInvoiceStatusChanged = "invoice.status_changed"
	TopicInvoicePaid          = "invoice.paid"
	TopicPaymentRecorded      = "payment.recorded"
)

// InvoiceEvent is the payload published for every invoice-level event.
type InvoiceEvent struct {
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	UserID        uuid.UUID `json:"user_id"`
	ClientID      uuid.UUID `json:"client_id"`
	Status        string    `json:"status"`
	TotalAmount   int64     `json:"total_amount"`
	TotalPaid     int64     `json:"total_paid"`
	Remaining     int64     `json:"remaining_amount"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// PaymentEvent is the payload published when a payment is recorded.
type PaymentEvent struct {
	InvoiceEvent
	PaymentID     uuid.UUID `json:"payment_id"`
	Amount        int64     `json:"amount"`
	Method        string    `json:"method"`
	TransactionID string    `json:"transaction_id"`
}

// Publisher publishes domain events. Implementations must not block the
// caller on delivery; a failed publish is logged, never propagated.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
	Close() error
}
