package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Email log statuses. Delivery failures are recorded here, never surfaced as
// failures of the invoice mutation that triggered the email.
const (
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
)

// EmailLog is an audit record of a transactional email sent (or attempted)
// for an invoice.
type EmailLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	InvoiceID *uuid.UUID `gorm:"type:uuid;index" json:"invoice_id,omitempty"`
	Recipient string     `gorm:"size:255;not null" json:"recipient"`
	Subject   string     `gorm:"size:500;not null" json:"subject"`
	EmailType string     `gorm:"size:50;not null" json:"email_type"`
	Status    string     `gorm:"size:20;not null" json:"status"`
	Error     string     `gorm:"type:text" json:"error,omitempty"`
	SentAt    time.Time  `gorm:"not null" json:"sent_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new email log
func (e *EmailLog) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the EmailLog model
func (EmailLog) TableName() string {
	return "email_logs"
}
