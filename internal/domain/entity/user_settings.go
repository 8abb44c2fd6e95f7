package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserSettings holds per-user invoicing defaults applied when creating new
// invoices, plus notification preferences.
type UserSettings struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Invoicing defaults
	Currency        string `gorm:"size:10;default:'INR'" json:"currency"`
	DateFormat      string `gorm:"size:20;default:'DD/MM/YYYY'" json:"date_format"`
	DefaultTerms    string `gorm:"type:text" json:"default_terms"`
	DefaultNotes    string `gorm:"type:text" json:"default_notes"`
	DefaultDueDays  int    `gorm:"default:15" json:"default_due_days"`
	DefaultTaxRate  string `gorm:"size:10;default:'0'" json:"default_tax_rate"`

	// Notification settings
	EmailNotifications bool `gorm:"default:true" json:"email_notifications"`
	SendInvoiceEmails  bool `gorm:"default:true" json:"send_invoice_emails"`
	PaymentAlerts      bool `gorm:"default:true" json:"payment_alerts"`
	OverdueReminders   bool `gorm:"default:true" json:"overdue_reminders"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// BeforeCreate generates a UUID before creating new settings
func (s *UserSettings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the UserSettings model
func (UserSettings) TableName() string {
	return "user_settings"
}
