package request

// CreateClientRequest represents a client creation request. The password,
// when given, enables portal access for the client.
type CreateClientRequest struct {
	Name      string  `json:"name" binding:"required,min=2,max=255"`
	Email     string  `json:"email" binding:"required,email"`
	Password  string  `json:"password" binding:"omitempty,min=8"`
	Company   *string `json:"company" binding:"omitempty,max=255"`
	Phone     *string `json:"phone" binding:"omitempty,max=50"`
	Address   *string `json:"address"`
	TaxNumber *string `json:"tax_number" binding:"omitempty,max=100"`
}

// UpdateClientRequest represents a client update request
type UpdateClientRequest struct {
	Name      *string `json:"name" binding:"omitempty,min=2,max=255"`
	Password  *string `json:"password" binding:"omitempty,min=8"`
	Company   *string `json:"company" binding:"omitempty,max=255"`
	Phone     *string `json:"phone" binding:"omitempty,max=50"`
	Address   *string `json:"address"`
	TaxNumber *string `json:"tax_number" binding:"omitempty,max=100"`
}

// UpdateSettingsRequest represents a settings update request
type UpdateSettingsRequest struct {
	Currency           string `json:"currency" binding:"required,min=2,max=10"`
	DateFormat         string `json:"date_format" binding:"required,max=20"`
	DefaultTerms       string `json:"default_terms" binding:"max=2000"`
	DefaultNotes       string `json:"default_notes" binding:"max=2000"`
	DefaultDueDays     int    `json:"default_due_days" binding:"min=0,max=365"`
	DefaultTaxRate     string `json:"default_tax_rate" binding:"max=10"`
	EmailNotifications bool   `json:"email_notifications"`
	SendInvoiceEmails  bool   `json:"send_invoice_emails"`
	PaymentAlerts      bool   `json:"payment_alerts"`
	OverdueReminders   bool   `json:"overdue_reminders"`
}
