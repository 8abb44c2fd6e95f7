package enum

import (
	"database/sql/driver"
	"fmt"
)

// InvoiceStatus represents the lifecycle status of an invoice. Stored and
// serialized as its canonical string so the API vocabulary matches the
// database values exactly.
type InvoiceStatus string

const (
	InvoiceStatusDraft       InvoiceStatus = "draft"
	InvoiceStatusSent        InvoiceStatus = "sent"
	InvoiceStatusViewed      InvoiceStatus = "viewed"
	InvoiceStatusPartialPaid InvoiceStatus = "partial_paid"
	InvoiceStatusPaid        InvoiceStatus = "paid"
	InvoiceStatusOverdue     InvoiceStatus = "overdue"
	InvoiceStatusCancelled   InvoiceStatus = "cancelled"
)

// AllInvoiceStatuses lists every recognized status.
var AllInvoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusSent,
	InvoiceStatusViewed,
	InvoiceStatusPartialPaid,
	InvoiceStatusPaid,
	InvoiceStatusOverdue,
	InvoiceStatusCancelled,
}

// invoiceTransitions is the closed transition table. Guards that depend on
// invoice state (items present, amounts paid, due date) are checked by the
// aggregate; this table only encodes which edges exist at all.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:       {InvoiceStatusSent, InvoiceStatusCancelled},
	InvoiceStatusSent:        {InvoiceStatusViewed, InvoiceStatusPartialPaid, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusViewed:      {InvoiceStatusPartialPaid, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusPartialPaid: {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusOverdue:     {InvoiceStatusCancelled},
	InvoiceStatusPaid:        {},
	InvoiceStatusCancelled:   {},
}

// ParseInvoiceStatus validates a raw status string.
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	status := InvoiceStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("unknown invoice status %q", s)
	}
	return status, nil
}

func (s InvoiceStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is one of the recognized values.
func (s InvoiceStatus) IsValid() bool {
	_, ok := invoiceTransitions[s]
	return ok
}

// IsTerminal reports whether no transitions leave this status.
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// CanTransitionTo reports whether an edge from s to target exists in the
// transition table. Same-state transitions are never allowed.
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	for _, allowed := range invoiceTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (s InvoiceStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *InvoiceStatus) Scan(value interface{}) error {
	if value == nil {
		*s = InvoiceStatusDraft
		return nil
	}
	switch v := value.(type) {
	case string:
		*s = InvoiceStatus(v)
	case []byte:
		*s = InvoiceStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into InvoiceStatus", value)
	}
	return nil
}
