package enum_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/enum"
)

// allowedEdges mirrors the full lifecycle graph. Every from/to pair not
// listed here must be rejected.
var allowedEdges = map[enum.InvoiceStatus][]enum.InvoiceStatus{
	enum.InvoiceStatusDraft:       {enum.InvoiceStatusSent, enum.InvoiceStatusCancelled},
	enum.InvoiceStatusSent:        {enum.InvoiceStatusViewed, enum.InvoiceStatusPartialPaid, enum.InvoiceStatusPaid, enum.InvoiceStatusOverdue, enum.InvoiceStatusCancelled},
	enum.InvoiceStatusViewed:      {enum.InvoiceStatusPartialPaid, enum.InvoiceStatusPaid, enum.InvoiceStatusOverdue, enum.InvoiceStatusCancelled},
	enum.InvoiceStatusPartialPaid: {enum.InvoiceStatusPaid, enum.InvoiceStatusOverdue, enum.InvoiceStatusCancelled},
	enum.InvoiceStatusOverdue:     {enum.InvoiceStatusCancelled},
	enum.InvoiceStatusPaid:        {},
	enum.InvoiceStatusCancelled:   {},
}

func TestCanTransitionTo_FullTable(t *testing.T) {
	for _, from := range enum.AllInvoiceStatuses {
		allowed := map[enum.InvoiceStatus]bool{}
		for _, to := range allowedEdges[from] {
			allowed[to] = true
		}
		for _, to := range enum.AllInvoiceStatuses {
			got := from.CanTransitionTo(to)
			assert.Equal(t, allowed[to], got, "transition %s -> %s", from, to)
		}
	}
}

func TestCanTransitionTo_SameStateRejected(t *testing.T) {
	for _, s := range enum.AllInvoiceStatuses {
		assert.False(t, s.CanTransitionTo(s), "same-state transition for %s", s)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, enum.InvoiceStatusPaid.IsTerminal())
	assert.True(t, enum.InvoiceStatusCancelled.IsTerminal())

	for _, s := range []enum.InvoiceStatus{
		enum.InvoiceStatusDraft,
		enum.InvoiceStatusSent,
		enum.InvoiceStatusViewed,
		enum.InvoiceStatusPartialPaid,
		enum.InvoiceStatusOverdue,
	} {
		assert.False(t, s.IsTerminal(), "status %s", s)
	}
}

func TestParseInvoiceStatus(t *testing.T) {
	status, err := enum.ParseInvoiceStatus("partial_paid")
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusPartialPaid, status)

	_, err = enum.ParseInvoiceStatus("shipped")
	assert.Error(t, err)

	_, err = enum.ParseInvoiceStatus("")
	assert.Error(t, err)
}

func TestInvoiceStatus_Scan(t *testing.T) {
	var s enum.InvoiceStatus
	require.NoError(t, s.Scan("overdue"))
	assert.Equal(t, enum.InvoiceStatusOverdue, s)

	require.NoError(t, s.Scan([]byte("paid")))
	assert.Equal(t, enum.InvoiceStatusPaid, s)

	require.NoError(t, s.Scan(nil))
	assert.Equal(t, enum.InvoiceStatusDraft, s)

	assert.Error(t, s.Scan(42))
}
