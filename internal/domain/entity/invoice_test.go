package entity_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/entity"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/enum"
	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/apperror"
)

func testActor() entity.Actor {
	return entity.Actor{Role: "user", ID: uuid.New()}
}

// newInvoice returns a draft invoice with items 2 x 500.00 and 1 x 300.00,
// discount 2.00 and no tax: subtotal 1300.00, total 1298.00.
func newInvoice(t *testing.T) *entity.Invoice {
	t.Helper()
	inv := &entity.Invoice{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		ClientID: uuid.New(),
		Status:   enum.InvoiceStatusDraft,
		DueDate:  time.Now().Add(30 * 24 * time.Hour),
		Items: []entity.InvoiceItem{
			{Description: "Design work", Quantity: decimal.NewFromInt(2), Rate: 50000},
			{Description: "Hosting", Quantity: decimal.NewFromInt(1), Rate: 30000},
		},
		DiscountAmount: 200,
	}
	require.NoError(t, inv.Recalculate())
	return inv
}

func TestRecalculate_Totals(t *testing.T) {
	inv := newInvoice(t)

	assert.Equal(t, int64(130000), inv.Subtotal)
	assert.Equal(t, int64(129800), inv.TotalAmount)
	assert.Equal(t, int64(0), inv.TotalPaid)
	assert.Equal(t, int64(129800), inv.RemainingAmount)

	// per-item amounts and positions are derived
	assert.Equal(t, int64(100000), inv.Items[0].Amount)
	assert.Equal(t, 0, inv.Items[0].Position)
	assert.Equal(t, int64(30000), inv.Items[1].Amount)
	assert.Equal(t, 1, inv.Items[1].Position)
}

func TestRecalculate_DiscountClampedToSubtotal(t *testing.T) {
	inv := newInvoice(t)
	inv.DiscountAmount = 500000 // exceeds the 1300.00 subtotal
	require.NoError(t, inv.Recalculate())

	assert.Equal(t, int64(130000), inv.Subtotal)
	assert.Equal(t, int64(0), inv.TotalAmount)
	// the stored discount is untouched, only the effective value is clamped
	assert.Equal(t, int64(500000), inv.DiscountAmount)
}

func TestRecalculate_TaxAdded(t *testing.T) {
	inv := newInvoice(t)
	inv.TaxAmount = 11700 // 9% of 1300.00
	require.NoError(t, inv.Recalculate())
	assert.Equal(t, int64(141500), inv.TotalAmount)
}

func TestRecalculate_InvalidItems(t *testing.T) {
	tests := []struct {
		name string
		item entity.InvoiceItem
	}{
		{"empty description", entity.InvoiceItem{Quantity: decimal.NewFromInt(1), Rate: 100}},
		{"zero quantity", entity.InvoiceItem{Description: "x", Quantity: decimal.Zero, Rate: 100}},
		{"negative quantity", entity.InvoiceItem{Description: "x", Quantity: decimal.NewFromInt(-1), Rate: 100}},
		{"negative rate", entity.InvoiceItem{Description: "x", Quantity: decimal.NewFromInt(1), Rate: -100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := newInvoice(t)
			inv.Items = append(inv.Items, tt.item)
			err := inv.Recalculate()
			assert.True(t, apperror.IsCode(err, apperror.CodeInvalidItem), "got %v", err)
		})
	}
}

func TestRecalculate_NegativeAdjustments(t *testing.T) {
	inv := newInvoice(t)
	inv.DiscountAmount = -1
	assert.True(t, apperror.IsCode(inv.Recalculate(), apperror.CodeInvalidItem))

	inv = newInvoice(t)
	inv.TaxAmount = -1
	assert.True(t, apperror.IsCode(inv.Recalculate(), apperror.CodeInvalidItem))
}

func TestApplyPayment_PartialThenFull(t *testing.T) {
	inv := newInvoice(t)
	require.NoError(t, inv.ChangeStatus(enum.InvoiceStatusSent, testActor(), ""))

	fullyPaid, err := inv.ApplyPayment(&entity.Payment{
		Amount: 60000, Method: enum.PaymentMethodUPI, TransactionID: "txn-1",
	})
	require.NoError(t, err)
	assert.False(t, fullyPaid)
	assert.Equal(t, int64(60000), inv.TotalPaid)
	assert.Equal(t, int64(69800), inv.RemainingAmount)
	// recording a payment never moves the status by itself
	assert.Equal(t, enum.InvoiceStatusSent, inv.Status)

	fullyPaid, err = inv.ApplyPayment(&entity.Payment{
		Amount: 69800, Method: enum.PaymentMethodBankTransfer, TransactionID: "txn-2",
	})
	require.NoError(t, err)
	assert.True(t, fullyPaid)
	assert.Equal(t, int64(0), inv.RemainingAmount)
}

func TestApplyPayment_Overpayment(t *testing.T) {
	inv := newInvoice(t)
	require.NoError(t, inv.ChangeStatus(enum.InvoiceStatusSent, testActor(), ""))

	fullyPaid, err := inv.ApplyPayment(&entity.Payment{
		Amount: 200000, Method: enum.PaymentMethodCash, TransactionID: "txn-over",
	})
	require.NoError(t, err)
	assert.True(t, fullyPaid)
	assert.Equal(t, int64(200000), inv.TotalPaid)
	// the remainder floors at zero, the surplus stays visible in TotalPaid
	assert.Equal(t, int64(0), inv.RemainingAmount)
}

func TestApplyPayment_Rejections(t *testing.T) {
	t.Run("non-positive amount", func(t *testing.T) {
		inv := newInvoice(t)
		require.NoError(t, inv.ChangeStatus(enum.InvoiceStatusSent, testActor(), ""))
		_, err := inv.ApplyPayment(&entity.Payment{Amount: 0, Method: enum.PaymentMethodCash, TransactionID: "t"})
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidPayment))
	})

	t.Run("unknown method", func(t *testing.T) {
		inv := newInvoice(t)
		require.NoError(t, inv.ChangeStatus(enum.InvoiceStatusSent, testActor(), ""))
		_, err := inv.ApplyPayment(&entity.Payment{Amount: 100, Method: "barter", TransactionID: "t"})
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidPayment))
	})

	t.Run("missing transaction id", func(t *testing.T) {
		inv := newInvoice(t)
		require.NoError(t, inv.ChangeStatus(enum.InvoiceStatusSent, testActor(), ""))
		_, err := inv.ApplyPayment(&entity.Payment{Amount: 100, Method: enum.PaymentMethodCash})
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidPayment))
	})

	t.Run("draft invoice", func(t *testing.T) {
		inv := newInvoice(t)
		_, err := inv.ApplyPayment(&entity.Payment{Amount: 100, Method: enum.PaymentMethodCash, TransactionID: "t"})
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidPayment))
	})

	t.Run("cancelled invoice", func(t *testing.T) {
		inv := newInvoice(t)
		require.NoError(t, inv.ChangeStatus(enum.InvoiceStatusCancelled, testActor(), ""))
		_, err := inv.ApplyPayment(&entity.Payment{Amount: 100, Method: enum.PaymentMethodCash, TransactionID: "t"})
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidPayment))
	})
}

func TestApplyPayment_AssignsIDAndPaidAt(t *testing.T) {
	inv := newInvoice(t)
	require.NoError(t, inv.ChangeStatus(enum.InvoiceStatusSent, testActor(), ""))

	p := &entity.Payment{Amount: 100, Method: enum.PaymentMethodCard, TransactionID: "t"}
	_, err := inv.ApplyPayment(p)
	require.NoError(t, err)
	// the ledger entry is identifiable from the moment it is applied
	assert.NotEqual(t, uuid.Nil, inv.Payments[0].ID)
	assert.False(t, inv.Payments[0].PaidAt.IsZero())
}

func TestChangeStatus_History(t *testing.T) {
	inv := newInvoice(t)
	actor := testActor()
	inv.RecordCreation(actor)
	require.NoError(t, inv.ChangeStatus(enum.InvoiceStatusSent, actor, "sent to client"))
	require.NoError(t, inv.ChangeStatus(enum.InvoiceStatusViewed, entity.Actor{Role: "client", ID: inv.ClientID}, ""))

	require.Len(t, inv.StatusHistory, 3)
	assert.Equal(t, enum.InvoiceStatus(""), inv.StatusHistory[0].FromStatus)
	assert.Equal(t, enum.InvoiceStatusDraft, inv.StatusHistory[0].ToStatus)
	assert.Equal(t, enum.InvoiceStatusSent, inv.StatusHistory[1].ToStatus)
	assert.Equal(t, "sent to client", inv.StatusHistory[1].Reason)
	assert.Equal(t, "client", inv.StatusHistory[2].ByRole)
	// each entry records the status it left
	assert.Equal(t, enum.InvoiceStatusSent, inv.StatusHistory[2].FromStatus)
}

func TestChangeStatus_Guards(t *testing.T) {
	t.Run("unknown target", func(t *testing.T) {
		inv := newInvoice(t)
		err := inv.ChangeStatus("archived", testActor(), "")
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidStatus))
	})

	t.Run("same state", func(t *testing.T) {
		inv := newInvoice(t)
		err := inv.ChangeStatus(enum.InvoiceStatusDraft, testActor(), "")
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
	})

	t.Run("no edge", func(t *testing.T) {
		inv := newInvoice(t)
		err := inv.ChangeStatus(enum.InvoiceStatusViewed, testActor(), "")
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
	})

	t.Run("terminal state", func(t *testing.T) {
		inv := newInvoice(t)
		require.NoError(t, inv.ChangeStatus(enum.InvoiceStatusCancelled, testActor(), ""))
		err := inv.ChangeStatus(enum.InvoiceStatusSent, testActor(), "")
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
	})

	t.Run("send without items", func(t *testing.T) {
		inv := newInvoice(t)
		inv.Items = nil
		err := inv.ChangeStatus(enum.InvoiceStatusSent, testActor(), "")
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
	})

	t.Run("paid with outstanding amount", func(t *testing.T) {
		inv := newInvoice(t)
		require.NoError(t, inv.ChangeStatus(enum.InvoiceStatusSent, testActor(), ""))
		err := inv.ChangeStatus(enum.InvoiceStatusPaid, testActor(), "")
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
	})

	t.Run("partial_paid without payments", func(t *testing.T) {
		inv := newInvoice(t)
		require.NoError(t, inv.ChangeStatus(enum.InvoiceStatusSent, testActor(), ""))
		err := inv.ChangeStatus(enum.InvoiceStatusPartialPaid, testActor(), "")
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
	})

	t.Run("overdue before due date", func(t *testing.T) {
		inv := newInvoice(t)
		require.NoError(t, inv.ChangeStatus(enum.InvoiceStatusSent, testActor(), ""))
		err := inv.ChangeStatus(enum.InvoiceStatusOverdue, entity.SystemActor, "")
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
	})

	t.Run("cancel with payments", func(t *testing.T) {
		inv := newInvoice(t)
		require.NoError(t, inv.ChangeStatus(enum.InvoiceStatusSent, testActor(), ""))
		_, err := inv.ApplyPayment(&entity.Payment{Amount: 100, Method: enum.PaymentMethodCash, TransactionID: "t"})
		require.NoError(t, err)
		err = inv.ChangeStatus(enum.InvoiceStatusCancelled, testActor(), "")
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
	})
}

func TestChangeStatus_OverduePastDueDate(t *testing.T) {
	inv := newInvoice(t)
	inv.DueDate = time.Now().Add(-24 * time.Hour)
	require.NoError(t, inv.ChangeStatus(enum.InvoiceStatusSent, testActor(), ""))
	require.NoError(t, inv.ChangeStatus(enum.InvoiceStatusOverdue, entity.SystemActor, "past due date"))

	// an overdue invoice still accepts payments but only cancellation moves it
	_, err := inv.ApplyPayment(&entity.Payment{Amount: 129800, Method: enum.PaymentMethodUPI, TransactionID: "late"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), inv.RemainingAmount)
	assert.False(t, inv.Status.CanTransitionTo(enum.InvoiceStatusPaid))
}

func TestChangeStatus_PaidAfterFullPayment(t *testing.T) {
	inv := newInvoice(t)
	require.NoError(t, inv.ChangeStatus(enum.InvoiceStatusSent, testActor(), ""))
	fullyPaid, err := inv.ApplyPayment(&entity.Payment{Amount: 129800, Method: enum.PaymentMethodCard, TransactionID: "full"})
	require.NoError(t, err)
	require.True(t, fullyPaid)

	require.NoError(t, inv.ChangeStatus(enum.InvoiceStatusPaid, entity.SystemActor, "payment completed"))
	assert.True(t, inv.IsLocked())
}

func TestCheckDeletable(t *testing.T) {
	inv := newInvoice(t)
	assert.NoError(t, inv.CheckDeletable())

	require.NoError(t, inv.ChangeStatus(enum.InvoiceStatusSent, testActor(), ""))
	assert.True(t, apperror.IsCode(inv.CheckDeletable(), apperror.CodeInvoiceNotDeletable))

	// a payment blocks deletion permanently, regardless of status
	_, err := inv.ApplyPayment(&entity.Payment{Amount: 100, Method: enum.PaymentMethodCash, TransactionID: "t"})
	require.NoError(t, err)
	assert.True(t, apperror.IsCode(inv.CheckDeletable(), apperror.CodeInvoiceNotDeletable))

	cancelled := newInvoice(t)
	require.NoError(t, cancelled.ChangeStatus(enum.InvoiceStatusCancelled, testActor(), ""))
	assert.NoError(t, cancelled.CheckDeletable())
}
