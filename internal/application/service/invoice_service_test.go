package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/application/service"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/entity"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/enum"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/event"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/repository"
	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/apperror"
	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/pagination"
)

// fakeInvoiceRepo is an in-memory InvoiceRepository. GetByID returns deep
// copies so every mutation cycle works on a fresh snapshot, and Save enforces
// the same version check as the real repository.
type fakeInvoiceRepo struct {
	mu       sync.Mutex
	store    map[uuid.UUID]*entity.Invoice
	seq      map[string]int
	conflict int // number of Saves to fail with a concurrency conflict
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{
		store: make(map[uuid.UUID]*entity.Invoice),
		seq:   make(map[string]int),
	}
}

func cloneInvoice(inv *entity.Invoice) *entity.Invoice {
	c := *inv
	c.Items = append([]entity.InvoiceItem(nil), inv.Items...)
	c.Payments = append([]entity.Payment(nil), inv.Payments...)
	c.StatusHistory = append([]entity.StatusChange(nil), inv.StatusHistory...)
	return &c
}

func (r *fakeInvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.store {
		if existing.UserID == invoice.UserID && existing.InvoiceNumber == invoice.InvoiceNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	r.store[invoice.ID] = cloneInvoice(invoice)
	return nil
}

func (r *fakeInvoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.store[id]
	if !ok {
		return nil, nil
	}
	return cloneInvoice(inv), nil
}

func (r *fakeInvoiceRepo) GetByNumber(ctx context.Context, userID uuid.UUID, number string) (*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.store {
		if inv.UserID == userID && inv.InvoiceNumber == number {
			return cloneInvoice(inv), nil
		}
	}
	return nil, nil
}

func (r *fakeInvoiceRepo) Save(ctx context.Context, invoice *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflict > 0 {
		r.conflict--
		return apperror.NewConcurrencyConflictError()
	}
	stored, ok := r.store[invoice.ID]
	if !ok {
		return apperror.NewNotFoundError("Invoice")
	}
	if stored.Version != invoice.Version {
		return apperror.NewConcurrencyConflictError()
	}
	invoice.Version++
	r.store[invoice.ID] = cloneInvoice(invoice)
	return nil
}

func (r *fakeInvoiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.store, id)
	return nil
}

func (r *fakeInvoiceRepo) List(ctx context.Context, userID uuid.UUID, params *repository.InvoiceFilterParams) ([]entity.Invoice, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Invoice
	for _, inv := range r.store {
		if inv.UserID != userID {
			continue
		}
		if params.ClientID != nil && inv.ClientID != *params.ClientID {
			continue
		}
		if params.Status != nil && inv.Status != *params.Status {
			continue
		}
		out = append(out, *cloneInvoice(inv))
	}
	return out, int64(len(out)), nil
}

func (r *fakeInvoiceRepo) ListByClient(ctx context.Context, clientID uuid.UUID, params *pagination.PaginationParams) ([]entity.Invoice, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Invoice
	for _, inv := range r.store {
		if inv.ClientID == clientID && inv.Status != enum.InvoiceStatusDraft {
			out = append(out, *cloneInvoice(inv))
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeInvoiceRepo) NextSequence(ctx context.Context, userID uuid.UUID, year int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := fmt.Sprintf("%s-%d", userID, year)
	r.seq[key]++
	return r.seq[key], nil
}

func (r *fakeInvoiceRepo) ListOverdueCandidates(ctx context.Context, now time.Time, limit int) ([]entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Invoice
	for _, inv := range r.store {
		if inv.Status == enum.InvoiceStatusDraft || inv.Status == enum.InvoiceStatusOverdue || inv.Status.IsTerminal() {
			continue
		}
		if inv.DueDate.Before(now) {
			out = append(out, *cloneInvoice(inv))
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeInvoiceRepo) Stats(ctx context.Context, userID uuid.UUID) (*repository.InvoiceStats, error) {
	return &repository.InvoiceStats{}, nil
}

// fakeClientRepo knows a fixed set of client IDs per user.
type fakeClientRepo struct {
	clients map[uuid.UUID]uuid.UUID // client id -> owning user id
}

func (r *fakeClientRepo) Create(ctx context.Context, client *entity.Client) error { return nil }
func (r *fakeClientRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Client, error) {
	return nil, nil
}
func (r *fakeClientRepo) GetByEmail(ctx context.Context, email string) (*entity.Client, error) {
	return nil, nil
}
func (r *fakeClientRepo) Exists(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	owner, ok := r.clients[id]
	return ok && owner == userID, nil
}
func (r *fakeClientRepo) Update(ctx context.Context, client *entity.Client) error { return nil }
func (r *fakeClientRepo) Delete(ctx context.Context, id uuid.UUID) error          { return nil }
func (r *fakeClientRepo) List(ctx context.Context, userID uuid.UUID, params *pagination.PaginationParams, search string) ([]entity.Client, int64, error) {
	return nil, 0, nil
}

// fakePublisher records published topics and payloads in order.
type fakePublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads []interface{}
}

func (p *fakePublisher) Publish(ctx context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

func (p *fakePublisher) payloadFor(topic string) interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, t := range p.topics {
		if t == topic {
			return p.payloads[i]
		}
	}
	return nil
}

func (p *fakePublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = nil
	p.payloads = nil
}

type fixture struct {
	svc      *service.InvoiceService
	invoices *fakeInvoiceRepo
	pub      *fakePublisher
	userID   uuid.UUID
	clientID uuid.UUID
}

func newFixture() *fixture {
	userID := uuid.New()
	clientID := uuid.New()
	invoices := newFakeInvoiceRepo()
	clients := &fakeClientRepo{clients: map[uuid.UUID]uuid.UUID{clientID: userID}}
	pub := &fakePublisher{}
	return &fixture{
		svc:      service.NewInvoiceService(invoices, clients, pub),
		invoices: invoices,
		pub:      pub,
		userID:   userID,
		clientID: clientID,
	}
}

func (f *fixture) createDraft(t *testing.T, due time.Time) *entity.Invoice {
	t.Helper()
	inv, err := f.svc.CreateInvoice(context.Background(), &service.CreateInvoiceInput{
		UserID:   f.userID,
		ClientID: f.clientID,
		DueDate:  due,
		Items: []service.ItemInput{
			{Description: "Design work", Quantity: decimal.NewFromInt(2), Rate: decimal.NewFromInt(500)},
			{Description: "Hosting", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(300)},
		},
		DiscountAmount: decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	return inv
}

func (f *fixture) send(t *testing.T, id uuid.UUID) *entity.Invoice {
	t.Helper()
	inv, err := f.svc.ChangeStatus(context.Background(), id, enum.InvoiceStatusSent,
		entity.Actor{Role: "user", ID: f.userID}, "")
	require.NoError(t, err)
	return inv
}

func userActor(f *fixture) entity.Actor {
	return entity.Actor{Role: "user", ID: f.userID}
}

func TestCreateInvoice(t *testing.T) {
	f := newFixture()
	inv := f.createDraft(t, time.Now().Add(30*24*time.Hour))

	year := time.Now().Year()
	assert.Equal(t, fmt.Sprintf("INV-%d-0001", year), inv.InvoiceNumber)
	assert.Equal(t, enum.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, int64(130000), inv.Subtotal)
	assert.Equal(t, int64(129800), inv.TotalAmount)
	require.Len(t, inv.StatusHistory, 1)
	assert.Equal(t, enum.InvoiceStatusDraft, inv.StatusHistory[0].ToStatus)

	assert.Equal(t, []string{event.TopicInvoiceCreated}, f.pub.published())

	second := f.createDraft(t, time.Now().Add(30*24*time.Hour))
	assert.Equal(t, fmt.Sprintf("INV-%d-0002", year), second.InvoiceNumber)
}

func TestCreateInvoice_UnknownClient(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CreateInvoice(context.Background(), &service.CreateInvoiceInput{
		UserID:   f.userID,
		ClientID: uuid.New(),
		DueDate:  time.Now().Add(time.Hour),
		Items:    []service.ItemInput{{Description: "x", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(1)}},
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
}

func TestCreateInvoice_RetriesOnDuplicateNumber(t *testing.T) {
	f := newFixture()
	year := time.Now().Year()

	// occupy INV-<year>-0001 without consuming the sequence, as a racing
	// request that won the number would
	taken := &entity.Invoice{
		ID:            uuid.New(),
		UserID:        f.userID,
		ClientID:      f.clientID,
		InvoiceNumber: fmt.Sprintf("INV-%d-0001", year),
		Status:        enum.InvoiceStatusDraft,
		Version:       1,
	}
	f.invoices.store[taken.ID] = taken

	inv := f.createDraft(t, time.Now().Add(time.Hour))
	assert.Equal(t, fmt.Sprintf("INV-%d-0002", year), inv.InvoiceNumber)
}

func TestUpdateInvoice(t *testing.T) {
	f := newFixture()
	inv := f.createDraft(t, time.Now().Add(time.Hour))
	f.pub.reset()

	notes := "net 30"
	updated, err := f.svc.UpdateInvoice(context.Background(), inv.ID, f.userID, &service.UpdateInvoiceInput{
		Notes: &notes,
		Items: []service.ItemInput{
			{Description: "Consulting", Quantity: decimal.NewFromInt(3), Rate: decimal.NewFromInt(100)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "net 30", updated.Notes)
	require.Len(t, updated.Items, 1)
	// discount of 2.00 carries over: 300.00 - 2.00
	assert.Equal(t, int64(29800), updated.TotalAmount)
	assert.Empty(t, f.pub.published())
}

func TestUpdateInvoice_PaidIsLocked(t *testing.T) {
	f := newFixture()
	inv := f.createDraft(t, time.Now().Add(time.Hour))
	f.send(t, inv.ID)
	_, err := f.svc.AddPayment(context.Background(), inv.ID, &service.AddPaymentInput{
		Amount: decimal.NewFromInt(1298), Method: enum.PaymentMethodUPI, TransactionID: "txn", Actor: userActor(f),
	})
	require.NoError(t, err)

	notes := "should not apply"
	_, err = f.svc.UpdateInvoice(context.Background(), inv.ID, f.userID, &service.UpdateInvoiceInput{Notes: &notes})
	assert.True(t, apperror.IsCode(err, apperror.CodeInvoiceLocked))
}

func TestUpdateInvoice_Forbidden(t *testing.T) {
	f := newFixture()
	inv := f.createDraft(t, time.Now().Add(time.Hour))
	notes := "x"
	_, err := f.svc.UpdateInvoice(context.Background(), inv.ID, uuid.New(), &service.UpdateInvoiceInput{Notes: &notes})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestDeleteInvoice(t *testing.T) {
	f := newFixture()
	draft := f.createDraft(t, time.Now().Add(time.Hour))
	require.NoError(t, f.svc.DeleteInvoice(context.Background(), draft.ID, f.userID))

	sent := f.createDraft(t, time.Now().Add(time.Hour))
	f.send(t, sent.ID)
	err := f.svc.DeleteInvoice(context.Background(), sent.ID, f.userID)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvoiceNotDeletable))
}

func TestChangeStatus_UnknownStatus(t *testing.T) {
	f := newFixture()
	inv := f.createDraft(t, time.Now().Add(time.Hour))
	_, err := f.svc.ChangeStatus(context.Background(), inv.ID, "archived", userActor(f), "")
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidStatus))
}

func TestChangeStatus_PublishesEvents(t *testing.T) {
	f := newFixture()
	inv := f.createDraft(t, time.Now().Add(time.Hour))
	f.pub.reset()

	f.send(t, inv.ID)
	assert.Equal(t, []string{event.TopicInvoiceStatusChanged}, f.pub.published())
}

func TestAddPayment_Partial(t *testing.T) {
	f := newFixture()
	inv := f.createDraft(t, time.Now().Add(time.Hour))
	f.send(t, inv.ID)
	f.pub.reset()

	result, err := f.svc.AddPayment(context.Background(), inv.ID, &service.AddPaymentInput{
		Amount: decimal.NewFromInt(600), Method: enum.PaymentMethodUPI, TransactionID: "txn-1", Actor: userActor(f),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(60000), result.TotalPaid)
	assert.Equal(t, int64(69800), result.RemainingAmount)
	// a partial payment never moves the status
	assert.Equal(t, enum.InvoiceStatusSent, result.Status)
	assert.Equal(t, []string{event.TopicPaymentRecorded}, f.pub.published())
}

func TestAddPayment_EventCarriesPersistedPaymentID(t *testing.T) {
	f := newFixture()
	inv := f.createDraft(t, time.Now().Add(time.Hour))
	f.send(t, inv.ID)
	f.pub.reset()

	result, err := f.svc.AddPayment(context.Background(), inv.ID, &service.AddPaymentInput{
		Amount: decimal.NewFromInt(600), Method: enum.PaymentMethodUPI, TransactionID: "txn-1", Actor: userActor(f),
	})
	require.NoError(t, err)
	require.Len(t, result.Payments, 1)
	require.NotEqual(t, uuid.Nil, result.Payments[0].ID)

	evt, ok := f.pub.payloadFor(event.TopicPaymentRecorded).(event.PaymentEvent)
	require.True(t, ok)
	assert.Equal(t, result.Payments[0].ID, evt.PaymentID)
	assert.Equal(t, int64(60000), evt.Amount)
	assert.Equal(t, "txn-1", evt.TransactionID)

	stored, err := f.invoices.GetByID(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Len(t, stored.Payments, 1)
	assert.Equal(t, evt.PaymentID, stored.Payments[0].ID)
}

func TestAddPayment_AutoPaid(t *testing.T) {
	f := newFixture()
	inv := f.createDraft(t, time.Now().Add(time.Hour))
	f.send(t, inv.ID)
	f.pub.reset()

	result, err := f.svc.AddPayment(context.Background(), inv.ID, &service.AddPaymentInput{
		Amount: decimal.NewFromInt(1298), Method: enum.PaymentMethodBankTransfer, TransactionID: "txn-full", Actor: userActor(f),
	})
	require.NoError(t, err)

	assert.Equal(t, enum.InvoiceStatusPaid, result.Status)
	assert.Equal(t, int64(0), result.RemainingAmount)
	// the automatic transition is recorded by the system actor
	last := result.StatusHistory[len(result.StatusHistory)-1]
	assert.Equal(t, "system", last.ByRole)
	assert.Equal(t, enum.InvoiceStatusPaid, last.ToStatus)

	assert.Equal(t, []string{
		event.TopicPaymentRecorded,
		event.TopicInvoiceStatusChanged,
		event.TopicInvoicePaid,
	}, f.pub.published())
}

func TestAddPayment_OverdueStaysOverdue(t *testing.T) {
	f := newFixture()
	inv := f.createDraft(t, time.Now().Add(-24*time.Hour))
	f.send(t, inv.ID)
	_, err := f.svc.ChangeStatus(context.Background(), inv.ID, enum.InvoiceStatusOverdue, entity.SystemActor, "past due date")
	require.NoError(t, err)
	f.pub.reset()

	result, err := f.svc.AddPayment(context.Background(), inv.ID, &service.AddPaymentInput{
		Amount: decimal.NewFromInt(1298), Method: enum.PaymentMethodCash, TransactionID: "late", Actor: userActor(f),
	})
	require.NoError(t, err)

	// the payment is recorded but overdue has no edge to paid
	assert.Equal(t, enum.InvoiceStatusOverdue, result.Status)
	assert.Equal(t, int64(0), result.RemainingAmount)
	assert.Equal(t, []string{event.TopicPaymentRecorded}, f.pub.published())
}

func TestAddPayment_OnDraftRejected(t *testing.T) {
	f := newFixture()
	inv := f.createDraft(t, time.Now().Add(time.Hour))
	_, err := f.svc.AddPayment(context.Background(), inv.ID, &service.AddPaymentInput{
		Amount: decimal.NewFromInt(100), Method: enum.PaymentMethodCash, TransactionID: "t", Actor: userActor(f),
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidPayment))
}

func TestMutate_RetriesOnConflict(t *testing.T) {
	f := newFixture()
	inv := f.createDraft(t, time.Now().Add(time.Hour))

	f.invoices.conflict = 2
	result, err := f.svc.ChangeStatus(context.Background(), inv.ID, enum.InvoiceStatusSent, userActor(f), "")
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusSent, result.Status)
}

func TestMutate_GivesUpAfterRetries(t *testing.T) {
	f := newFixture()
	inv := f.createDraft(t, time.Now().Add(time.Hour))

	f.invoices.conflict = 10
	_, err := f.svc.ChangeStatus(context.Background(), inv.ID, enum.InvoiceStatusSent, userActor(f), "")
	assert.True(t, apperror.IsCode(err, apperror.CodeConcurrencyConflict))
}

func TestMarkViewed(t *testing.T) {
	f := newFixture()
	inv := f.createDraft(t, time.Now().Add(time.Hour))
	f.send(t, inv.ID)

	viewed, err := f.svc.MarkViewed(context.Background(), inv.ID, f.clientID)
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusViewed, viewed.Status)

	// a second view is a no-op, not an error
	again, err := f.svc.MarkViewed(context.Background(), inv.ID, f.clientID)
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusViewed, again.Status)
	historyLen := len(again.StatusHistory)

	final, err := f.svc.GetInvoice(context.Background(), inv.ID, entity.Actor{Role: "client", ID: f.clientID})
	require.NoError(t, err)
	assert.Len(t, final.StatusHistory, historyLen)
}

func TestMarkViewed_WrongClient(t *testing.T) {
	f := newFixture()
	inv := f.createDraft(t, time.Now().Add(time.Hour))
	f.send(t, inv.ID)

	_, err := f.svc.MarkViewed(context.Background(), inv.ID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestGetInvoice_Ownership(t *testing.T) {
	f := newFixture()
	inv := f.createDraft(t, time.Now().Add(time.Hour))

	_, err := f.svc.GetInvoice(context.Background(), inv.ID, entity.Actor{Role: "user", ID: uuid.New()})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.svc.GetInvoice(context.Background(), inv.ID, entity.Actor{Role: "client", ID: uuid.New()})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	got, err := f.svc.GetInvoice(context.Background(), inv.ID, userActor(f))
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)
}

func TestSweepOverdue(t *testing.T) {
	f := newFixture()

	pastDue := f.createDraft(t, time.Now().Add(-48*time.Hour))
	f.send(t, pastDue.ID)
	alsoPast := f.createDraft(t, time.Now().Add(-time.Hour))
	f.send(t, alsoPast.ID)
	current := f.createDraft(t, time.Now().Add(time.Hour))
	f.send(t, current.ID)
	draft := f.createDraft(t, time.Now().Add(-time.Hour)) // drafts are never swept

	swept, err := f.svc.SweepOverdue(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 2, swept)

	for id, want := range map[uuid.UUID]enum.InvoiceStatus{
		pastDue.ID:  enum.InvoiceStatusOverdue,
		alsoPast.ID: enum.InvoiceStatusOverdue,
		current.ID:  enum.InvoiceStatusSent,
		draft.ID:    enum.InvoiceStatusDraft,
	} {
		got, err := f.invoices.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status)
	}

	// a second sweep finds nothing new
	swept, err = f.svc.SweepOverdue(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 0, swept)
}
