package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/entity"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/enum"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/event"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/repository"
	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/apperror"
	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/money"
	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/pagination"
)

// Number of reloads attempted when an optimistic-lock save or an
// invoice-number allocation hits a conflict.
const maxConflictRetries = 3

// InvoiceService owns the invoice mutation surface. Every mutation loads a
// fresh aggregate, applies domain logic, and saves under the optimistic
// concurrency check, retrying on conflict. Domain events are published after
// the save committed, best-effort.
type InvoiceService struct {
	invoiceRepo repository.InvoiceRepository
	clientRepo  repository.ClientRepository
	publisher   event.Publisher
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	publisher event.Publisher,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		publisher:   publisher,
	}
}

// ItemInput represents one line item in create/update input
type ItemInput struct {
	Description string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
}

// CreateInvoiceInput represents the create invoice input
type CreateInvoiceInput struct {
	UserID         uuid.UUID
	ClientID       uuid.UUID
	InvoiceDate    *time.Time
	DueDate        time.Time
	Items          []ItemInput
	Notes          string
	Terms          string
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
}

// CreateInvoice creates a draft invoice with the next sequential number for
// the owner and year. Numbers are unique per (owner, invoice_number); a
// duplicate-key insert means another request won the sequence, so allocation
// retries with a fresh one. Gaps from failed creations are acceptable.
func (s *InvoiceService) CreateInvoice(ctx context.Context, input *CreateInvoiceInput) (*entity.Invoice, error) {
	exists, err := s.clientRepo.Exists(ctx, input.ClientID, input.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperror.NewNotFoundError("Client")
	}

	invoiceDate := time.Now()
	if input.InvoiceDate != nil {
		invoiceDate = *input.InvoiceDate
	}

	items := make([]entity.InvoiceItem, len(input.Items))
	for i, it := range input.Items {
		items[i] = entity.InvoiceItem{
			Position:    i,
			Description: it.Description,
			Quantity:    it.Quantity,
			Rate:        money.ToMinor(it.Rate),
		}
	}

	invoice := &entity.Invoice{
		UserID:         input.UserID,
		ClientID:       input.ClientID,
		InvoiceDate:    invoiceDate,
		DueDate:        input.DueDate,
		Status:         enum.InvoiceStatusDraft,
		DiscountAmount: money.ToMinor(input.DiscountAmount),
		TaxAmount:      money.ToMinor(input.TaxAmount),
		Notes:          input.Notes,
		Terms:          input.Terms,
		Items:          items,
		Version:        1,
	}

	if err := invoice.Recalculate(); err != nil {
		return nil, err
	}
	invoice.RecordCreation(entity.Actor{Role: "user", ID: input.UserID})

	year := invoiceDate.Year()
	for attempt := 0; ; attempt++ {
		seq, err := s.invoiceRepo.NextSequence(ctx, input.UserID, year)
		if err != nil {
			return nil, err
		}
		invoice.InvoiceNumber = fmt.Sprintf("INV-%d-%04d", year, seq)

		err = s.invoiceRepo.Create(ctx, invoice)
		if err == nil {
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt < maxConflictRetries {
			continue
		}
		return nil, err
	}

	s.publish(ctx, event.TopicInvoiceCreated, s.invoiceEvent(invoice))

	return s.invoiceRepo.GetByID(ctx, invoice.ID)
}

// GetInvoice retrieves an invoice, enforcing that the requester is either
// the owning user or the billed client.
func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID, actor entity.Actor) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}

	switch actor.Role {
	case "user":
		if invoice.UserID != actor.ID {
			return nil, apperror.ErrForbidden
		}
	case "client":
		if invoice.ClientID != actor.ID {
			return nil, apperror.ErrForbidden
		}
	default:
		return nil, apperror.ErrForbidden
	}

	return invoice, nil
}

// ListInvoices lists the owner's invoices with filtering
func (s *InvoiceService) ListInvoices(ctx context.Context, userID uuid.UUID, params *repository.InvoiceFilterParams) (*pagination.PaginatedResult[entity.Invoice], error) {
	invoices, total, err := s.invoiceRepo.List(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(invoices, pag), nil
}

// ListClientInvoices lists the invoices billed to a client (portal view,
// drafts excluded).
func (s *InvoiceService) ListClientInvoices(ctx context.Context, clientID uuid.UUID, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.Invoice], error) {
	invoices, total, err := s.invoiceRepo.ListByClient(ctx, clientID, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Page, params.PerPage, total)
	return pagination.NewPaginatedResult(invoices, pag), nil
}

// UpdateInvoiceInput carries the whitelisted updatable fields. Nil pointers
// leave the current value untouched.
type UpdateInvoiceInput struct {
	DueDate        *time.Time
	Items          []ItemInput
	Notes          *string
	Terms          *string
	DiscountAmount *decimal.Decimal
}

// UpdateInvoice applies the whitelisted fields and recomputes derived
// amounts. Paid invoices are locked.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, invoiceID, userID uuid.UUID, input *UpdateInvoiceInput) (*entity.Invoice, error) {
	return s.mutate(ctx, invoiceID, func(invoice *entity.Invoice) error {
		if invoice.UserID != userID {
			return apperror.ErrForbidden
		}
		if invoice.IsLocked() {
			return apperror.NewInvoiceLockedError()
		}

		if input.DueDate != nil {
			invoice.DueDate = *input.DueDate
		}
		if input.Notes != nil {
			invoice.Notes = *input.Notes
		}
		if input.Terms != nil {
			invoice.Terms = *input.Terms
		}
		if input.Items != nil {
			items := make([]entity.InvoiceItem, len(input.Items))
			for i, it := range input.Items {
				items[i] = entity.InvoiceItem{
					Position:    i,
					Description: it.Description,
					Quantity:    it.Quantity,
					Rate:        money.ToMinor(it.Rate),
				}
			}
			invoice.Items = items
		}
		if input.DiscountAmount != nil {
			invoice.DiscountAmount = money.ToMinor(*input.DiscountAmount)
		}

		return invoice.Recalculate()
	})
}

// DeleteInvoice removes an invoice. Only draft or cancelled invoices with no
// payments can be deleted.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, invoiceID, userID uuid.UUID) error {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if invoice == nil {
		return apperror.NewNotFoundError("Invoice")
	}
	if invoice.UserID != userID {
		return apperror.ErrForbidden
	}
	if err := invoice.CheckDeletable(); err != nil {
		return err
	}
	return s.invoiceRepo.Delete(ctx, invoiceID)
}

// ChangeStatus executes a manual status transition on behalf of an actor.
func (s *InvoiceService) ChangeStatus(ctx context.Context, invoiceID uuid.UUID, target enum.InvoiceStatus, actor entity.Actor, reason string) (*entity.Invoice, error) {
	if !target.IsValid() {
		return nil, apperror.NewInvalidStatusError(target.String())
	}

	var from enum.InvoiceStatus
	result, err := s.mutate(ctx, invoiceID, func(invoice *entity.Invoice) error {
		if actor.Role == "user" && invoice.UserID != actor.ID {
			return apperror.ErrForbidden
		}
		from = invoice.Status
		return invoice.ChangeStatus(target, actor, reason)
	})
	if err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, result, from)
	return result, nil
}

// AddPaymentInput represents the payment input
type AddPaymentInput struct {
	Amount        decimal.Decimal
	Method        enum.PaymentMethod
	TransactionID string
	PaidAt        *time.Time
	Actor         entity.Actor
}

// AddPayment appends a payment to the ledger. Overpayment is permitted and
// recorded. When the remaining amount reaches exactly zero the invoice is
// moved to paid through the state machine, under the same save, so the audit
// trail and invariants are identical to a manual change.
func (s *InvoiceService) AddPayment(ctx context.Context, invoiceID uuid.UUID, input *AddPaymentInput) (*entity.Invoice, error) {
	var from enum.InvoiceStatus
	var becamePaid bool
	var recorded entity.Payment

	result, err := s.mutate(ctx, invoiceID, func(invoice *entity.Invoice) error {
		if input.Actor.Role == "user" && invoice.UserID != input.Actor.ID {
			return apperror.ErrForbidden
		}
		from = invoice.Status
		becamePaid = false

		payment := &entity.Payment{
			Amount:        money.ToMinor(input.Amount),
			Method:        input.Method,
			TransactionID: input.TransactionID,
			ByRole:        input.Actor.Role,
			ByID:          input.Actor.ID,
		}
		if input.PaidAt != nil {
			payment.PaidAt = *input.PaidAt
		}

		fullyPaid, err := invoice.ApplyPayment(payment)
		if err != nil {
			return err
		}
		recorded = invoice.Payments[len(invoice.Payments)-1]

		if fullyPaid && invoice.Status.CanTransitionTo(enum.InvoiceStatusPaid) {
			if err := invoice.ChangeStatus(enum.InvoiceStatusPaid, entity.SystemActor, "payment completed"); err != nil {
				return err
			}
			becamePaid = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event.TopicPaymentRecorded, event.PaymentEvent{
		InvoiceEvent:  s.invoiceEvent(result),
		PaymentID:     recorded.ID,
		Amount:        recorded.Amount,
		Method:        recorded.Method.String(),
		TransactionID: recorded.TransactionID,
	})
	if becamePaid {
		s.publishStatusChange(ctx, result, from)
	}

	return result, nil
}

// MarkViewed transitions a sent invoice to viewed when the billed client
// opens it. Any other current status leaves the invoice untouched.
func (s *InvoiceService) MarkViewed(ctx context.Context, invoiceID, clientID uuid.UUID) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	if invoice.ClientID != clientID {
		return nil, apperror.ErrForbidden
	}
	if invoice.Status != enum.InvoiceStatusSent {
		return invoice, nil
	}

	return s.ChangeStatus(ctx, invoiceID, enum.InvoiceStatusViewed,
		entity.Actor{Role: "client", ID: clientID}, "viewed by client")
}

// SweepOverdue moves every past-due, non-terminal invoice to overdue through
// the state machine. Called periodically; transitions that race a concurrent
// payment simply fail their guard and are skipped.
func (s *InvoiceService) SweepOverdue(ctx context.Context, batchSize int) (int, error) {
	candidates, err := s.invoiceRepo.ListOverdueCandidates(ctx, time.Now(), batchSize)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, candidate := range candidates {
		_, err := s.ChangeStatus(ctx, candidate.ID, enum.InvoiceStatusOverdue, entity.SystemActor, "past due date")
		if err != nil {
			log.Warn().Err(err).Str("invoice", candidate.InvoiceNumber).Msg("overdue sweep skipped invoice")
			continue
		}
		swept++
	}
	return swept, nil
}

// GetStats returns the owner's invoice statistics for dashboards.
func (s *InvoiceService) GetStats(ctx context.Context, userID uuid.UUID) (*repository.InvoiceStats, error) {
	return s.invoiceRepo.Stats(ctx, userID)
}

// mutate loads the aggregate, applies fn and saves, retrying the whole cycle
// on optimistic-lock conflicts so fn always runs against a consistent
// snapshot. Domain errors from fn abort immediately.
func (s *InvoiceService) mutate(ctx context.Context, invoiceID uuid.UUID, fn func(*entity.Invoice) error) (*entity.Invoice, error) {
	for attempt := 0; ; attempt++ {
		invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
		if err != nil {
			return nil, err
		}
		if invoice == nil {
			return nil, apperror.NewNotFoundError("Invoice")
		}

		if err := fn(invoice); err != nil {
			return nil, err
		}

		err = s.invoiceRepo.Save(ctx, invoice)
		if err == nil {
			return invoice, nil
		}
		if apperror.IsCode(err, apperror.CodeConcurrencyConflict) && attempt < maxConflictRetries {
			continue
		}
		return nil, err
	}
}

func (s *InvoiceService) invoiceEvent(invoice *entity.Invoice) event.InvoiceEvent {
	return event.InvoiceEvent{
		InvoiceID:     invoice.ID,
		InvoiceNumber: invoice.InvoiceNumber,
		UserID:        invoice.UserID,
		ClientID:      invoice.ClientID,
		Status:        invoice.Status.String(),
		TotalAmount:   invoice.TotalAmount,
		TotalPaid:     invoice.TotalPaid,
		Remaining:     invoice.RemainingAmount,
		OccurredAt:    time.Now(),
	}
}

func (s *InvoiceService) publishStatusChange(ctx context.Context, invoice *entity.Invoice, from enum.InvoiceStatus) {
	evt := s.invoiceEvent(invoice)
	s.publish(ctx, event.TopicInvoiceStatusChanged, evt)
	if invoice.Status == enum.InvoiceStatusPaid && from != enum.InvoiceStatusPaid {
		s.publish(ctx, event.TopicInvoicePaid, evt)
	}
}

// publish emits a domain event after a committed mutation. Failures are
// logged, never propagated: side effects must not fail the mutation.
func (s *InvoiceService) publish(ctx context.Context, topic string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, topic, payload); err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("failed to publish domain event")
	}
}
