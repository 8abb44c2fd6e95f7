package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog/log"

	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/entity"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/enum"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/event"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/repository"
	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/email"
	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/money"
)

// Subscriber is the consuming side of the event bus.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// NotificationService turns domain events into client emails. It runs as a
// background consumer on the event bus; every attempt, successful or not, is
// recorded in the email log. Email failures never surface to the mutation
// that raised the event.
type NotificationService struct {
	subscriber   Subscriber
	emailService *email.EmailService
	userRepo     repository.UserRepository
	clientRepo   repository.ClientRepository
	settingsRepo repository.SettingsRepository
	emailLogRepo repository.EmailLogRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	subscriber Subscriber,
	emailService *email.EmailService,
	userRepo repository.UserRepository,
	clientRepo repository.ClientRepository,
	settingsRepo repository.SettingsRepository,
	emailLogRepo repository.EmailLogRepository,
) *NotificationService {
	return &NotificationService{
		subscriber:   subscriber,
		emailService: emailService,
		userRepo:     userRepo,
		clientRepo:   clientRepo,
		settingsRepo: settingsRepo,
		emailLogRepo: emailLogRepo,
	}
}

// Start subscribes to the event topics and consumes until ctx is cancelled.
func (s *NotificationService) Start(ctx context.Context) error {
	statusChanges, err := s.subscriber.Subscribe(ctx, event.TopicInvoiceStatusChanged)
	if err != nil {
		return err
	}
	payments, err := s.subscriber.Subscribe(ctx, event.TopicPaymentRecorded)
	if err != nil {
		return err
	}

	go s.consume(ctx, statusChanges, s.handleStatusChanged)
	go s.consume(ctx, payments, s.handlePaymentRecorded)

	return nil
}

func (s *NotificationService) consume(ctx context.Context, messages <-chan *message.Message, handle func(context.Context, *message.Message) error) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			if err := handle(ctx, msg); err != nil {
				log.Error().Err(err).Str("message_id", msg.UUID).Msg("notification handler failed")
			}
			// Always ack: notifications are not retried, failures are
			// recorded in the email log instead.
			msg.Ack()
		}
	}
}

// handleStatusChanged emails the client when their invoice is sent.
func (s *NotificationService) handleStatusChanged(ctx context.Context, msg *message.Message) error {
	var evt event.InvoiceEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return fmt.Errorf("unmarshal status change event: %w", err)
	}

	if evt.Status != enum.InvoiceStatusSent.String() {
		return nil
	}

	user, client, settings, err := s.loadParties(ctx, &evt)
	if err != nil || client == nil {
		return err
	}
	if !settings.EmailNotifications || !settings.SendInvoiceEmails {
		return nil
	}

	data := email.InvoiceEmailData{
		ClientName:    client.Name,
		BusinessName:  businessName(user),
		InvoiceNumber: evt.InvoiceNumber,
		TotalAmount:   money.FromMinor(evt.TotalAmount),
		DueDate:       evt.OccurredAt.Format("02 Jan 2006"),
	}

	sendErr := s.emailService.SendInvoiceEmail(client.Email, data)
	s.recordEmail(ctx, &evt, client.Email,
		fmt.Sprintf("Invoice %s from %s", evt.InvoiceNumber, data.BusinessName),
		"invoice_sent", sendErr)
	return sendErr
}

// handlePaymentRecorded emails the client a payment receipt.
func (s *NotificationService) handlePaymentRecorded(ctx context.Context, msg *message.Message) error {
	var evt event.PaymentEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return fmt.Errorf("unmarshal payment event: %w", err)
	}

	user, client, settings, err := s.loadParties(ctx, &evt.InvoiceEvent)
	if err != nil || client == nil {
		return err
	}
	if !settings.EmailNotifications || !settings.PaymentAlerts {
		return nil
	}

	data := email.InvoiceEmailData{
		ClientName:    client.Name,
		BusinessName:  businessName(user),
		InvoiceNumber: evt.InvoiceNumber,
		AmountPaid:    money.FromMinor(evt.Amount),
		Remaining:     money.FromMinor(evt.Remaining),
	}

	sendErr := s.emailService.SendPaymentReceiptEmail(client.Email, data)
	s.recordEmail(ctx, &evt.InvoiceEvent, client.Email,
		fmt.Sprintf("Payment received for invoice %s", evt.InvoiceNumber),
		"payment_receipt", sendErr)
	return sendErr
}

func (s *NotificationService) loadParties(ctx context.Context, evt *event.InvoiceEvent) (*entity.User, *entity.Client, *entity.UserSettings, error) {
	user, err := s.userRepo.GetByID(ctx, evt.UserID)
	if err != nil || user == nil {
		return nil, nil, nil, err
	}
	client, err := s.clientRepo.GetByID(ctx, evt.ClientID)
	if err != nil || client == nil {
		return nil, nil, nil, err
	}

	settings, err := s.settingsRepo.GetByUserID(ctx, evt.UserID)
	if err != nil {
		return nil, nil, nil, err
	}
	if settings == nil {
		// No saved settings means defaults, and the defaults send email.
		settings = &entity.UserSettings{
			EmailNotifications: true,
			SendInvoiceEmails:  true,
			PaymentAlerts:      true,
			OverdueReminders:   true,
		}
	}

	return user, client, settings, nil
}

func (s *NotificationService) recordEmail(ctx context.Context, evt *event.InvoiceEvent, recipient, subject, emailType string, sendErr error) {
	entry := &entity.EmailLog{
		UserID:    evt.UserID,
		InvoiceID: &evt.InvoiceID,
		Recipient: recipient,
		Subject:   subject,
		EmailType: emailType,
		Status:    entity.EmailStatusSent,
		SentAt:    time.Now(),
	}
	if sendErr != nil {
		entry.Status = entity.EmailStatusFailed
		entry.Error = sendErr.Error()
	}

	if err := s.emailLogRepo.Create(ctx, entry); err != nil {
		log.Error().Err(err).Str("invoice", evt.InvoiceNumber).Msg("failed to record email log")
	}
}

func businessName(user *entity.User) string {
	if user.BusinessName != nil && *user.BusinessName != "" {
		return *user.BusinessName
	}
	return user.Name
}
