package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/entity"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/repository"
)

// SettingsService handles settings-related business logic
type SettingsService struct {
	settingsRepo repository.SettingsRepository
}

// NewSettingsService creates a new settings service
func NewSettingsService(settingsRepo repository.SettingsRepository) *SettingsService {
	return &SettingsService{
		settingsRepo: settingsRepo,
	}
}

// GetSettings retrieves user settings, creating defaults if not exists
func (s *SettingsService) GetSettings(ctx context.Context, userID uuid.UUID) (*entity.UserSettings, error) {
	settings, err := s.settingsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// If no settings exist, create default settings
	if settings == nil {
		settings = &entity.UserSettings{
			UserID:             userID,
			Currency:           "INR",
			DateFormat:         "DD/MM/YYYY",
			DefaultDueDays:     15,
			DefaultTaxRate:     "0",
			EmailNotifications: true,
			SendInvoiceEmails:  true,
			PaymentAlerts:      true,
			OverdueReminders:   true,
		}
		if err := s.settingsRepo.Create(ctx, settings); err != nil {
			return nil, err
		}
	}

	return settings, nil
}

// UpdateSettingsInput represents the input for updating settings
type UpdateSettingsInput struct {
	UserID             uuid.UUID
	Currency           string
	DateFormat         string
	DefaultTerms       string
	DefaultNotes       string
	DefaultDueDays     int
	DefaultTaxRate     string
	EmailNotifications bool
	SendInvoiceEmails  bool
	PaymentAlerts      bool
	OverdueReminders   bool
}

// UpdateSettings updates user settings
func (s *SettingsService) UpdateSettings(ctx context.Context, input *UpdateSettingsInput) (*entity.UserSettings, error) {
	settings, err := s.settingsRepo.GetByUserID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	// If no settings exist, create new
	if settings == nil {
		settings = &entity.UserSettings{
			UserID: input.UserID,
		}
	}

	settings.Currency = input.Currency
	settings.DateFormat = input.DateFormat
	settings.DefaultTerms = input.DefaultTerms
	settings.DefaultNotes = input.DefaultNotes
	settings.DefaultDueDays = input.DefaultDueDays
	settings.DefaultTaxRate = input.DefaultTaxRate
	settings.EmailNotifications = input.EmailNotifications
	settings.SendInvoiceEmails = input.SendInvoiceEmails
	settings.PaymentAlerts = input.PaymentAlerts
	settings.OverdueReminders = input.OverdueReminders

	if settings.ID == uuid.Nil {
		if err := s.settingsRepo.Create(ctx, settings); err != nil {
			return nil, err
		}
	} else {
		if err := s.settingsRepo.Update(ctx, settings); err != nil {
			return nil, err
		}
	}

	return settings, nil
}
