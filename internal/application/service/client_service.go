package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/entity"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/repository"
	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/apperror"
	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/pagination"
	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/utils"
)

// ClientService handles client-related operations
type ClientService struct {
	clientRepo  repository.ClientRepository
	invoiceRepo repository.InvoiceRepository
}

// NewClientService creates a new client service
func NewClientService(clientRepo repository.ClientRepository, invoiceRepo repository.InvoiceRepository) *ClientService {
	return &ClientService{
		clientRepo:  clientRepo,
		invoiceRepo: invoiceRepo,
	}
}

// CreateClientInput represents the create client input
type CreateClientInput struct {
	UserID    uuid.UUID
	Name      string
	Email     string
	Password  string
	Company   *string
	Phone     *string
	Address   *string
	TaxNumber *string
}

// CreateClient creates a new client. The email must be unique across all
// clients since it doubles as the portal login.
func (s *ClientService) CreateClient(ctx context.Context, input *CreateClientInput) (*entity.Client, error) {
	existing, err := s.clientRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("A client with this email already exists")
	}

	client := &entity.Client{
		UserID:    input.UserID,
		Name:      input.Name,
		Email:     input.Email,
		Company:   input.Company,
		Phone:     input.Phone,
		Address:   input.Address,
		TaxNumber: input.TaxNumber,
	}

	if input.Password != "" {
		hashed, err := utils.HashPassword(input.Password)
		if err != nil {
			return nil, err
		}
		client.Password = hashed
	}

	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, err
	}

	return client, nil
}

// GetClient retrieves a client owned by the given user
func (s *ClientService) GetClient(ctx context.Context, id, userID uuid.UUID) (*entity.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if client == nil || client.UserID != userID {
		return nil, apperror.NewNotFoundError("Client")
	}
	return client, nil
}

// ListClients lists the user's clients with optional name/email search
func (s *ClientService) ListClients(ctx context.Context, userID uuid.UUID, params *pagination.PaginationParams, search string) (*pagination.PaginatedResult[entity.Client], error) {
	clients, total, err := s.clientRepo.List(ctx, userID, params, search)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Page, params.PerPage, total)
	return pagination.NewPaginatedResult(clients, pag), nil
}

// UpdateClientInput represents the update client input
type UpdateClientInput struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      *string
	Password  *string
	Company   *string
	Phone     *string
	Address   *string
	TaxNumber *string
}

// UpdateClient updates a client owned by the given user. The email is
// immutable; it is the portal identity.
func (s *ClientService) UpdateClient(ctx context.Context, input *UpdateClientInput) (*entity.Client, error) {
	client, err := s.GetClient(ctx, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		client.Name = *input.Name
	}
	if input.Password != nil && *input.Password != "" {
		hashed, err := utils.HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		client.Password = hashed
	}
	if input.Company != nil {
		client.Company = input.Company
	}
	if input.Phone != nil {
		client.Phone = input.Phone
	}
	if input.Address != nil {
		client.Address = input.Address
	}
	if input.TaxNumber != nil {
		client.TaxNumber = input.TaxNumber
	}

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, err
	}

	return client, nil
}

// DeleteClient removes a client. Clients with invoices cannot be deleted;
// the invoice history must be kept intact.
func (s *ClientService) DeleteClient(ctx context.Context, id, userID uuid.UUID) error {
	client, err := s.GetClient(ctx, id, userID)
	if err != nil {
		return err
	}

	_, total, err := s.invoiceRepo.List(ctx, userID, &repository.InvoiceFilterParams{
		Pagination: &pagination.PaginationParams{Page: 1, PerPage: 1},
		ClientID:   &client.ID,
	})
	if err != nil {
		return err
	}
	if total > 0 {
		return apperror.NewConflictError("Cannot delete a client with invoices")
	}

	return s.clientRepo.Delete(ctx, id)
}
