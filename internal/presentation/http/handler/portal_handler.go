package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/application/service"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/presentation/http/dto/request"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/presentation/http/dto/response"
	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/pagination"
)

// PortalHandler handles the client portal: the authenticated client's view
// of their own invoices.
type PortalHandler struct {
	authService    *service.AuthService
	invoiceService *service.InvoiceService
}

// NewPortalHandler creates a new portal handler
func NewPortalHandler(authService *service.AuthService, invoiceService *service.InvoiceService) *PortalHandler {
	return &PortalHandler{
		authService:    authService,
		invoiceService: invoiceService,
	}
}

// Login handles client portal login
func (h *PortalHandler) Login(c *gin.Context) {
	var req request.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	output, err := h.authService.ClientLogin(c.Request.Context(), &service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Login successful", gin.H{
		"client": gin.H{
			"id":      output.Client.ID,
			"name":    output.Client.Name,
			"email":   output.Client.Email,
			"company": output.Client.Company,
		},
		"access_token":  output.AccessToken,
		"refresh_token": output.RefreshToken,
		"token_type":    "Bearer",
	})
}

// ListInvoices lists the invoices billed to the authenticated client.
// Drafts are never visible in the portal.
func (h *PortalHandler) ListInvoices(c *gin.Context) {
	clientID := GetClientID(c)
	if clientID == nil {
		response.Unauthorized(c, "Client not authenticated")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "15"))

	params := &pagination.PaginationParams{
		Page:    page,
		PerPage: perPage,
	}

	result, err := h.invoiceService.ListClientInvoices(c.Request.Context(), *clientID, params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Invoices retrieved successfully", result)
}

// GetInvoice returns one invoice billed to the client. Opening a sent
// invoice moves it to viewed.
func (h *PortalHandler) GetInvoice(c *gin.Context) {
	clientID := GetClientID(c)
	if clientID == nil {
		response.Unauthorized(c, "Client not authenticated")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.invoiceService.MarkViewed(c.Request.Context(), id, *clientID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice retrieved successfully", invoice)
}
