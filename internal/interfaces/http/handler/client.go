package handler

import (
	ledgerapp "github.com/clientms/backend/internal/application/ledger"
	"github.com/clientms/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClientHandler handles client account HTTP requests
type ClientHandler struct {
	BaseHandler
	clientService *ledgerapp.ClientService
}

// NewClientHandler creates a new client handler
func NewClientHandler(clientService *ledgerapp.ClientService) *ClientHandler {
	return &ClientHandler{
		clientService: clientService,
	}
}

// CreateClientRequest represents the client creation payload. Amount and
// paid accept both JSON numbers and numeric strings.
type CreateClientRequest struct {
	ClientName string          `json:"client_name" binding:"required,min=1,max=255"`
	Project    string          `json:"project" binding:"required,min=1,max=255"`
	Category   string          `json:"category" binding:"omitempty,max=100"`
	Phone      string          `json:"phone" binding:"omitempty,max=32"`
	Email      string          `json:"email" binding:"omitempty,email"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	Paid       decimal.Decimal `json:"paid"`
}

// ClientListRequest represents client listing query parameters
type ClientListRequest struct {
	dto.ListRequest
	PaymentStatus string `form:"payment_status" binding:"omitempty,oneof=Pending Completed"`
	Category      string `form:"category" binding:"omitempty,max=100"`
}

// Create registers a new client account.
// POST /ledger/clients
func (h *ClientHandler) Create(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	client, err := h.clientService.Create(c.Request.Context(), ledgerapp.CreateClientRequest{
		ClientName: req.ClientName,
		Project:    req.Project,
		Category:   req.Category,
		Phone:      req.Phone,
		Email:      req.Email,
		Amount:     req.Amount,
		Paid:       req.Paid,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, client)
}

// List returns a page of client accounts.
// GET /ledger/clients
func (h *ClientHandler) List(c *gin.Context) {
	var req ClientListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	result, err := h.clientService.List(c.Request.Context(), ledgerapp.ClientListFilter{
		Page:          req.Page,
		PageSize:      req.PageSize,
		OrderBy:       req.OrderBy,
		OrderDir:      req.OrderDir,
		Search:        req.Search,
		PaymentStatus: req.PaymentStatus,
		Category:      req.Category,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// GetByID returns a single client with its full payment history.
// GET /ledger/clients/:id
func (h *ClientHandler) GetByID(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	clientID, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid client ID")
		return
	}

	client, err := h.clientService.GetByID(c.Request.Context(), clientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, client)
}
