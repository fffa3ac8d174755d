package handler

import (
	ledgerapp "github.com/clientms/backend/internal/application/ledger"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles payment recording HTTP requests
type PaymentHandler struct {
	BaseHandler
	paymentService *ledgerapp.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *ledgerapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// RecordPaymentRequest represents the payment recording payload. The client
// ID is validated by the service so malformed IDs report a consistent error
// code whether they arrive here or through other entry points.
type RecordPaymentRequest struct {
	ClientID string          `json:"client_id" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Notes    string          `json:"notes" binding:"omitempty,max=500"`
}

// Record applies a payment to a client balance.
// POST /ledger/payments
func (h *PaymentHandler) Record(c *gin.Context) {
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	result, err := h.paymentService.RecordPayment(c.Request.Context(), ledgerapp.RecordPaymentRequest{
		ClientID: req.ClientID,
		Amount:   req.Amount,
		Notes:    req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
