package handler

import (
	ledgerapp "github.com/clientms/backend/internal/application/ledger"
	"github.com/gin-gonic/gin"
)

// SummaryHandler handles portfolio summary HTTP requests
type SummaryHandler struct {
	BaseHandler
	summaryService *ledgerapp.SummaryService
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(summaryService *ledgerapp.SummaryService) *SummaryHandler {
	return &SummaryHandler{
		summaryService: summaryService,
	}
}

// SummaryRequest represents summary query parameters
type SummaryRequest struct {
	PaymentStatus string `form:"payment_status" binding:"omitempty,oneof=Pending Completed"`
	Category      string `form:"category" binding:"omitempty,max=100"`
}

// Get returns aggregate totals across matching clients.
// GET /ledger/summary
func (h *SummaryHandler) Get(c *gin.Context) {
	var req SummaryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	summary, err := h.summaryService.Summarize(c.Request.Context(), ledgerapp.SummaryFilter{
		PaymentStatus: req.PaymentStatus,
		Category:      req.Category,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}
