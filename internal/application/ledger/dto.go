package ledger

import (
	"time"

	"github.com/clientms/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateClientRequest carries the fields needed to register a new client
type CreateClientRequest struct {
	ClientName string
	Project    string
	Category   string
	Phone      string
	Email      string
	Amount     decimal.Decimal
	Paid       decimal.Decimal
}

// ClientListFilter carries listing options for client queries
type ClientListFilter struct {
	Page          int
	PageSize      int
	OrderBy       string
	OrderDir      string
	Search        string
	PaymentStatus string
	Category      string
}

// PaymentRecordResponse is a single ledger entry in API shape
type PaymentRecordResponse struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
	Notes     string          `json:"notes,omitempty"`
}

// ClientResponse is the listing representation of a client
type ClientResponse struct {
	ID            uuid.UUID       `json:"id"`
	ClientName    string          `json:"client_name"`
	Project       string          `json:"project"`
	Category      string          `json:"category,omitempty"`
	Phone         string          `json:"phone,omitempty"`
	Email         string          `json:"email,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Paid          decimal.Decimal `json:"paid"`
	Due           decimal.Decimal `json:"due"`
	PaymentStatus string          `json:"payment_status"`
	PaymentCount  int             `json:"payment_count"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ClientDetailResponse adds the full payment history to the client view
type ClientDetailResponse struct {
	ClientResponse
	PaymentHistory []PaymentRecordResponse `json:"payment_history"`
}

// ToClientResponse converts a domain client to its listing representation
func ToClientResponse(c *ledger.Client) ClientResponse {
	return ClientResponse{
		ID:            c.ID,
		ClientName:    c.ClientName,
		Project:       c.Project,
		Category:      c.Category,
		Phone:         c.Phone,
		Email:         c.Email,
		Amount:        c.Amount,
		Paid:          c.Paid,
		Due:           c.Due,
		PaymentStatus: c.PaymentStatus.String(),
		PaymentCount:  c.PaymentCount(),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// ToClientDetailResponse converts a domain client including its ledger,
// re-sorted chronologically.
func ToClientDetailResponse(c *ledger.Client) ClientDetailResponse {
	history := c.History()
	records := make([]PaymentRecordResponse, len(history))
	for i, r := range history {
		records[i] = PaymentRecordResponse{
			ID:        r.ID,
			Amount:    r.Amount,
			Timestamp: r.Timestamp,
			Notes:     r.Notes,
		}
	}
	return ClientDetailResponse{
		ClientResponse: ToClientResponse(c),
		PaymentHistory: records,
	}
}
