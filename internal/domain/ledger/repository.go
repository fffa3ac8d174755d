package ledger

import (
	"context"

	"github.com/clientms/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceUpdate carries the reconciled balance fields written by an atomic
// payment update.
type BalanceUpdate struct {
	Paid   decimal.Decimal
	Due    decimal.Decimal
	Status PaymentStatus
}

// Summary holds portfolio-wide totals across matching clients
type Summary struct {
	TotalClients int64           `json:"total_clients"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	TotalDue     decimal.Decimal `json:"total_due"`
}

// ClientRepository defines persistence operations for the Client aggregate
type ClientRepository interface {
	// Insert persists a newly created client
	Insert(ctx context.Context, client *Client) error

	// FindByID loads a client; returns shared.ErrNotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Client, error)

	// FindAll lists clients matching the filter. Filter.Search matches
	// client_name or phone case-insensitively; Filters["payment_status"]
	// narrows by status.
	FindAll(ctx context.Context, filter shared.Filter) ([]Client, error)

	// Count returns the number of clients matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ApplyPayment atomically sets the reconciled balance and appends the
	// record to the payment history in a single statement, guarded by the
	// paid value observed at reconciliation time. Returns
	// shared.ErrConcurrencyConflict when the guard misses on an existing
	// row, shared.ErrNotFound when the client is gone.
	ApplyPayment(ctx context.Context, id uuid.UUID, expectedPaid decimal.Decimal, update BalanceUpdate, record PaymentRecord) error

	// Summarize aggregates portfolio totals over clients matching the filter
	Summarize(ctx context.Context, filter shared.Filter) (*Summary, error)
}
