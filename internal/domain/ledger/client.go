package ledger

import (
	"time"

	"github.com/clientms/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the settlement state of a client balance
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"   // Outstanding balance > 0
	PaymentStatusCompleted PaymentStatus = "Completed" // Fully settled, due = 0
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	return s == PaymentStatusPending || s == PaymentStatusCompleted
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// Client represents a client aggregate root. It carries the contracted
// project amount, the running paid total, the derived outstanding balance,
// and the append-only payment ledger embedded as JSONB.
type Client struct {
	shared.BaseAggregateRoot
	ClientName     string          `json:"client_name"`
	Project        string          `json:"project"`
	Category       string          `json:"category"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email"`
	Amount         decimal.Decimal `json:"amount"` // Contracted total, immutable after creation
	Paid           decimal.Decimal `json:"paid"`   // Running paid total, never decreases
	Due            decimal.Decimal `json:"due"`    // Derived: amount - paid, clamped >= 0
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	PaymentHistory PaymentRecords  `json:"payment_history"`
}

// NewClient creates a new client with a derived balance. An initial paid
// amount is allowed but must not exceed the contracted amount; when present
// it is seeded into the ledger so paid always equals the history total.
func NewClient(clientName, project, category, phone, email string, amount, initialPaid decimal.Decimal) (*Client, error) {
	if clientName == "" {
		return nil, shared.NewDomainError("INVALID_CLIENT_NAME", "Client name cannot be empty")
	}
	if project == "" {
		return nil, shared.NewDomainError("INVALID_PROJECT", "Project cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if initialPaid.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PAID", "Paid amount cannot be negative")
	}
	if initialPaid.GreaterThan(amount) {
		return nil, shared.NewDomainError("INVALID_PAID", "Paid amount cannot exceed total amount")
	}

	amount = amount.Round(2)
	initialPaid = initialPaid.Round(2)
	due, status := DeriveBalance(amount, initialPaid)

	c := &Client{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ClientName:        clientName,
		Project:           project,
		Category:          category,
		Phone:             phone,
		Email:             email,
		Amount:            amount,
		Paid:              initialPaid,
		Due:               due,
		PaymentStatus:     status,
		PaymentHistory:    PaymentRecords{},
	}

	if initialPaid.IsPositive() {
		c.PaymentHistory = append(c.PaymentHistory, *NewPaymentRecord(initialPaid, "Initial payment"))
	}

	return c, nil
}

// RecordPayment reconciles and applies a payment to the in-memory aggregate,
// returning the ledger record it appended. Persistence replays the same
// mutation as a single conditional update keyed on the pre-payment paid value.
func (c *Client) RecordPayment(amount decimal.Decimal, notes string) (*PaymentRecord, error) {
	rec, err := ComputeNewBalance(c.Paid, c.Amount, amount)
	if err != nil {
		return nil, err
	}

	record := NewPaymentRecord(amount, notes)
	c.PaymentHistory = append(c.PaymentHistory, *record)
	c.Paid = rec.NewPaid
	c.Due = rec.NewDue
	c.PaymentStatus = rec.NewStatus
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return record, nil
}

// IsCompleted returns true if the client balance is fully settled
func (c *Client) IsCompleted() bool {
	return c.PaymentStatus == PaymentStatusCompleted
}

// PaymentCount returns the number of ledger entries
func (c *Client) PaymentCount() int {
	return len(c.PaymentHistory)
}

// History returns the payment ledger in chronological order
func (c *Client) History() PaymentRecords {
	return c.PaymentHistory.SortedByTimestamp()
}
