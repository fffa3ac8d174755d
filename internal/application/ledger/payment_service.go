package ledger

import (
	"context"
	"fmt"

	"github.com/clientms/backend/internal/domain/ledger"
	"github.com/clientms/backend/internal/domain/shared"
	"github.com/clientms/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentService records payments against client balances. Each recording
// re-fetches the client, reconciles the balance, and commits the result as a
// single conditional update so concurrent writers cannot lose each other's
// payments.
type PaymentService struct {
	clientRepo ledger.ClientRepository
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(clientRepo ledger.ClientRepository) *PaymentService {
	return &PaymentService{
		clientRepo: clientRepo,
	}
}

// RecordPaymentRequest represents a request to record a client payment
type RecordPaymentRequest struct {
	ClientID string
	Amount   decimal.Decimal
	Notes    string
}

// PaymentResult represents the outcome of a recorded payment
type PaymentResult struct {
	ClientID      uuid.UUID       `json:"client_id"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	Amount        decimal.Decimal `json:"amount"`
	NewPaid       decimal.Decimal `json:"new_paid"`
	NewDue        decimal.Decimal `json:"new_due"`
	PaymentStatus string          `json:"payment_status"`
}

// RecordPayment applies a payment to a client balance.
//
// The flow is fetch → reconcile → conditional write: the update only lands
// when the stored paid total still matches the one reconciliation saw, so a
// concurrent payment surfaces as shared.ErrConcurrencyConflict instead of a
// lost update. No failure path leaves a partial write behind.
func (s *PaymentService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "record")
	defer span.End()

	telemetry.SetAttributes(span,
		"client_id", req.ClientID,
		"amount", req.Amount.String(),
	)

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		err := shared.NewDomainError("INVALID_CLIENT_ID", "Client ID must be a valid UUID")
		telemetry.RecordError(span, err)
		return nil, err
	}

	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	expectedPaid := client.Paid

	reconciliation, err := ledger.ComputeNewBalance(client.Paid, client.Amount, req.Amount)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	record := ledger.NewPaymentRecord(req.Amount, req.Notes)
	update := ledger.BalanceUpdate{
		Paid:   reconciliation.NewPaid,
		Due:    reconciliation.NewDue,
		Status: reconciliation.NewStatus,
	}

	if err := s.clientRepo.ApplyPayment(ctx, clientID, expectedPaid, update, *record); err != nil {
		telemetry.RecordError(span, err)
		if err == shared.ErrNotFound || err == shared.ErrConcurrencyConflict {
			return nil, err
		}
		return nil, fmt.Errorf("failed to apply payment: %w", err)
	}

	telemetry.AddEvent(span, "payment_recorded",
		"payment_id", record.ID.String(),
		"new_paid", reconciliation.NewPaid.String(),
		"new_due", reconciliation.NewDue.String(),
	)
	telemetry.SetOK(span)

	return &PaymentResult{
		ClientID:      clientID,
		PaymentID:     record.ID,
		Amount:        record.Amount,
		NewPaid:       reconciliation.NewPaid,
		NewDue:        reconciliation.NewDue,
		PaymentStatus: reconciliation.NewStatus.String(),
	}, nil
}
