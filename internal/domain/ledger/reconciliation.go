package ledger

import (
	"fmt"

	"github.com/clientms/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentTolerance is the band within which a negative computed due is
// treated as rounding noise and clamped to zero instead of rejected.
var PaymentTolerance = decimal.NewFromFloat(0.01)

// ErrInvalidPaymentAmount rejects zero or negative payments
var ErrInvalidPaymentAmount = shared.NewDomainError("INVALID_PAYMENT_AMOUNT", "Payment amount must be positive")

// OverpaymentError indicates that a payment would push the paid total past
// the contracted amount. It carries the figures so callers can report the
// maximum allowable payment.
type OverpaymentError struct {
	NewPaid   decimal.Decimal // paid total the payment would have produced
	Amount    decimal.Decimal // contracted amount
	Attempted decimal.Decimal // the rejected payment
}

// Error implements the error interface
func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("Overpayment: Total paid (%s) exceeds amount (%s)", e.NewPaid.StringFixed(2), e.Amount.StringFixed(2))
}

// MaxAllowable returns the largest payment that would still be accepted
func (e *OverpaymentError) MaxAllowable() decimal.Decimal {
	return e.Amount.Sub(e.NewPaid.Sub(e.Attempted)).Round(2)
}

// Reconciliation is the outcome of applying a payment to a balance
type Reconciliation struct {
	NewPaid   decimal.Decimal
	NewDue    decimal.Decimal
	NewStatus PaymentStatus
}

// ComputeNewBalance derives the post-payment balance from the current paid
// and contracted amounts. Pure: no clock, no I/O, same inputs always yield
// the same outcome.
//
// All figures are rounded to 2 decimal places. A computed due that goes
// negative by no more than PaymentTolerance is clamped to zero; beyond the
// band the payment is rejected as an overpayment.
func ComputeNewBalance(currentPaid, currentAmount, payment decimal.Decimal) (*Reconciliation, error) {
	if payment.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidPaymentAmount
	}

	newPaid := currentPaid.Add(payment).Round(2)
	newDue := currentAmount.Sub(newPaid).Round(2)

	if newDue.IsNegative() {
		if newDue.Abs().LessThanOrEqual(PaymentTolerance) {
			newDue = decimal.Zero
		} else {
			return nil, &OverpaymentError{
				NewPaid:   newPaid,
				Amount:    currentAmount,
				Attempted: payment,
			}
		}
	}

	status := PaymentStatusPending
	if newDue.IsZero() {
		status = PaymentStatusCompleted
	}

	return &Reconciliation{
		NewPaid:   newPaid,
		NewDue:    newDue,
		NewStatus: status,
	}, nil
}

// DeriveBalance computes due and status from an amount/paid pair, used at
// client creation. Unlike ComputeNewBalance it accepts paid == 0. A residual
// due within the tolerance band collapses to zero so that Completed always
// coincides with due == 0.
func DeriveBalance(amount, paid decimal.Decimal) (due decimal.Decimal, status PaymentStatus) {
	due = amount.Sub(paid).Round(2)
	if due.Abs().LessThanOrEqual(PaymentTolerance) {
		due = decimal.Zero
	}
	status = PaymentStatusPending
	if due.IsZero() {
		status = PaymentStatusCompleted
	}
	return due, status
}
