package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentRecord represents a single payment applied to a client balance.
// It is a value object within the Client aggregate, stored as JSONB.
type PaymentRecord struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
	Notes     string          `json:"notes,omitempty"`
}

// NewPaymentRecord creates a new payment record stamped with the current time
func NewPaymentRecord(amount decimal.Decimal, notes string) *PaymentRecord {
	return &PaymentRecord{
		ID:        uuid.New(),
		Amount:    amount,
		Timestamp: time.Now().UTC(),
		Notes:     notes,
	}
}

// PaymentRecords is a slice of PaymentRecord that implements GORM Scanner/Valuer for JSONB storage
type PaymentRecords []PaymentRecord

// Value implements driver.Valuer interface for GORM to store as JSONB
func (p PaymentRecords) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (p *PaymentRecords) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentRecords{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan PaymentRecords: unsupported type")
	}

	if len(bytes) == 0 {
		*p = PaymentRecords{}
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// Total returns the sum of all recorded payment amounts
func (p PaymentRecords) Total() decimal.Decimal {
	total := decimal.Zero
	for _, r := range p {
		total = total.Add(r.Amount)
	}
	return total
}

// SortedByTimestamp returns a copy of the records ordered oldest first.
// Records are appended in order, but reads re-sort so callers always see
// chronological history even if stored order was ever disturbed.
func (p PaymentRecords) SortedByTimestamp() PaymentRecords {
	sorted := make(PaymentRecords, len(p))
	copy(sorted, p)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}
