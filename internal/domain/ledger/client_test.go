package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/clientms/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, amount, paid string) *Client {
	t.Helper()
	c, err := NewClient("Acme Corp", "Website redesign", "Design", "13800138000", "acme@example.com", d(amount), d(paid))
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	t.Run("derives balance for unpaid client", func(t *testing.T) {
		c := newTestClient(t, "15000", "0")

		assert.True(t, c.Due.Equal(d("15000")))
		assert.Equal(t, PaymentStatusPending, c.PaymentStatus)
		assert.Empty(t, c.PaymentHistory)
		assert.Equal(t, 1, c.Version)
	})

	t.Run("seeds ledger when created with an initial payment", func(t *testing.T) {
		c := newTestClient(t, "15000", "5000")

		assert.True(t, c.Paid.Equal(d("5000")))
		assert.True(t, c.Due.Equal(d("10000")))
		require.Len(t, c.PaymentHistory, 1)
		assert.True(t, c.PaymentHistory.Total().Equal(c.Paid))
	})

	t.Run("fully prepaid client starts completed", func(t *testing.T) {
		c := newTestClient(t, "8000", "8000")
		assert.Equal(t, PaymentStatusCompleted, c.PaymentStatus)
		assert.True(t, c.Due.IsZero())
	})

	t.Run("rejects invalid inputs", func(t *testing.T) {
		cases := []struct {
			name    string
			mutate  func() (*Client, error)
			errCode string
		}{
			{"empty name", func() (*Client, error) {
				return NewClient("", "Project", "", "", "", d("100"), d("0"))
			}, "INVALID_CLIENT_NAME"},
			{"empty project", func() (*Client, error) {
				return NewClient("Acme", "", "", "", "", d("100"), d("0"))
			}, "INVALID_PROJECT"},
			{"zero amount", func() (*Client, error) {
				return NewClient("Acme", "Project", "", "", "", d("0"), d("0"))
			}, "INVALID_AMOUNT"},
			{"negative paid", func() (*Client, error) {
				return NewClient("Acme", "Project", "", "", "", d("100"), d("-1"))
			}, "INVALID_PAID"},
			{"paid exceeds amount", func() (*Client, error) {
				return NewClient("Acme", "Project", "", "", "", d("100"), d("100.02"))
			}, "INVALID_PAID"},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := tc.mutate()
				var domainErr *shared.DomainError
				require.True(t, errors.As(err, &domainErr))
				assert.Equal(t, tc.errCode, domainErr.Code)
			})
		}
	})
}

func TestClient_RecordPayment(t *testing.T) {
	t.Run("applies payment and appends to ledger", func(t *testing.T) {
		c := newTestClient(t, "15000", "0")

		record, err := c.RecordPayment(d("5000"), "first installment")
		require.NoError(t, err)

		assert.True(t, c.Paid.Equal(d("5000")))
		assert.True(t, c.Due.Equal(d("10000")))
		assert.Equal(t, PaymentStatusPending, c.PaymentStatus)
		require.Len(t, c.PaymentHistory, 1)
		assert.Equal(t, record.ID, c.PaymentHistory[0].ID)
		assert.Equal(t, "first installment", c.PaymentHistory[0].Notes)
		assert.Equal(t, 2, c.Version)
	})

	t.Run("settles across multiple payments", func(t *testing.T) {
		c := newTestClient(t, "15000", "0")

		_, err := c.RecordPayment(d("5000"), "")
		require.NoError(t, err)
		_, err = c.RecordPayment(d("10000"), "")
		require.NoError(t, err)

		assert.True(t, c.Due.IsZero())
		assert.Equal(t, PaymentStatusCompleted, c.PaymentStatus)
		assert.True(t, c.PaymentHistory.Total().Equal(c.Amount))
	})

	t.Run("rejection leaves the aggregate untouched", func(t *testing.T) {
		c := newTestClient(t, "15000", "12000")

		_, err := c.RecordPayment(d("5000"), "")
		var overErr *OverpaymentError
		require.True(t, errors.As(err, &overErr))

		assert.True(t, c.Paid.Equal(d("12000")))
		assert.True(t, c.Due.Equal(d("3000")))
		require.Len(t, c.PaymentHistory, 1)
	})

	t.Run("invariants hold after a random-ish payment sequence", func(t *testing.T) {
		c := newTestClient(t, "1000", "0")
		payments := []string{"123.45", "0.01", "500", "376.54"}

		for _, p := range payments {
			_, err := c.RecordPayment(d(p), "")
			require.NoError(t, err)

			assert.True(t, c.PaymentHistory.Total().Round(2).Equal(c.Paid))
			assert.True(t, c.Due.Equal(decimal.Max(decimal.Zero, c.Amount.Sub(c.Paid).Round(2))))
			assert.Equal(t, c.Due.IsZero(), c.IsCompleted())
			assert.True(t, c.Paid.LessThanOrEqual(c.Amount))
		}
		assert.True(t, c.IsCompleted())
	})
}

func TestPaymentRecords_SortedByTimestamp(t *testing.T) {
	now := time.Now()
	records := PaymentRecords{
		{Amount: d("3"), Timestamp: now.Add(2 * time.Minute)},
		{Amount: d("1"), Timestamp: now},
		{Amount: d("2"), Timestamp: now.Add(time.Minute)},
	}

	sorted := records.SortedByTimestamp()

	assert.True(t, sorted[0].Amount.Equal(d("1")))
	assert.True(t, sorted[1].Amount.Equal(d("2")))
	assert.True(t, sorted[2].Amount.Equal(d("3")))
	// original slice untouched
	assert.True(t, records[0].Amount.Equal(d("3")))
}

func TestPaymentRecords_JSONBRoundTrip(t *testing.T) {
	records := PaymentRecords{*NewPaymentRecord(d("150.50"), "deposit")}

	value, err := records.Value()
	require.NoError(t, err)

	var scanned PaymentRecords
	require.NoError(t, scanned.Scan(value))
	require.Len(t, scanned, 1)
	assert.True(t, scanned[0].Amount.Equal(d("150.50")))
	assert.Equal(t, "deposit", scanned[0].Notes)
}

func TestPaymentRecords_ScanNilAndEmpty(t *testing.T) {
	var records PaymentRecords
	require.NoError(t, records.Scan(nil))
	assert.Empty(t, records)

	value, err := PaymentRecords(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", value)
}
