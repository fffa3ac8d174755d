package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/clientms/backend/internal/domain/ledger"
	"github.com/clientms/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockClientRepository creates a GormClientRepository with a mocked SQL connection
func newMockClientRepository(t *testing.T) (*GormClientRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormClientRepository(gormDB), mock, mockDB
}

func mustDecimal(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestGormClientRepository_FindByID(t *testing.T) {
	t.Run("finds existing client", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		clientID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "client_name", "project", "amount", "paid", "due", "payment_status", "payment_history"}).
			AddRow(clientID, "Acme Corp", "Website", mustDecimal("15000"), mustDecimal("5000"), mustDecimal("10000"), "Pending", []byte(`[]`))

		mock.ExpectQuery(`SELECT \* FROM "clients" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(clientID, 1).
			WillReturnRows(rows)

		client, err := repo.FindByID(context.Background(), clientID)

		assert.NoError(t, err)
		require.NotNil(t, client)
		assert.Equal(t, clientID, client.ID)
		assert.Equal(t, "Acme Corp", client.ClientName)
		assert.True(t, client.Due.Equal(mustDecimal("10000")))
		assert.Equal(t, ledger.PaymentStatusPending, client.PaymentStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing client", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		clientID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "clients" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(clientID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		client, err := repo.FindByID(context.Background(), clientID)

		assert.Nil(t, client)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormClientRepository_ApplyPayment(t *testing.T) {
	clientID := uuid.New()
	expectedPaid := mustDecimal("5000")
	update := ledger.BalanceUpdate{
		Paid:   mustDecimal("15000"),
		Due:    mustDecimal("0"),
		Status: ledger.PaymentStatusCompleted,
	}
	record := *ledger.NewPaymentRecord(mustDecimal("10000"), "final installment")

	t.Run("updates balance and appends history in one statement", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "clients" SET .*"payment_history"=COALESCE\(payment_history, '\[\]'::jsonb\) \|\| \$\d+::jsonb.* WHERE id = \$\d+ AND paid = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.ApplyPayment(context.Background(), clientID, expectedPaid, update, record)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps zero rows on existing client to concurrency conflict", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "clients" SET .* WHERE id = \$\d+ AND paid = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "clients" WHERE id = \$1`).
			WithArgs(clientID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		err := repo.ApplyPayment(context.Background(), clientID, expectedPaid, update, record)

		assert.Equal(t, shared.ErrConcurrencyConflict, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps zero rows on vanished client to not found", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "clients" SET .* WHERE id = \$\d+ AND paid = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "clients" WHERE id = \$1`).
			WithArgs(clientID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		err := repo.ApplyPayment(context.Background(), clientID, expectedPaid, update, record)

		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormClientRepository_FindAll(t *testing.T) {
	t.Run("applies search and status filters with pagination", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"id", "client_name", "project", "amount", "paid", "due", "payment_status", "payment_history"}).
			AddRow(uuid.New(), "Acme Corp", "Website", mustDecimal("15000"), mustDecimal("0"), mustDecimal("15000"), "Pending", []byte(`[]`))

		mock.ExpectQuery(`SELECT \* FROM "clients" WHERE \(client_name ILIKE \$1 OR phone ILIKE \$2\) AND payment_status = \$3 ORDER BY created_at DESC LIMIT .*`).
			WithArgs("%acm%", "%acm%", "Pending", 20).
			WillReturnRows(rows)

		filter := shared.DefaultFilter()
		filter.Search = "acm"
		filter.Filters["payment_status"] = "Pending"

		clients, err := repo.FindAll(context.Background(), filter)

		assert.NoError(t, err)
		require.Len(t, clients, 1)
		assert.Equal(t, "Acme Corp", clients[0].ClientName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ignores non-whitelisted sort columns", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "clients" ORDER BY created_at DESC LIMIT .*`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		filter := shared.DefaultFilter()
		filter.OrderBy = "payment_history; DROP TABLE clients"

		_, err := repo.FindAll(context.Background(), filter)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormClientRepository_Summarize(t *testing.T) {
	t.Run("aggregates totals", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"total_clients", "total_amount", "total_paid", "total_due"}).
			AddRow(3, mustDecimal("45000"), mustDecimal("20000"), mustDecimal("25000"))

		mock.ExpectQuery(`SELECT COUNT\(\*\) as total_clients, COALESCE\(SUM\(amount\), 0\) as total_amount, COALESCE\(SUM\(paid\), 0\) as total_paid, COALESCE\(SUM\(due\), 0\) as total_due FROM "clients"`).
			WillReturnRows(rows)

		summary, err := repo.Summarize(context.Background(), shared.DefaultFilter())

		assert.NoError(t, err)
		require.NotNil(t, summary)
		assert.Equal(t, int64(3), summary.TotalClients)
		assert.True(t, summary.TotalAmount.Equal(mustDecimal("45000")))
		assert.True(t, summary.TotalDue.Equal(mustDecimal("25000")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty portfolio yields zero totals", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"total_clients", "total_amount", "total_paid", "total_due"}).
			AddRow(0, mustDecimal("0"), mustDecimal("0"), mustDecimal("0"))

		mock.ExpectQuery(`SELECT COUNT\(\*\) as total_clients, .* FROM "clients"`).
			WillReturnRows(rows)

		summary, err := repo.Summarize(context.Background(), shared.DefaultFilter())

		assert.NoError(t, err)
		assert.Equal(t, int64(0), summary.TotalClients)
		assert.True(t, summary.TotalAmount.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
