package handler

import (
	"net/http"
	"testing"

	ledgerapp "github.com/clientms/backend/internal/application/ledger"
	"github.com/clientms/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newPaymentRouter(repo *mockClientRepo) *gin.Engine {
	r := newTestEngine()
	h := NewPaymentHandler(ledgerapp.NewPaymentService(repo))
	r.POST("/api/v1/ledger/payments", h.Record)
	return r
}

func TestPaymentHandler_Record(t *testing.T) {
	t.Run("records payment and returns new balance", func(t *testing.T) {
		repo := new(mockClientRepo)
		client := mustClient(t, "Acme Corp", "15000", "0")
		repo.On("FindByID", mock.Anything, client.ID).Return(client, nil)
		repo.On("ApplyPayment", mock.Anything, client.ID, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		r := newPaymentRouter(repo)
		w := doJSON(t, r, http.MethodPost, "/api/v1/ledger/payments", gin.H{
			"client_id": client.ID.String(),
			"amount":    5000,
			"notes":     "first installment",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		data := dataField(t, w)
		assert.Equal(t, "5000", data["new_paid"])
		assert.Equal(t, "10000", data["new_due"])
		assert.Equal(t, "Pending", data["payment_status"])
		repo.AssertExpectations(t)
	})

	t.Run("rejects malformed client id", func(t *testing.T) {
		repo := new(mockClientRepo)
		r := newPaymentRouter(repo)

		w := doJSON(t, r, http.MethodPost, "/api/v1/ledger/payments", gin.H{
			"client_id": "not-a-uuid",
			"amount":    100,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ERR_BAD_REQUEST", errorCode(t, w))
		repo.AssertNotCalled(t, "FindByID")
	})

	t.Run("rejects missing fields at binding", func(t *testing.T) {
		repo := new(mockClientRepo)
		r := newPaymentRouter(repo)

		w := doJSON(t, r, http.MethodPost, "/api/v1/ledger/payments", gin.H{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ERR_VALIDATION", errorCode(t, w))
	})

	t.Run("maps unknown client to 404", func(t *testing.T) {
		repo := new(mockClientRepo)
		repo.On("FindByID", mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)

		r := newPaymentRouter(repo)
		w := doJSON(t, r, http.MethodPost, "/api/v1/ledger/payments", gin.H{
			"client_id": "f47ac10b-58cc-4372-a567-0e02b2c3d479",
			"amount":    100,
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "ERR_NOT_FOUND", errorCode(t, w))
	})

	t.Run("maps overpayment to 422 with figures", func(t *testing.T) {
		repo := new(mockClientRepo)
		client := mustClient(t, "Acme Corp", "10000", "9000")
		repo.On("FindByID", mock.Anything, client.ID).Return(client, nil)

		r := newPaymentRouter(repo)
		w := doJSON(t, r, http.MethodPost, "/api/v1/ledger/payments", gin.H{
			"client_id": client.ID.String(),
			"amount":    2000,
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "ERR_OVERPAYMENT", errorCode(t, w))

		body := decodeBody(t, w)
		details := body["error"].(map[string]any)["details"].(map[string]any)
		assert.Equal(t, "1000", details["max_allowable"])
		repo.AssertNotCalled(t, "ApplyPayment")
	})

	t.Run("maps rejected non-positive amount to 400", func(t *testing.T) {
		repo := new(mockClientRepo)
		client := mustClient(t, "Acme Corp", "10000", "0")
		repo.On("FindByID", mock.Anything, client.ID).Return(client, nil)

		r := newPaymentRouter(repo)
		w := doJSON(t, r, http.MethodPost, "/api/v1/ledger/payments", gin.H{
			"client_id": client.ID.String(),
			"amount":    -50,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ERR_VALIDATION", errorCode(t, w))
	})

	t.Run("maps lost write race to 409", func(t *testing.T) {
		repo := new(mockClientRepo)
		client := mustClient(t, "Acme Corp", "10000", "0")
		repo.On("FindByID", mock.Anything, client.ID).Return(client, nil)
		repo.On("ApplyPayment", mock.Anything, client.ID, mock.Anything, mock.Anything, mock.Anything).
			Return(shared.ErrConcurrencyConflict)

		r := newPaymentRouter(repo)
		w := doJSON(t, r, http.MethodPost, "/api/v1/ledger/payments", gin.H{
			"client_id": client.ID.String(),
			"amount":    100,
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "ERR_CONCURRENCY_CONFLICT", errorCode(t, w))
	})
}
