package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clientms/backend/internal/domain/ledger"
	"github.com/clientms/backend/internal/domain/shared"
	"github.com/clientms/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// clientSortColumns whitelists columns accepted for ordering client listings
var clientSortColumns = map[string]bool{
	"created_at":     true,
	"updated_at":     true,
	"client_name":    true,
	"amount":         true,
	"paid":           true,
	"due":            true,
	"payment_status": true,
}

// GormClientRepository implements ledger.ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// Insert persists a newly created client
func (r *GormClientRepository) Insert(ctx context.Context, client *ledger.Client) error {
	var model models.ClientModel
	model.FromDomain(client)

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	return nil
}

// FindByID finds a client by its ID
func (r *GormClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Client, error) {
	var model models.ClientModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all clients matching the filter
func (r *GormClientRepository) FindAll(ctx context.Context, filter shared.Filter) ([]ledger.Client, error) {
	var clientModels []models.ClientModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ClientModel{}), filter)

	if err := query.Find(&clientModels).Error; err != nil {
		return nil, err
	}

	clients := make([]ledger.Client, len(clientModels))
	for i, model := range clientModels {
		clients[i] = *model.ToDomain()
	}
	return clients, nil
}

// Count returns the number of clients matching the filter
func (r *GormClientRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.ClientModel{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ApplyPayment atomically writes the reconciled balance and appends the
// payment record to the JSONB ledger. The WHERE clause compares the stored
// paid value against the one observed at reconciliation time, so a
// concurrent writer makes this statement touch zero rows instead of
// clobbering its update.
func (r *GormClientRepository) ApplyPayment(
	ctx context.Context,
	id uuid.UUID,
	expectedPaid decimal.Decimal,
	update ledger.BalanceUpdate,
	record ledger.PaymentRecord,
) error {
	payload, err := json.Marshal(ledger.PaymentRecords{record})
	if err != nil {
		return fmt.Errorf("failed to encode payment record: %w", err)
	}

	result := r.db.WithContext(ctx).Model(&models.ClientModel{}).
		Where("id = ? AND paid = ?", id, expectedPaid).
		Updates(map[string]interface{}{
			"paid":            update.Paid,
			"due":             update.Due,
			"payment_status":  update.Status.String(),
			"payment_history": gorm.Expr("COALESCE(payment_history, '[]'::jsonb) || ?::jsonb", string(payload)),
			"version":         gorm.Expr("version + 1"),
			"updated_at":      time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		// Either the client vanished or someone moved the balance first
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.ClientModel{}).
			Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}

	return nil
}

// summaryRow receives the aggregate select
type summaryRow struct {
	TotalClients int64
	TotalAmount  decimal.Decimal
	TotalPaid    decimal.Decimal
	TotalDue     decimal.Decimal
}

// Summarize aggregates portfolio totals over clients matching the filter
func (r *GormClientRepository) Summarize(ctx context.Context, filter shared.Filter) (*ledger.Summary, error) {
	var row summaryRow
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.ClientModel{}), filter)

	err := query.Select(
		"COUNT(*) as total_clients, " +
			"COALESCE(SUM(amount), 0) as total_amount, " +
			"COALESCE(SUM(paid), 0) as total_paid, " +
			"COALESCE(SUM(due), 0) as total_due",
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &ledger.Summary{
		TotalClients: row.TotalClients,
		TotalAmount:  row.TotalAmount.Round(2),
		TotalPaid:    row.TotalPaid.Round(2),
		TotalDue:     row.TotalDue.Round(2),
	}, nil
}

func (r *GormClientRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := "created_at"
	if filter.OrderBy != "" && clientSortColumns[filter.OrderBy] {
		orderBy = filter.OrderBy
	}
	orderDir := "DESC"
	if strings.ToLower(filter.OrderDir) == "asc" {
		orderDir = "ASC"
	}
	query = query.Order(orderBy + " " + orderDir)

	return query
}

func (r *GormClientRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("client_name ILIKE ? OR phone ILIKE ?", searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "payment_status":
			query = query.Where("payment_status = ?", value)
		case "category":
			query = query.Where("category = ?", value)
		}
	}

	return query
}

var _ ledger.ClientRepository = (*GormClientRepository)(nil)
