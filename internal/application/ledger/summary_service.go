package ledger

import (
	"context"

	"github.com/clientms/backend/internal/domain/ledger"
	"github.com/clientms/backend/internal/domain/shared"
)

// SummaryService aggregates portfolio-wide totals
type SummaryService struct {
	clientRepo ledger.ClientRepository
}

// NewSummaryService creates a new SummaryService
func NewSummaryService(clientRepo ledger.ClientRepository) *SummaryService {
	return &SummaryService{
		clientRepo: clientRepo,
	}
}

// SummaryFilter narrows the summary to a slice of the portfolio
type SummaryFilter struct {
	PaymentStatus string
	Category      string
}

// Summarize computes totals across all matching clients in a single
// aggregate query. An empty portfolio yields zero totals, not an error.
func (s *SummaryService) Summarize(ctx context.Context, filter SummaryFilter) (*ledger.Summary, error) {
	repoFilter := shared.DefaultFilter()
	if filter.PaymentStatus != "" {
		repoFilter.Filters["payment_status"] = filter.PaymentStatus
	}
	if filter.Category != "" {
		repoFilter.Filters["category"] = filter.Category
	}

	return s.clientRepo.Summarize(ctx, repoFilter)
}
