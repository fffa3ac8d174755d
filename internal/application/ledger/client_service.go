package ledger

import (
	"context"

	"github.com/clientms/backend/internal/domain/ledger"
	"github.com/clientms/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ClientService handles client registration and queries
type ClientService struct {
	clientRepo ledger.ClientRepository
}

// NewClientService creates a new ClientService
func NewClientService(clientRepo ledger.ClientRepository) *ClientService {
	return &ClientService{
		clientRepo: clientRepo,
	}
}

// Create registers a new client. The outstanding balance and payment status
// are derived server-side; an initial paid amount seeds the ledger.
func (s *ClientService) Create(ctx context.Context, req CreateClientRequest) (*ClientDetailResponse, error) {
	client, err := ledger.NewClient(
		req.ClientName,
		req.Project,
		req.Category,
		req.Phone,
		req.Email,
		req.Amount,
		req.Paid,
	)
	if err != nil {
		return nil, err
	}

	if err := s.clientRepo.Insert(ctx, client); err != nil {
		return nil, err
	}

	response := ToClientDetailResponse(client)
	return &response, nil
}

// GetByID retrieves a client with its full payment history
func (s *ClientService) GetByID(ctx context.Context, id uuid.UUID) (*ClientDetailResponse, error) {
	client, err := s.clientRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	response := ToClientDetailResponse(client)
	return &response, nil
}

// List retrieves clients with filtering and pagination
func (s *ClientService) List(ctx context.Context, filter ClientListFilter) (*shared.Paginated[ClientResponse], error) {
	repoFilter := s.buildFilter(filter)

	clients, err := s.clientRepo.FindAll(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	total, err := s.clientRepo.Count(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	items := make([]ClientResponse, len(clients))
	for i := range clients {
		items[i] = ToClientResponse(&clients[i])
	}

	result := shared.NewPaginated(items, total, repoFilter.Page, repoFilter.PageSize)
	return &result, nil
}

func (s *ClientService) buildFilter(filter ClientListFilter) shared.Filter {
	repoFilter := shared.DefaultFilter()

	if filter.Page > 0 {
		repoFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		repoFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		repoFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		repoFilter.OrderDir = filter.OrderDir
	}
	repoFilter.Search = filter.Search

	if filter.PaymentStatus != "" {
		repoFilter.Filters["payment_status"] = filter.PaymentStatus
	}
	if filter.Category != "" {
		repoFilter.Filters["category"] = filter.Category
	}

	return repoFilter
}
