package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/exotrack/exotrack-console/internal/api"
	"github.com/exotrack/exotrack-console/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// sweepPageSize is the page size used when a method needs every record of a
// collection rather than one page.
const sweepPageSize = 100

// DeclarationService manages yearly tax declarations.
type DeclarationService struct {
	client *api.Client
	logger *zap.Logger
}

// NewDeclarationService creates a declaration service.
func NewDeclarationService(client *api.Client, logger *zap.Logger) *DeclarationService {
	return &DeclarationService{client: client, logger: logger}
}

// FindAllWithPagination fetches one page of declarations. A non-empty userID
// narrows the listing to that customer's declarations.
func (s *DeclarationService) FindAllWithPagination(ctx context.Context, q domain.PageQuery, userID string) (domain.Page[domain.Declaration], error) {
	ctx, span := tracer.Start(ctx, "DeclarationService.FindAllWithPagination")
	defer span.End()
	span.SetAttributes(attribute.Int("limit", q.Limit), attribute.Int("offset", q.Offset))

	values := q.Values()
	if userID != "" {
		values.Set("userId", userID)
	}

	var page domain.Page[domain.Declaration]
	err := s.client.Get(ctx, "/declarations?"+values.Encode(), &page)
	return page, err
}

// FindAll returns a bare slice of one page of declarations.
func (s *DeclarationService) FindAll(ctx context.Context, q *domain.PageQuery, userID string) ([]domain.Declaration, error) {
	query := domain.PageQuery{}
	if q != nil {
		query = *q
	}
	page, err := s.FindAllWithPagination(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}

// FindAllByUser sweeps every declaration belonging to one customer,
// paging through the collection until the reported total is reached.
func (s *DeclarationService) FindAllByUser(ctx context.Context, userID string) ([]domain.Declaration, error) {
	ctx, span := tracer.Start(ctx, "DeclarationService.FindAllByUser")
	defer span.End()

	var all []domain.Declaration
	offset := 0
	for {
		page, err := s.FindAllWithPagination(ctx, domain.PageQuery{Limit: sweepPageSize, Offset: offset}, userID)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Data...)
		offset += sweepPageSize
		if offset >= page.Total || len(page.Data) == 0 {
			return all, nil
		}
	}
}

// FindOne fetches a single declaration by id.
func (s *DeclarationService) FindOne(ctx context.Context, id string) (*domain.Declaration, error) {
	var decl domain.Declaration
	if err := s.client.Get(ctx, "/declarations/"+id, &decl); err != nil {
		return nil, err
	}
	return &decl, nil
}

// Create opens a new declaration for a customer.
func (s *DeclarationService) Create(ctx context.Context, req domain.CreateDeclarationRequest) (*domain.Declaration, error) {
	if req.TaxableYear < domain.MinTaxableYear || req.TaxableYear > domain.MaxTaxableYear {
		return nil, fmt.Errorf("taxable year %d out of range [%d, %d]",
			req.TaxableYear, domain.MinTaxableYear, domain.MaxTaxableYear)
	}

	var decl domain.Declaration
	if err := s.client.Post(ctx, "/declarations", req, &decl); err != nil {
		return nil, err
	}
	s.logger.Info("declaration created",
		zap.String("declaration_id", decl.ID),
		zap.Int("taxable_year", decl.TaxableYear),
	)
	return &decl, nil
}

// declarationUpdatePayload is the mutable subset of a declaration. The
// owning user and taxable year are fixed at creation.
type declarationUpdatePayload struct {
	Status      domain.DeclarationStatus `json:"status"`
	Description string                   `json:"description"`
}

// Update sends the mutable fields of the declaration.
func (s *DeclarationService) Update(ctx context.Context, id string, decl domain.Declaration) (*domain.Declaration, error) {
	payload := declarationUpdatePayload{
		Status:      decl.Status,
		Description: decl.Description,
	}

	var updated domain.Declaration
	if err := s.client.Put(ctx, "/declarations/"+id, payload, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Remove deletes a declaration. The backend cascades the delete to the
// declaration's assets, incomes and liabilities.
func (s *DeclarationService) Remove(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, "/declarations/"+id); err != nil {
		return fmt.Errorf("delete declaration %s: %w", id, err)
	}
	s.logger.Info("declaration deleted", zap.String("declaration_id", id))
	return nil
}

// Stats fetches the aggregate declaration counters for the dashboard.
func (s *DeclarationService) Stats(ctx context.Context) (*domain.DeclarationStats, error) {
	var stats domain.DeclarationStats
	if err := s.client.Get(ctx, "/declarations/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// RecentActivity fetches the latest touched declarations, newest first.
func (s *DeclarationService) RecentActivity(ctx context.Context, limit int) ([]domain.ActivityEntry, error) {
	endpoint := "/declarations/recent-activity"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var entries []domain.ActivityEntry
	if err := s.client.Get(ctx, endpoint, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// UsedYears returns the taxable years a customer has already filed,
// ascending. Year pickers use it to exclude duplicates up front instead of
// bouncing off the server's uniqueness check.
func (s *DeclarationService) UsedYears(ctx context.Context, userID string) ([]int, error) {
	decls, err := s.FindAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(decls))
	var years []int
	for _, d := range decls {
		if !seen[d.TaxableYear] {
			seen[d.TaxableYear] = true
			years = append(years, d.TaxableYear)
		}
	}
	sort.Ints(years)
	return years, nil
}
