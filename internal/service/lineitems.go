package service

import (
	"context"
	"fmt"

	"github.com/exotrack/exotrack-console/internal/api"
	"github.com/exotrack/exotrack-console/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// LineItemService serves one of the three line-item collections (assets,
// incomes, liabilities). They share wire shape and behavior; only the
// endpoint root differs, so one service covers all three.
type LineItemService struct {
	client *api.Client
	root   string
	kind   domain.ItemKind
	logger *zap.Logger
}

func newLineItemService(client *api.Client, kind domain.ItemKind, logger *zap.Logger) *LineItemService {
	return &LineItemService{
		client: client,
		root:   "/" + string(kind),
		kind:   kind,
		logger: logger,
	}
}

// NewAssetService creates the service for /assets.
func NewAssetService(client *api.Client, logger *zap.Logger) *LineItemService {
	return newLineItemService(client, domain.KindAsset, logger)
}

// NewIncomeService creates the service for /incomes.
func NewIncomeService(client *api.Client, logger *zap.Logger) *LineItemService {
	return newLineItemService(client, domain.KindIncome, logger)
}

// NewLiabilityService creates the service for /liabilities.
func NewLiabilityService(client *api.Client, logger *zap.Logger) *LineItemService {
	return newLineItemService(client, domain.KindLiability, logger)
}

// Kind reports which collection this service targets.
func (s *LineItemService) Kind() domain.ItemKind { return s.kind }

// FindAllWithPagination fetches one page of items. A non-empty declarationID
// narrows the listing to one declaration's rows.
func (s *LineItemService) FindAllWithPagination(ctx context.Context, q domain.PageQuery, declarationID string) (domain.Page[domain.LineItem], error) {
	ctx, span := tracer.Start(ctx, fmt.Sprintf("LineItemService.FindAllWithPagination %s", s.kind))
	defer span.End()
	span.SetAttributes(attribute.Int("limit", q.Limit), attribute.Int("offset", q.Offset))

	values := q.Values()
	if declarationID != "" {
		values.Set("declarationId", declarationID)
	}

	var page domain.Page[domain.LineItem]
	err := s.client.Get(ctx, s.root+"?"+values.Encode(), &page)
	return page, err
}

// FindAll returns a bare slice of one page of items.
func (s *LineItemService) FindAll(ctx context.Context, q *domain.PageQuery, declarationID string) ([]domain.LineItem, error) {
	query := domain.PageQuery{}
	if q != nil {
		query = *q
	}
	page, err := s.FindAllWithPagination(ctx, query, declarationID)
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}

// FindAllByDeclaration sweeps every item on one declaration.
func (s *LineItemService) FindAllByDeclaration(ctx context.Context, declarationID string) ([]domain.LineItem, error) {
	var all []domain.LineItem
	offset := 0
	for {
		page, err := s.FindAllWithPagination(ctx, domain.PageQuery{Limit: sweepPageSize, Offset: offset}, declarationID)
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

// FindOne fetches a single item by id.
func (s *LineItemService) FindOne(ctx context.Context, id string) (*domain.LineItem, error) {
	var item domain.LineItem
	if err := s.client.Get(ctx, s.root+"/"+id, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create adds an item to a declaration.
func (s *LineItemService) Create(ctx context.Context, req domain.CreateLineItemRequest) (*domain.LineItem, error) {
	if req.Source == "" {
		req.Source = domain.SourceManual
	}

	var item domain.LineItem
	if err := s.client.Post(ctx, s.root, req, &item); err != nil {
		return nil, err
	}
	s.logger.Info("line item created",
		zap.String("kind", string(s.kind)),
		zap.String("item_id", item.ID),
	)
	return &item, nil
}

// lineItemUpdatePayload is the mutable subset of a line item. The owning
// declaration and the data source are fixed at creation; sending them on
// update is rejected by the backend's validation.
type lineItemUpdatePayload struct {
	Concept string        `json:"concept"`
	Amount  domain.Amount `json:"amount"`
}

// Update sends only concept and amount, regardless of what the caller
// populated on the item.
func (s *LineItemService) Update(ctx context.Context, id string, item domain.LineItem) (*domain.LineItem, error) {
	payload := lineItemUpdatePayload{
		Concept: item.Concept,
		Amount:  item.Amount,
	}

	var updated domain.LineItem
	if err := s.client.Put(ctx, s.root+"/"+id, payload, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Remove deletes an item.
func (s *LineItemService) Remove(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, s.root+"/"+id); err != nil {
		return fmt.Errorf("delete %s item %s: %w", s.kind, id, err)
	}
	s.logger.Info("line item deleted",
		zap.String("kind", string(s.kind)),
		zap.String("item_id", id),
	)
	return nil
}
