package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/shopper/internal/domain"
	"github.com/utafrali/shopper/internal/metrics"
	"github.com/utafrali/shopper/internal/repository"
	apperrors "github.com/utafrali/shopper/pkg/errors"
)

// ProductService implements the catalog and the seller and moderator
// product operations.
type ProductService struct {
	products  repository.ProductRepository
	payments  repository.PaymentRepository
	publisher EventPublisher
	searcher  ProductSearcher
	logger    *slog.Logger
	now       func() time.Time
}

// NewProductService creates a new product service.
func NewProductService(
	products repository.ProductRepository,
	payments repository.PaymentRepository,
	publisher EventPublisher,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		products:  products,
		payments:  payments,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// WithSearcher answers catalog searches from idx and keeps it in step with
// moderation and seller edits. The repository filter stays the fallback.
func (s *ProductService) WithSearcher(idx ProductSearcher) *ProductService {
	s.searcher = idx
	return s
}

// ProductInput holds the seller-editable product fields.
type ProductInput struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Category    string  `json:"category" validate:"required,max=100"`
	Description string  `json:"description" validate:"max=5000"`
	Image       string  `json:"image" validate:"omitempty,url"`
	Price       float64 `json:"price" validate:"gte=0"`
	Quantity    int     `json:"quantity" validate:"gte=0"`
}

// List returns approved products matching filter and the size of the match set.
func (s *ProductService) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	if filter.Sort == "" {
		filter.Sort = domain.SortNone
	}
	if filter.Category == "" {
		filter.Category = domain.CategoryAll
	}
	if err := filter.Validate(); err != nil {
		return nil, 0, apperrors.InvalidInput(err.Error())
	}

	if s.searcher != nil && filter.Search != "" {
		products, total, err := s.search(ctx, filter)
		if err == nil {
			return products, total, nil
		}
		metrics.SearchFallbacks.Inc()
		s.logger.WarnContext(ctx, "product search failed, using repository filter",
			slog.String("search", filter.Search),
			slog.String("error", err.Error()),
		)
	}

	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// search runs filter against the index and loads the hits from the
// repository. Any hit the repository no longer agrees with fails the search.
func (s *ProductService) search(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	ids, total, err := s.searcher.Search(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if !filter.Paginated() && len(ids) < total {
		return nil, 0, fmt.Errorf("search returned %d of %d matches", len(ids), total)
	}
	if len(ids) == 0 {
		return []domain.Product{}, total, nil
	}

	found, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("load searched products: %w", err)
	}
	byID := make(map[string]domain.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	products := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok || !filter.Matches(&p) {
			return nil, 0, fmt.Errorf("search index is stale for product %s", id)
		}
		products = append(products, p)
	}
	return products, total, nil
}

// Reindex loads every approved product into the search index.
func (s *ProductService) Reindex(ctx context.Context) (int, error) {
	if s.searcher == nil {
		return 0, nil
	}
	products, err := s.products.ListByStatus(ctx, domain.ProductStatusApprove)
	if err != nil {
		return 0, fmt.Errorf("list approved products: %w", err)
	}
	if err := s.searcher.BulkIndex(ctx, products); err != nil {
		return 0, fmt.Errorf("reindex products: %w", err)
	}
	return len(products), nil
}

// syncIndex keeps approved products indexed and everything else out.
// Failures are logged; the next Reindex repairs them.
func (s *ProductService) syncIndex(ctx context.Context, p *domain.Product) {
	if s.searcher == nil {
		return
	}
	if p.Status == domain.ProductStatusApprove {
		s.logIndexError(ctx, p.ID, s.searcher.Index(ctx, p))
		return
	}
	s.logIndexError(ctx, p.ID, s.searcher.Delete(ctx, p.ID))
}

func (s *ProductService) logIndexError(ctx context.Context, id string, err error) {
	if err == nil {
		return
	}
	s.logger.WarnContext(ctx, "failed to sync product search index",
		slog.String("product_id", id),
		slog.String("error", err.Error()),
	)
}

// Latest returns the newest approved products.
func (s *ProductService) Latest(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.Latest(ctx, domain.LatestProductsLimit)
	if err != nil {
		return nil, fmt.Errorf("latest products: %w", err)
	}
	return products, nil
}

// TopSelling returns the most purchased products. Products deleted since
// purchase are skipped after the limit is applied.
func (s *ProductService) TopSelling(ctx context.Context) ([]domain.TopSellingProduct, error) {
	refs, err := s.payments.ProductRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("top selling: %w", err)
	}

	counts := domain.TopSelling(refs, domain.TopSellingLimit)
	if len(counts) == 0 {
		return []domain.TopSellingProduct{}, nil
	}

	ids := make([]string, len(counts))
	for i, c := range counts {
		ids[i] = c.ProductID
	}
	found, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("top selling products: %w", err)
	}
	byID := make(map[string]domain.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	top := make([]domain.TopSellingProduct, 0, len(counts))
	for _, c := range counts {
		p, ok := byID[c.ProductID]
		if !ok {
			continue
		}
		top = append(top, domain.TopSellingProduct{Product: p, Sold: c.Count})
	}
	return top, nil
}

// Get returns one product in any status.
func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	if err := ValidateID("product id", id); err != nil {
		return nil, err
	}
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// ListByOwner returns the seller's products.
func (s *ProductService) ListByOwner(ctx context.Context, owner string) ([]domain.Product, error) {
	products, err := s.products.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list owner products: %w", err)
	}
	return products, nil
}

// Create adds a product owned by owner. New products wait for moderation.
func (s *ProductService) Create(ctx context.Context, owner, ownerName string, in ProductInput) (*domain.Product, error) {
	now := s.now().UTC()
	p := &domain.Product{
		ID:          uuid.New().String(),
		OwnerEmail:  owner,
		OwnerName:   ownerName,
		Name:        strings.TrimSpace(in.Name),
		Category:    strings.TrimSpace(in.Category),
		Description: in.Description,
		Image:       in.Image,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Status:      domain.ProductStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}

	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", p.ID),
		slog.String("owner", owner),
	)
	return p, nil
}

// Update replaces the editable fields of a product owned by owner.
func (s *ProductService) Update(ctx context.Context, owner, id string, in ProductInput) (*domain.Product, error) {
	p, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	p.Name = strings.TrimSpace(in.Name)
	p.Category = strings.TrimSpace(in.Category)
	p.Description = in.Description
	p.Image = in.Image
	p.Price = in.Price
	p.Quantity = in.Quantity
	p.UpdatedAt = s.now().UTC()

	if err := s.products.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.syncIndex(ctx, p)
	return p, nil
}

// Delete removes a product owned by owner.
func (s *ProductService) Delete(ctx context.Context, owner, id string) error {
	p, err := s.owned(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if s.searcher != nil && p.Status == domain.ProductStatusApprove {
		s.logIndexError(ctx, id, s.searcher.Delete(ctx, id))
	}
	s.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", id),
		slog.String("owner", owner),
	)
	return nil
}

func (s *ProductService) owned(ctx context.Context, owner, id string) (*domain.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.OwnedBy(owner) {
		return nil, apperrors.Forbidden("product belongs to another seller")
	}
	return p, nil
}

// ModerationQueue lists products in status, or every product when status is empty.
func (s *ProductService) ModerationQueue(ctx context.Context, status string) ([]domain.Product, error) {
	if status != "" && !domain.IsValidProductStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q, must be one of: %s",
			status, strings.Join(domain.ValidProductStatuses(), ", ")))
	}
	products, err := s.products.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list products by status: %w", err)
	}
	return products, nil
}

// Moderate decides a pending product. Decisions are final.
func (s *ProductService) Moderate(ctx context.Context, moderator, id, status string) (*domain.Product, error) {
	if status != domain.ProductStatusApprove && status != domain.ProductStatusReject {
		return nil, apperrors.InvalidInput(fmt.Sprintf("status must be %s or %s",
			domain.ProductStatusApprove, domain.ProductStatusReject))
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanTransitionTo(status) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot move product from %q to %q", p.Status, status))
	}

	old := p.Status
	if err := s.products.UpdateStatus(ctx, id, old, status); err != nil {
		return nil, fmt.Errorf("moderate product: %w", err)
	}

	logPublishError(ctx, s.logger, "product.status_changed", id,
		s.publisher.PublishProductStatusChanged(ctx, id, old, status, moderator))

	s.logger.InfoContext(ctx, "product moderated",
		slog.String("product_id", id),
		slog.String("old_status", old),
		slog.String("new_status", status),
	)

	p.Status = status
	s.syncIndex(ctx, p)
	return p, nil
}
