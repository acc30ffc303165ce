package service

import (
	"context"
	"errors"
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

// ReviewService ingests reviews and keeps product ratings current.
type ReviewService struct {
	reviews   repository.ReviewRepository
	products  repository.ProductRepository
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	products repository.ProductRepository,
	publisher EventPublisher,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:   reviews,
		products:  products,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateReviewInput is the body of a review submission.
type CreateReviewInput struct {
	ProductIDs []string `json:"product_ids" validate:"required,min=1,dive,uuid"`
	Rating     int      `json:"rating" validate:"gte=1,lte=5"`
	Comment    string   `json:"comment" validate:"max=2000"`
}

// ReviewResult is a stored review with the ratings it produced.
type ReviewResult struct {
	Review  *domain.Review         `json:"review"`
	Ratings []domain.RatingSummary `json:"ratings"`
}

// Create stores a review and recomputes the rating of every product it names.
func (s *ReviewService) Create(ctx context.Context, author, authorName string, in CreateReviewInput) (*ReviewResult, error) {
	if in.Rating < domain.MinRating || in.Rating > domain.MaxRating {
		return nil, apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}

	ids := uniqueIDs(in.ProductIDs)
	if len(ids) == 0 {
		return nil, apperrors.InvalidInput("product_ids must not be empty")
	}
	found, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get reviewed products: %w", err)
	}
	if len(found) != len(ids) {
		return nil, apperrors.NotFound("product", missingID(ids, found))
	}

	r := &domain.Review{
		ID:          uuid.New().String(),
		ProductIDs:  ids,
		Rating:      in.Rating,
		AuthorEmail: author,
		AuthorName:  authorName,
		Comment:     strings.TrimSpace(in.Comment),
		CreatedAt:   s.now().UTC(),
	}

	ratings, err := s.reviews.Ingest(ctx, r)
	if err != nil {
		if !errors.Is(err, repository.ErrPartialWrite) {
			return nil, fmt.Errorf("ingest review: %w", err)
		}
		s.logger.WarnContext(ctx, "review stored with pending rating recompute",
			slog.String("review_id", r.ID),
			slog.String("error", err.Error()),
		)
	}
	if ratings == nil {
		ratings = []domain.RatingSummary{}
	}
	metrics.ReviewsIngested.Inc()

	logPublishError(ctx, s.logger, "review.created", r.ID, s.publisher.PublishReviewCreated(ctx, r))

	s.logger.InfoContext(ctx, "review ingested",
		slog.String("review_id", r.ID),
		slog.Int("products", len(ids)),
		slog.Int("rating", r.Rating),
	)
	return &ReviewResult{Review: r, Ratings: ratings}, nil
}

// ListByProduct returns a product's reviews.
func (s *ReviewService) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	if err := ValidateID("product id", productID); err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func missingID(ids []string, found []domain.Product) string {
	have := make(map[string]bool, len(found))
	for _, p := range found {
		have[p.ID] = true
	}
	for _, id := range ids {
		if !have[id] {
			return id
		}
	}
	return ""
}
