// Package service holds the shopper use cases. Services validate input,
// enforce ownership and state machines, and delegate storage to the
// repository interfaces.
package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/utafrali/shopper/internal/domain"
	apperrors "github.com/utafrali/shopper/pkg/errors"
)

// EventPublisher publishes domain events. Publishing failures are logged and
// never fail the operation that produced the event.
type EventPublisher interface {
	PublishPaymentRecorded(ctx context.Context, p *domain.Payment) error
	PublishReviewCreated(ctx context.Context, r *domain.Review) error
	PublishOrderStatusChanged(ctx context.Context, id, oldStatus, newStatus, by string) error
	PublishProductStatusChanged(ctx context.Context, id, oldStatus, newStatus, by string) error
}

// ProductSearcher mirrors approved products into a search index and answers
// catalog queries from it.
type ProductSearcher interface {
	Index(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
	BulkIndex(ctx context.Context, products []domain.Product) error

	// Search returns matching product ids in filter order and the size of
	// the whole match set.
	Search(ctx context.Context, filter domain.ProductFilter) ([]string, int, error)
}

// ValidateID rejects ids that are not UUIDs.
func ValidateID(field, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.InvalidInput(field + " must be a valid UUID")
	}
	return nil
}

func logPublishError(ctx context.Context, logger *slog.Logger, event, id string, err error) {
	if err == nil {
		return
	}
	logger.ErrorContext(ctx, "failed to publish "+event+" event",
		slog.String("aggregate_id", id),
		slog.String("error", err.Error()),
	)
}
