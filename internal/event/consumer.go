package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/shopper/internal/metrics"
	"github.com/utafrali/shopper/internal/repository"
	pkgkafka "github.com/utafrali/shopper/pkg/kafka"
)

// Compensator re-applies the second half of multi-write flows. Both actions
// are idempotent: deleting absent cart items and recomputing a rating from a
// full scan leave the store unchanged when they already ran.
type Compensator struct {
	carts   repository.CartRepository
	reviews repository.ReviewRepository
	logger  *slog.Logger
}

// NewCompensator creates a Compensator.
func NewCompensator(carts repository.CartRepository, reviews repository.ReviewRepository, logger *slog.Logger) *Compensator {
	return &Compensator{carts: carts, reviews: reviews, logger: logger}
}

// HandlePaymentRecorded deletes the payer's cart items listed in the payment.
func (c *Compensator) HandlePaymentRecorded(ctx context.Context, e *pkgkafka.Event) error {
	var data PaymentRecordedData
	if err := e.UnmarshalData(&data); err != nil {
		return fmt.Errorf("decode %s: %w", e.EventType, err)
	}

	n, err := c.carts.DeleteByIDs(ctx, data.Email, data.CartIDs)
	if err != nil {
		return fmt.Errorf("compensate cart cleanup for payment %s: %w", data.PaymentID, err)
	}
	metrics.CompensationsApplied.WithLabelValues("cart_cleanup").Inc()

	if n > 0 {
		c.logger.WarnContext(ctx, "removed cart items left behind by a payment",
			slog.String("payment_id", data.PaymentID),
			slog.Int("deleted", n),
		)
	}
	return nil
}

// HandleReviewCreated recomputes the rating of every reviewed product.
func (c *Compensator) HandleReviewCreated(ctx context.Context, e *pkgkafka.Event) error {
	var data ReviewCreatedData
	if err := e.UnmarshalData(&data); err != nil {
		return fmt.Errorf("decode %s: %w", e.EventType, err)
	}

	for _, id := range data.ProductIDs {
		if _, err := c.reviews.Recompute(ctx, id); err != nil {
			return fmt.Errorf("compensate rating of product %s: %w", id, err)
		}
	}
	metrics.CompensationsApplied.WithLabelValues("rating_recompute").Inc()
	return nil
}

// ConsumerConfig configures the compensation consumers.
type ConsumerConfig struct {
	Brokers []string
	GroupID string
}

// NewConsumers builds one consumer per compensated topic. Each handler skips
// events already processed according to store and sends poison messages to dlq.
func NewConsumers(
	cfg ConsumerConfig,
	c *Compensator,
	store pkgkafka.IdempotencyStore,
	dlq *pkgkafka.DLQProducer,
	logger *slog.Logger,
) []*pkgkafka.Consumer {
	handlers := map[string]pkgkafka.Handler{
		TopicPaymentRecorded: c.HandlePaymentRecorded,
		TopicReviewCreated:   c.HandleReviewCreated,
	}

	consumers := make([]*pkgkafka.Consumer, 0, len(handlers))
	for _, topic := range []string{TopicPaymentRecorded, TopicReviewCreated} {
		consumer := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers: cfg.Brokers,
			GroupID: cfg.GroupID,
			Topic:   topic,
		}, pkgkafka.IdempotentHandler(store, handlers[topic], logger), logger)
		if dlq != nil {
			consumer.WithDLQ(dlq)
		}
		consumers = append(consumers, consumer)
	}
	return consumers
}
