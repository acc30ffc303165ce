package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/shopper/internal/domain"
	pkgkafka "github.com/utafrali/shopper/pkg/kafka"
	"github.com/utafrali/shopper/pkg/logger"
)

// Kafka topics for shopper domain events.
var (
	TopicPaymentRecorded      = pkgkafka.Topic("payment", "recorded")
	TopicReviewCreated        = pkgkafka.Topic("review", "created")
	TopicOrderStatusChanged   = pkgkafka.Topic("order", "status_changed")
	TopicProductStatusChanged = pkgkafka.Topic("product", "status_changed")
)

// Aggregate types.
const (
	AggregateTypePayment = "payment"
	AggregateTypeReview  = "review"
	AggregateTypeProduct = "product"
)

// Source identifies events produced by this service.
const Source = "shopper-api"

// PaymentRecordedData is the payload of payment.recorded. The consumer uses
// Email and CartIDs to re-run the cart cleanup.
type PaymentRecordedData struct {
	PaymentID     string   `json:"payment_id"`
	Email         string   `json:"email"`
	ProductIDs    []string `json:"product_ids"`
	CartIDs       []string `json:"cart_ids"`
	Price         float64  `json:"price"`
	TransactionID string   `json:"transaction_id"`
}

// ReviewCreatedData is the payload of review.created.
type ReviewCreatedData struct {
	ReviewID   string   `json:"review_id"`
	ProductIDs []string `json:"product_ids"`
	Rating     int      `json:"rating"`
}

// StatusChangedData is the payload of the status_changed events.
type StatusChangedData struct {
	ID        string `json:"id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	ChangedBy string `json:"changed_by"`
}

// Producer publishes shopper domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishPaymentRecorded publishes a payment.recorded event.
func (p *Producer) PublishPaymentRecorded(ctx context.Context, pay *domain.Payment) error {
	return p.publish(ctx, TopicPaymentRecorded, pay.ID, AggregateTypePayment, PaymentRecordedData{
		PaymentID:     pay.ID,
		Email:         pay.Email,
		ProductIDs:    pay.ProductIDs,
		CartIDs:       pay.CartIDs,
		Price:         pay.Price,
		TransactionID: pay.TransactionID,
	})
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, r *domain.Review) error {
	return p.publish(ctx, TopicReviewCreated, r.ID, AggregateTypeReview, ReviewCreatedData{
		ReviewID:   r.ID,
		ProductIDs: r.ProductIDs,
		Rating:     r.Rating,
	})
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, id, oldStatus, newStatus, by string) error {
	return p.publish(ctx, TopicOrderStatusChanged, id, AggregateTypePayment, StatusChangedData{
		ID: id, OldStatus: oldStatus, NewStatus: newStatus, ChangedBy: by,
	})
}

// PublishProductStatusChanged publishes a product.status_changed event.
func (p *Producer) PublishProductStatusChanged(ctx context.Context, id, oldStatus, newStatus, by string) error {
	return p.publish(ctx, TopicProductStatusChanged, id, AggregateTypeProduct, StatusChangedData{
		ID: id, OldStatus: oldStatus, NewStatus: newStatus, ChangedBy: by,
	})
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// Noop discards every event. It stands in when no broker is configured.
type Noop struct{}

func (Noop) PublishPaymentRecorded(context.Context, *domain.Payment) error { return nil }
func (Noop) PublishReviewCreated(context.Context, *domain.Review) error    { return nil }
func (Noop) PublishOrderStatusChanged(context.Context, string, string, string, string) error {
	return nil
}
func (Noop) PublishProductStatusChanged(context.Context, string, string, string, string) error {
	return nil
}
