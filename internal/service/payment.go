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
	"github.com/utafrali/shopper/internal/provider"
	"github.com/utafrali/shopper/internal/repository"
	apperrors "github.com/utafrali/shopper/pkg/errors"
)

// IdempotencyStore reserves payment submission keys.
type IdempotencyStore interface {
	// Reserve claims key. When the key already completed it returns the
	// recorded payment id and false.
	Reserve(ctx context.Context, key string) (paymentID string, reserved bool, err error)
	Complete(ctx context.Context, key, paymentID string) error
	Release(ctx context.Context, key string) error
}

// PaymentConfig controls payment finalization.
type PaymentConfig struct {
	// Verify checks every transaction with the provider before recording it.
	Verify   bool
	Currency string
}

// PaymentService opens payment intents and records verified payments.
type PaymentService struct {
	payments  repository.PaymentRepository
	provider  provider.Provider
	keys      IdempotencyStore
	publisher EventPublisher
	cfg       PaymentConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewPaymentService creates a new payment service. keys may be nil, in which
// case Idempotency-Key headers are ignored.
func NewPaymentService(
	payments repository.PaymentRepository,
	prov provider.Provider,
	keys IdempotencyStore,
	publisher EventPublisher,
	cfg PaymentConfig,
	logger *slog.Logger,
) *PaymentService {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &PaymentService{
		payments:  payments,
		provider:  prov,
		keys:      keys,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateIntentInput is the body of a payment intent request.
type CreateIntentInput struct {
	Price float64 `json:"price" validate:"gt=0"`
}

// SubmitPaymentInput is the body of a payment submission.
type SubmitPaymentInput struct {
	ProductIDs    []string            `json:"product_ids" validate:"required,min=1,dive,uuid"`
	CartIDs       []string            `json:"cart_ids" validate:"dive,uuid"`
	Price         float64             `json:"price" validate:"gt=0"`
	TransactionID string              `json:"transaction_id" validate:"required,max=255"`
	Delivery      domain.DeliveryInfo `json:"delivery"`
}

// CreateIntent opens a provider payment intent for price.
func (s *PaymentService) CreateIntent(ctx context.Context, price float64) (*provider.Intent, error) {
	if price <= 0 {
		return nil, apperrors.InvalidInput("price must be greater than zero")
	}

	intent, err := s.provider.CreateIntent(ctx, domain.MinorUnits(price), s.cfg.Currency)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return intent, nil
}

// Submit records a payment for email and clears the listed cart items. A
// non-empty idempotencyKey makes repeated submissions return the first
// payment; replayed reports whether that happened.
func (s *PaymentService) Submit(ctx context.Context, email, idempotencyKey string, in SubmitPaymentInput) (p *domain.Payment, replayed bool, err error) {
	if len(in.ProductIDs) == 0 {
		return nil, false, apperrors.InvalidInput("product_ids must not be empty")
	}
	if strings.TrimSpace(in.TransactionID) == "" {
		return nil, false, apperrors.InvalidInput("transaction_id is required")
	}
	if in.Price <= 0 {
		return nil, false, apperrors.InvalidInput("price must be greater than zero")
	}

	if s.keys != nil && idempotencyKey != "" {
		key := email + ":" + idempotencyKey
		var (
			existing string
			reserved bool
		)
		existing, reserved, err = s.keys.Reserve(ctx, key)
		if err != nil {
			return nil, false, fmt.Errorf("reserve idempotency key: %w", err)
		}
		if !reserved {
			p, err := s.payments.GetByID(ctx, existing)
			if err != nil {
				return nil, false, fmt.Errorf("get replayed payment: %w", err)
			}
			return p, true, nil
		}
		defer func() {
			if err != nil {
				if relErr := s.keys.Release(ctx, key); relErr != nil {
					s.logger.WarnContext(ctx, "failed to release idempotency key",
						slog.String("error", relErr.Error()))
				}
				return
			}
			if cErr := s.keys.Complete(ctx, key, p.ID); cErr != nil {
				s.logger.WarnContext(ctx, "failed to complete idempotency key",
					slog.String("payment_id", p.ID),
					slog.String("error", cErr.Error()))
			}
		}()
	}

	if s.cfg.Verify {
		if err := s.verify(ctx, in); err != nil {
			return nil, false, err
		}
	}

	p = &domain.Payment{
		ID:            uuid.New().String(),
		Email:         email,
		ProductIDs:    in.ProductIDs,
		CartIDs:       in.CartIDs,
		Price:         in.Price,
		Currency:      s.cfg.Currency,
		TransactionID: in.TransactionID,
		Status:        domain.OrderStatusPlaced,
		Delivery:      in.Delivery,
		CreatedAt:     s.now().UTC(),
	}
	if p.CartIDs == nil {
		p.CartIDs = []string{}
	}

	if err := s.payments.Record(ctx, p); err != nil {
		if !errors.Is(err, repository.ErrPartialWrite) {
			return nil, false, fmt.Errorf("record payment: %w", err)
		}
		// The payment is stored; the consumer of the event below clears the carts.
		s.logger.WarnContext(ctx, "payment recorded with pending cart cleanup",
			slog.String("payment_id", p.ID),
			slog.String("error", err.Error()),
		)
	}
	metrics.PaymentsRecorded.WithLabelValues(s.provider.Name()).Inc()

	logPublishError(ctx, s.logger, "payment.recorded", p.ID, s.publisher.PublishPaymentRecorded(ctx, p))

	s.logger.InfoContext(ctx, "payment recorded",
		slog.String("payment_id", p.ID),
		slog.String("transaction_id", p.TransactionID),
		slog.Int("products", len(p.ProductIDs)),
		slog.Int("cart_items", len(p.CartIDs)),
	)
	return p, false, nil
}

// verify checks that the provider settled the transaction for the full price.
func (s *PaymentService) verify(ctx context.Context, in SubmitPaymentInput) error {
	charge, err := s.provider.Verify(ctx, in.TransactionID)
	if err != nil {
		reason := "lookup_failed"
		if errors.Is(err, apperrors.ErrServiceUnavail) {
			reason = "provider_unavailable"
		}
		metrics.PaymentsRejected.WithLabelValues(reason).Inc()
		return fmt.Errorf("verify transaction: %w", err)
	}

	if !charge.Paid {
		metrics.PaymentsRejected.WithLabelValues("unpaid").Inc()
		return apperrors.PaymentFailed(fmt.Sprintf("transaction %s is %s", in.TransactionID, charge.Status))
	}
	if want := domain.MinorUnits(in.Price); charge.Amount != want {
		metrics.PaymentsRejected.WithLabelValues("amount_mismatch").Inc()
		return apperrors.PaymentFailed(fmt.Sprintf("charged amount %d does not match price %d", charge.Amount, want))
	}
	if charge.Currency != "" && !strings.EqualFold(charge.Currency, s.cfg.Currency) {
		metrics.PaymentsRejected.WithLabelValues("currency_mismatch").Inc()
		return apperrors.PaymentFailed(fmt.Sprintf("charged currency %s does not match %s", charge.Currency, s.cfg.Currency))
	}
	return nil
}

// History returns the payer's own payments.
func (s *PaymentService) History(ctx context.Context, email string) ([]domain.Payment, error) {
	payments, err := s.payments.ListByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("payment history: %w", err)
	}
	return payments, nil
}
