package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/utafrali/shopper/internal/domain"
	"github.com/utafrali/shopper/internal/repository"
	apperrors "github.com/utafrali/shopper/pkg/errors"
)

// OrderService answers the seller order and statistics queries. Payments
// double as the orders sellers fulfil.
type OrderService struct {
	payments  repository.PaymentRepository
	products  repository.ProductRepository
	publisher EventPublisher
	logger    *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	payments repository.PaymentRepository,
	products repository.ProductRepository,
	publisher EventPublisher,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		payments:  payments,
		products:  products,
		publisher: publisher,
		logger:    logger,
	}
}

// SellerOrders returns the payments holding seller's products, newest first,
// each with the seller's products it contains.
func (s *OrderService) SellerOrders(ctx context.Context, seller string, state repository.OrderState) ([]domain.SellerOrder, error) {
	lines, err := s.payments.SellerLines(ctx, repository.NewSellerOrderPlan(seller, state))
	if err != nil {
		return nil, fmt.Errorf("seller orders: %w", err)
	}
	return domain.GroupSellerOrders(lines), nil
}

// UpdateStatus moves an order forward. The seller must own at least one of
// the order's products.
func (s *OrderService) UpdateStatus(ctx context.Context, seller, id, status string) (*domain.Payment, error) {
	if err := ValidateID("order id", id); err != nil {
		return nil, err
	}
	if !domain.IsValidOrderStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q, must be one of: %s",
			status, strings.Join(domain.ValidOrderStatuses(), ", ")))
	}

	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	products, err := s.products.GetByIDs(ctx, p.ProductIDs)
	if err != nil {
		return nil, fmt.Errorf("get order products: %w", err)
	}
	owns := false
	for i := range products {
		if products[i].OwnedBy(seller) {
			owns = true
			break
		}
	}
	if !owns {
		return nil, apperrors.Forbidden("order contains none of your products")
	}

	if !p.CanTransitionTo(status) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot move order from %q to %q", p.Status, status))
	}

	old := p.Status
	if err := s.payments.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	logPublishError(ctx, s.logger, "order.status_changed", id,
		s.publisher.PublishOrderStatusChanged(ctx, id, old, status, seller))

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", id),
		slog.String("old_status", old),
		slog.String("new_status", status),
	)

	p.Status = status
	return p, nil
}

// Activity returns the seller dashboard counters. The product count and the
// order join run concurrently.
func (s *OrderService) Activity(ctx context.Context, seller string) (*domain.SellerActivity, error) {
	var (
		total int
		lines []domain.SellerLine
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.products.CountByOwner(gctx, seller)
		if err != nil {
			return fmt.Errorf("count seller products: %w", err)
		}
		total = n
		return nil
	})
	g.Go(func() error {
		l, err := s.payments.SellerLines(gctx, repository.NewSellerOrderPlan(seller, repository.OrderStateAll))
		if err != nil {
			return fmt.Errorf("seller lines: %w", err)
		}
		lines = l
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("seller activity: %w", err)
	}

	a := domain.ComputeSellerActivity(total, lines)
	return &a, nil
}

// Monthly returns the seller's per-month sales and orders on basis.
func (s *OrderService) Monthly(ctx context.Context, seller, basis string) ([]domain.MonthlyStat, error) {
	if basis == "" {
		basis = domain.BasisLine
	}
	if basis != domain.BasisLine && basis != domain.BasisOrder {
		return nil, apperrors.InvalidInput(fmt.Sprintf("basis must be %s or %s", domain.BasisLine, domain.BasisOrder))
	}

	lines, err := s.payments.SellerLines(ctx, repository.NewSellerOrderPlan(seller, repository.OrderStateAll))
	if err != nil {
		return nil, fmt.Errorf("monthly stats: %w", err)
	}
	return domain.MonthlyChart(lines, basis), nil
}
