package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/shopper/internal/domain"
	"github.com/utafrali/shopper/internal/repository"
	apperrors "github.com/utafrali/shopper/pkg/errors"
)

func newOrderService() (*OrderService, *mockPaymentRepository, *mockProductRepository, *mockPublisher) {
	payments := new(mockPaymentRepository)
	products := new(mockProductRepository)
	publisher := new(mockPublisher)
	return NewOrderService(payments, products, publisher, newTestLogger()), payments, products, publisher
}

func sellerLine(paymentID, productID string, price float64, status string) domain.SellerLine {
	return domain.SellerLine{
		Payment:     domain.Payment{ID: paymentID, Price: price, Status: status, CreatedAt: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		ProductID:   productID,
		ProductName: "name-" + productID,
	}
}

func TestUpdateStatus_SellerMovesOrderForward(t *testing.T) {
	svc, payments, products, publisher := newOrderService()
	ctx := context.Background()

	payments.On("GetByID", ctx, orderID).Return(&domain.Payment{
		ID: orderID, ProductIDs: []string{productA, productB}, Status: domain.OrderStatusPlaced,
	}, nil)
	products.On("GetByIDs", ctx, []string{productA, productB}).Return([]domain.Product{
		{ID: productA, OwnerEmail: "other@example.com"},
		{ID: productB, OwnerEmail: "seller@example.com"},
	}, nil)
	payments.On("UpdateStatus", ctx, orderID, domain.OrderStatusShipped).Return(nil)
	publisher.On("PublishOrderStatusChanged", ctx, orderID, domain.OrderStatusPlaced, domain.OrderStatusShipped, "seller@example.com").Return(nil)

	p, err := svc.UpdateStatus(ctx, "seller@example.com", orderID, domain.OrderStatusShipped)

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, p.Status)
	payments.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestUpdateStatus_NotOwner(t *testing.T) {
	svc, payments, products, _ := newOrderService()
	ctx := context.Background()

	payments.On("GetByID", ctx, orderID).Return(&domain.Payment{
		ID: orderID, ProductIDs: []string{productA}, Status: domain.OrderStatusPlaced,
	}, nil)
	products.On("GetByIDs", ctx, []string{productA}).Return([]domain.Product{
		{ID: productA, OwnerEmail: "other@example.com"},
	}, nil)

	_, err := svc.UpdateStatus(ctx, "seller@example.com", orderID, domain.OrderStatusShipped)

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	payments.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_BackwardsIsConflict(t *testing.T) {
	svc, payments, products, _ := newOrderService()
	ctx := context.Background()

	payments.On("GetByID", ctx, orderID).Return(&domain.Payment{
		ID: orderID, ProductIDs: []string{productA}, Status: domain.OrderStatusDelivered,
	}, nil)
	products.On("GetByIDs", ctx, []string{productA}).Return([]domain.Product{
		{ID: productA, OwnerEmail: "seller@example.com"},
	}, nil)

	_, err := svc.UpdateStatus(ctx, "seller@example.com", orderID, domain.OrderStatusShipped)

	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestUpdateStatus_InvalidInput(t *testing.T) {
	svc, _, _, _ := newOrderService()

	_, err := svc.UpdateStatus(context.Background(), "seller@example.com", "not-a-uuid", domain.OrderStatusShipped)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.UpdateStatus(context.Background(), "seller@example.com", orderID, "Canceled")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSellerOrders_GroupsLines(t *testing.T) {
	svc, payments, _, _ := newOrderService()
	ctx := context.Background()
	plan := repository.NewSellerOrderPlan("seller@example.com", repository.OrderStateNew)

	payments.On("SellerLines", ctx, plan).Return([]domain.SellerLine{
		sellerLine("pay-1", "P1", 30, domain.OrderStatusPlaced),
		sellerLine("pay-1", "P2", 30, domain.OrderStatusPlaced),
	}, nil)

	orders, err := svc.SellerOrders(ctx, "seller@example.com", repository.OrderStateNew)

	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Len(t, orders[0].Products, 2)
}

func TestActivity_SellerScenario(t *testing.T) {
	svc, payments, products, _ := newOrderService()
	ctx := context.Background()

	products.On("CountByOwner", mock.Anything, "seller@example.com").Return(2, nil)
	payments.On("SellerLines", mock.Anything, repository.NewSellerOrderPlan("seller@example.com", repository.OrderStateAll)).
		Return([]domain.SellerLine{
			sellerLine("pay-1", "P1", 10, domain.OrderStatusDelivered),
			sellerLine("pay-2", "P1", 10, domain.OrderStatusDelivered),
			sellerLine("pay-3", "P2", 20, domain.OrderStatusDelivered),
		}, nil)

	a, err := svc.Activity(ctx, "seller@example.com")

	require.NoError(t, err)
	assert.Equal(t, 2, a.TotalProducts)
	assert.Equal(t, 3, a.PerLineItem.TotalOrders)
	assert.Equal(t, 3, a.PerLineItem.TotalSales)
	assert.Equal(t, 40.0, a.PerLineItem.TotalProfit)
}

func TestActivity_QueryFailure(t *testing.T) {
	svc, payments, products, _ := newOrderService()

	products.On("CountByOwner", mock.Anything, "seller@example.com").Return(0, errors.New("db down"))
	payments.On("SellerLines", mock.Anything, mock.Anything).Return([]domain.SellerLine{}, nil)

	_, err := svc.Activity(context.Background(), "seller@example.com")

	assert.ErrorContains(t, err, "db down")
}

func TestMonthly_Basis(t *testing.T) {
	svc, payments, _, _ := newOrderService()
	ctx := context.Background()

	payments.On("SellerLines", ctx, mock.Anything).Return([]domain.SellerLine{
		sellerLine("pay-1", "P1", 10, domain.OrderStatusDelivered),
		sellerLine("pay-1", "P2", 10, domain.OrderStatusDelivered),
	}, nil)

	byLine, err := svc.Monthly(ctx, "seller@example.com", "")
	require.NoError(t, err)
	require.Len(t, byLine, 1)
	assert.Equal(t, "Jan 2024", byLine[0].Label)
	assert.Equal(t, 2, byLine[0].Sales)

	byOrder, err := svc.Monthly(ctx, "seller@example.com", domain.BasisOrder)
	require.NoError(t, err)
	assert.Equal(t, 1, byOrder[0].Sales)

	_, err = svc.Monthly(ctx, "seller@example.com", "week")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
