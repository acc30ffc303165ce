package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/shopper/internal/domain"
	apperrors "github.com/utafrali/shopper/pkg/errors"
)

func newCartService() (*CartService, *mockCartRepository, *mockWishlistRepository, *mockProductRepository) {
	carts := new(mockCartRepository)
	wishlists := new(mockWishlistRepository)
	products := new(mockProductRepository)
	return NewCartService(carts, wishlists, products, newTestLogger()), carts, wishlists, products
}

func TestAddToCart(t *testing.T) {
	svc, carts, _, products := newCartService()
	ctx := context.Background()

	products.On("GetByID", ctx, productA).Return(&domain.Product{ID: productA, Status: domain.ProductStatusApprove}, nil)
	carts.On("Create", ctx, mock.AnythingOfType("*domain.CartItem")).Return(nil)

	item, err := svc.AddToCart(ctx, "buyer@example.com", AddToCartInput{ProductID: productA, Quantity: 2})

	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", item.OwnerEmail)
	assert.Equal(t, 2, item.Quantity)
}

func TestAddToCart_PendingProduct(t *testing.T) {
	svc, carts, _, products := newCartService()
	ctx := context.Background()
	products.On("GetByID", ctx, productA).Return(&domain.Product{ID: productA, Status: domain.ProductStatusPending}, nil)

	_, err := svc.AddToCart(ctx, "buyer@example.com", AddToCartInput{ProductID: productA, Quantity: 1})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	carts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCartItem_OwnerOnly(t *testing.T) {
	svc, carts, _, _ := newCartService()
	ctx := context.Background()
	carts.On("GetByID", ctx, cartA).Return(&domain.CartItem{ID: cartA, OwnerEmail: "other@example.com"}, nil)

	_, err := svc.UpdateQuantity(ctx, "buyer@example.com", cartA, 3)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	err = svc.RemoveFromCart(ctx, "buyer@example.com", cartA)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	carts.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestWishlist_Duplicate(t *testing.T) {
	svc, _, wishlists, products := newCartService()
	ctx := context.Background()
	products.On("GetByID", ctx, productA).Return(&domain.Product{ID: productA, Status: domain.ProductStatusApprove}, nil)
	wishlists.On("Create", ctx, mock.Anything).Return(apperrors.AlreadyExists("wishlist item", "product_id", productA))

	_, err := svc.AddToWishlist(ctx, "buyer@example.com", productA)

	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}
