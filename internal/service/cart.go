package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/shopper/internal/domain"
	"github.com/utafrali/shopper/internal/repository"
	apperrors "github.com/utafrali/shopper/pkg/errors"
)

// CartService manages customers' carts and wishlists.
type CartService struct {
	carts     repository.CartRepository
	wishlists repository.WishlistRepository
	products  repository.ProductRepository
	logger    *slog.Logger
	now       func() time.Time
}

// NewCartService creates a new cart service.
func NewCartService(
	carts repository.CartRepository,
	wishlists repository.WishlistRepository,
	products repository.ProductRepository,
	logger *slog.Logger,
) *CartService {
	return &CartService{
		carts:     carts,
		wishlists: wishlists,
		products:  products,
		logger:    logger,
		now:       time.Now,
	}
}

// AddToCartInput is the body of an add-to-cart request.
type AddToCartInput struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0,lte=1000"`
}

// Cart returns the owner's cart.
func (s *CartService) Cart(ctx context.Context, owner string) ([]domain.CartItem, error) {
	items, err := s.carts.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	return items, nil
}

// AddToCart puts an approved product in the owner's cart.
func (s *CartService) AddToCart(ctx context.Context, owner string, in AddToCartInput) (*domain.CartItem, error) {
	if in.Quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be greater than zero")
	}
	if err := s.purchasable(ctx, in.ProductID); err != nil {
		return nil, err
	}

	item := &domain.CartItem{
		ID:         uuid.New().String(),
		OwnerEmail: owner,
		ProductID:  in.ProductID,
		Quantity:   in.Quantity,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.carts.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	return item, nil
}

// UpdateQuantity changes the quantity of the owner's cart item.
func (s *CartService) UpdateQuantity(ctx context.Context, owner, id string, quantity int) (*domain.CartItem, error) {
	if quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be greater than zero")
	}
	item, err := s.ownedCartItem(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := s.carts.UpdateQuantity(ctx, id, quantity); err != nil {
		return nil, fmt.Errorf("update cart quantity: %w", err)
	}
	item.Quantity = quantity
	return item, nil
}

// RemoveFromCart deletes the owner's cart item.
func (s *CartService) RemoveFromCart(ctx context.Context, owner, id string) error {
	if _, err := s.ownedCartItem(ctx, owner, id); err != nil {
		return err
	}
	if err := s.carts.Delete(ctx, id); err != nil {
		return fmt.Errorf("remove from cart: %w", err)
	}
	return nil
}

func (s *CartService) ownedCartItem(ctx context.Context, owner, id string) (*domain.CartItem, error) {
	if err := ValidateID("cart item id", id); err != nil {
		return nil, err
	}
	item, err := s.carts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get cart item: %w", err)
	}
	if item.OwnerEmail != owner {
		return nil, apperrors.Forbidden("cart item belongs to another user")
	}
	return item, nil
}

// Wishlist returns the owner's wishlist.
func (s *CartService) Wishlist(ctx context.Context, owner string) ([]domain.WishlistItem, error) {
	items, err := s.wishlists.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	return items, nil
}

// AddToWishlist saves an approved product for later.
func (s *CartService) AddToWishlist(ctx context.Context, owner, productID string) (*domain.WishlistItem, error) {
	if err := s.purchasable(ctx, productID); err != nil {
		return nil, err
	}

	item := &domain.WishlistItem{
		ID:         uuid.New().String(),
		OwnerEmail: owner,
		ProductID:  productID,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.wishlists.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("add to wishlist: %w", err)
	}
	return item, nil
}

// RemoveFromWishlist deletes the owner's wishlist item.
func (s *CartService) RemoveFromWishlist(ctx context.Context, owner, id string) error {
	if err := ValidateID("wishlist item id", id); err != nil {
		return err
	}
	item, err := s.wishlists.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get wishlist item: %w", err)
	}
	if item.OwnerEmail != owner {
		return apperrors.Forbidden("wishlist item belongs to another user")
	}
	if err := s.wishlists.Delete(ctx, id); err != nil {
		return fmt.Errorf("remove from wishlist: %w", err)
	}
	return nil
}

func (s *CartService) purchasable(ctx context.Context, productID string) error {
	if err := ValidateID("product_id", productID); err != nil {
		return err
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if p.Status != domain.ProductStatusApprove {
		return apperrors.InvalidInput("product is not available")
	}
	return nil
}
