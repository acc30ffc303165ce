package service

import (
	"context"
	"log/slog"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/shopper/internal/domain"
	"github.com/utafrali/shopper/internal/provider"
	"github.com/utafrali/shopper/internal/repository"
)

// --- Repositories ---

type mockUserRepository struct{ mock.Mock }

func (m *mockUserRepository) CreateIfAbsent(ctx context.Context, u *domain.User) (*domain.User, bool, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*domain.User), args.Bool(1), args.Error(2)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUserRepository) UpdateRole(ctx context.Context, email, role string) error {
	return m.Called(ctx, email, role).Error(0)
}

type mockProductRepository struct{ mock.Mock }

func (m *mockProductRepository) Create(ctx context.Context, p *domain.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepository) Update(ctx context.Context, p *domain.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockProductRepository) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) Latest(ctx context.Context, limit int) ([]domain.Product, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepository) ListByOwner(ctx context.Context, email string) ([]domain.Product, error) {
	args := m.Called(ctx, email)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepository) CountByOwner(ctx context.Context, email string) (int, error) {
	args := m.Called(ctx, email)
	return args.Int(0), args.Error(1)
}

func (m *mockProductRepository) ListByStatus(ctx context.Context, status string) ([]domain.Product, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepository) UpdateStatus(ctx context.Context, id, from, to string) error {
	return m.Called(ctx, id, from, to).Error(0)
}

type mockCartRepository struct{ mock.Mock }

func (m *mockCartRepository) Create(ctx context.Context, item *domain.CartItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockCartRepository) GetByID(ctx context.Context, id string) (*domain.CartItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CartItem), args.Error(1)
}

func (m *mockCartRepository) ListByOwner(ctx context.Context, email string) ([]domain.CartItem, error) {
	args := m.Called(ctx, email)
	return args.Get(0).([]domain.CartItem), args.Error(1)
}

func (m *mockCartRepository) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	return m.Called(ctx, id, quantity).Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCartRepository) DeleteByIDs(ctx context.Context, owner string, ids []string) (int, error) {
	args := m.Called(ctx, owner, ids)
	return args.Int(0), args.Error(1)
}

type mockWishlistRepository struct{ mock.Mock }

func (m *mockWishlistRepository) Create(ctx context.Context, item *domain.WishlistItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockWishlistRepository) GetByID(ctx context.Context, id string) (*domain.WishlistItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WishlistItem), args.Error(1)
}

func (m *mockWishlistRepository) ListByOwner(ctx context.Context, email string) ([]domain.WishlistItem, error) {
	args := m.Called(ctx, email)
	return args.Get(0).([]domain.WishlistItem), args.Error(1)
}

func (m *mockWishlistRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockPaymentRepository struct{ mock.Mock }

func (m *mockPaymentRepository) Record(ctx context.Context, p *domain.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *mockPaymentRepository) GetByTransactionID(ctx context.Context, txID string) (*domain.Payment, error) {
	args := m.Called(ctx, txID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *mockPaymentRepository) ListByEmail(ctx context.Context, email string) ([]domain.Payment, error) {
	args := m.Called(ctx, email)
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *mockPaymentRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockPaymentRepository) ProductRefs(ctx context.Context) ([][]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([][]string), args.Error(1)
}

func (m *mockPaymentRepository) SellerLines(ctx context.Context, plan repository.SellerOrderPlan) ([]domain.SellerLine, error) {
	args := m.Called(ctx, plan)
	return args.Get(0).([]domain.SellerLine), args.Error(1)
}

type mockReviewRepository struct{ mock.Mock }

func (m *mockReviewRepository) Ingest(ctx context.Context, r *domain.Review) ([]domain.RatingSummary, error) {
	args := m.Called(ctx, r)
	return args.Get(0).([]domain.RatingSummary), args.Error(1)
}

func (m *mockReviewRepository) Recompute(ctx context.Context, productID string) (domain.RatingSummary, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(domain.RatingSummary), args.Error(1)
}

func (m *mockReviewRepository) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]domain.Review), args.Error(1)
}

type mockBlogRepository struct{ mock.Mock }

func (m *mockBlogRepository) Create(ctx context.Context, b *domain.BlogPost) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBlogRepository) GetByID(ctx context.Context, id string) (*domain.BlogPost, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BlogPost), args.Error(1)
}

func (m *mockBlogRepository) List(ctx context.Context) ([]domain.BlogPost, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.BlogPost), args.Error(1)
}

func (m *mockBlogRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// --- Collaborators ---

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishPaymentRecorded(ctx context.Context, p *domain.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPublisher) PublishReviewCreated(ctx context.Context, r *domain.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockPublisher) PublishOrderStatusChanged(ctx context.Context, id, oldStatus, newStatus, by string) error {
	return m.Called(ctx, id, oldStatus, newStatus, by).Error(0)
}

func (m *mockPublisher) PublishProductStatusChanged(ctx context.Context, id, oldStatus, newStatus, by string) error {
	return m.Called(ctx, id, oldStatus, newStatus, by).Error(0)
}

type mockProvider struct{ mock.Mock }

func (m *mockProvider) Name() string { return "test" }

func (m *mockProvider) CreateIntent(ctx context.Context, amount int64, currency string) (*provider.Intent, error) {
	args := m.Called(ctx, amount, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Intent), args.Error(1)
}

func (m *mockProvider) Verify(ctx context.Context, txID string) (*provider.Charge, error) {
	args := m.Called(ctx, txID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Charge), args.Error(1)
}

type mockIdempotencyStore struct{ mock.Mock }

func (m *mockIdempotencyStore) Reserve(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockIdempotencyStore) Complete(ctx context.Context, key, paymentID string) error {
	return m.Called(ctx, key, paymentID).Error(0)
}

func (m *mockIdempotencyStore) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

// --- Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

const (
	productA = "0d4f2a52-7d86-4a1c-9b0d-5b3f8c1e0a01"
	productB = "0d4f2a52-7d86-4a1c-9b0d-5b3f8c1e0a02"
	cartA    = "7c9e6679-7425-40de-944b-e07fc1f90ae1"
	cartB    = "7c9e6679-7425-40de-944b-e07fc1f90ae2"
	orderID  = "9b2d1a3e-6f4c-4e0a-8d7b-1c2e3f4a5b6c"
)

type mockSearcher struct{ mock.Mock }

func (m *mockSearcher) Index(ctx context.Context, p *domain.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockSearcher) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSearcher) BulkIndex(ctx context.Context, products []domain.Product) error {
	return m.Called(ctx, products).Error(0)
}

func (m *mockSearcher) Search(ctx context.Context, filter domain.ProductFilter) ([]string, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]string), args.Int(1), args.Error(2)
}
