package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/utafrali/shopper/internal/domain"
)

// UserRepository persists users.
type UserRepository interface {
	// CreateIfAbsent inserts u unless a user with the same email exists. It
	// returns the stored user and whether it was created.
	CreateIfAbsent(ctx context.Context, u *domain.User) (*domain.User, bool, error)

	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdateRole(ctx context.Context, email, role string) error
}

// ProductRepository persists products.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// GetByIDs returns the products that exist among ids, in any order.
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)

	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error

	// List returns approved products matching filter and the size of the
	// whole match set.
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error)

	// Latest returns the newest approved products.
	Latest(ctx context.Context, limit int) ([]domain.Product, error)

	ListByOwner(ctx context.Context, email string) ([]domain.Product, error)
	CountByOwner(ctx context.Context, email string) (int, error)

	// ListByStatus returns products in status, or all products when status is empty.
	ListByStatus(ctx context.Context, status string) ([]domain.Product, error)

	// UpdateStatus moves a product from one status to another. It fails with
	// ErrConflict if the product is no longer in from.
	UpdateStatus(ctx context.Context, id, from, to string) error
}

// CartRepository persists cart items.
type CartRepository interface {
	Create(ctx context.Context, item *domain.CartItem) error
	GetByID(ctx context.Context, id string) (*domain.CartItem, error)
	ListByOwner(ctx context.Context, email string) ([]domain.CartItem, error)
	UpdateQuantity(ctx context.Context, id string, quantity int) error
	Delete(ctx context.Context, id string) error

	// DeleteByIDs removes the owner's items among ids. Missing ids are not an
	// error, so repeating the call is a no-op.
	DeleteByIDs(ctx context.Context, owner string, ids []string) (int, error)
}

// WishlistRepository persists wishlist items.
type WishlistRepository interface {
	Create(ctx context.Context, item *domain.WishlistItem) error
	GetByID(ctx context.Context, id string) (*domain.WishlistItem, error)
	ListByOwner(ctx context.Context, email string) ([]domain.WishlistItem, error)
	Delete(ctx context.Context, id string) error
}

// PaymentRepository persists payments and answers the seller order queries.
type PaymentRepository interface {
	// Record stores p and deletes the payer's cart items listed in p.CartIDs.
	// A *PartialWriteError means p was stored but the cart delete was not.
	Record(ctx context.Context, p *domain.Payment) error

	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	GetByTransactionID(ctx context.Context, txID string) (*domain.Payment, error)
	ListByEmail(ctx context.Context, email string) ([]domain.Payment, error)
	UpdateStatus(ctx context.Context, id, status string) error

	// ProductRefs returns every payment's product id list, oldest payment first.
	ProductRefs(ctx context.Context) ([][]string, error)

	// SellerLines runs plan and returns one line per payment and
	// seller-owned product reference, newest payment first.
	SellerLines(ctx context.Context, plan SellerOrderPlan) ([]domain.SellerLine, error)
}

// ReviewRepository persists reviews and the product ratings derived from them.
type ReviewRepository interface {
	// Ingest stores r and recomputes the rating of every product it references.
	// A *PartialWriteError means r was stored and the returned summaries
	// cover only the products recomputed before the failure.
	Ingest(ctx context.Context, r *domain.Review) ([]domain.RatingSummary, error)

	// Recompute rebuilds one product's rating from all of its reviews.
	Recompute(ctx context.Context, productID string) (domain.RatingSummary, error)

	ListByProduct(ctx context.Context, productID string) ([]domain.Review, error)
}

// BlogRepository persists blog posts.
type BlogRepository interface {
	Create(ctx context.Context, b *domain.BlogPost) error
	GetByID(ctx context.Context, id string) (*domain.BlogPost, error)
	List(ctx context.Context) ([]domain.BlogPost, error)
	Delete(ctx context.Context, id string) error
}

// Store bundles the repositories of one storage backend.
type Store struct {
	Users     UserRepository
	Products  ProductRepository
	Carts     CartRepository
	Wishlists WishlistRepository
	Payments  PaymentRepository
	Reviews   ReviewRepository
	Blogs     BlogRepository

	// Transactional is true when multi-write flows commit atomically.
	Transactional bool
}

// ErrPartialWrite marks a multi-write flow whose primary record was stored
// while a follow-up write failed. The follow-ups are idempotent and are
// repeated by the event consumers.
var ErrPartialWrite = errors.New("partial write")

// PartialWriteError reports which follow-up step failed after the primary
// record was stored. It matches ErrPartialWrite with errors.Is.
type PartialWriteError struct {
	Step string
	Err  error
}

// NewPartialWriteError wraps err from the named follow-up step.
func NewPartialWriteError(step string, err error) *PartialWriteError {
	return &PartialWriteError{Step: step, Err: err}
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrPartialWrite.
func (e *PartialWriteError) Is(target error) bool { return target == ErrPartialWrite }
