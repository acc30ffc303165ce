package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/shopper/internal/domain"
	"github.com/utafrali/shopper/pkg/database"
	apperrors "github.com/utafrali/shopper/pkg/errors"
)

// WishlistRepository implements repository.WishlistRepository using PostgreSQL.
type WishlistRepository struct {
	pool database.DBTX
}

// NewWishlistRepository creates a new PostgreSQL-backed wishlist repository.
func NewWishlistRepository(pool database.DBTX) *WishlistRepository {
	return &WishlistRepository{pool: pool}
}

// Create inserts a wishlist item. Saving the same product twice is a conflict.
func (r *WishlistRepository) Create(ctx context.Context, item *domain.WishlistItem) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO wishlists (id, owner_email, product_id, created_at) VALUES ($1, $2, $3, $4)`,
		item.ID, item.OwnerEmail, item.ProductID, item.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("wishlist item", "product_id", item.ProductID)
		}
		return fmt.Errorf("insert wishlist item: %w", err)
	}
	return nil
}

// GetByID retrieves a wishlist item.
func (r *WishlistRepository) GetByID(ctx context.Context, id string) (*domain.WishlistItem, error) {
	var w domain.WishlistItem
	err := r.pool.QueryRow(ctx,
		`SELECT id, owner_email, product_id, created_at FROM wishlists WHERE id = $1`, id,
	).Scan(&w.ID, &w.OwnerEmail, &w.ProductID, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("wishlist item", id)
		}
		return nil, fmt.Errorf("get wishlist item: %w", err)
	}
	return &w, nil
}

// ListByOwner returns the owner's wishlist, newest first.
func (r *WishlistRepository) ListByOwner(ctx context.Context, email string) ([]domain.WishlistItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, owner_email, product_id, created_at FROM wishlists WHERE owner_email = $1 ORDER BY created_at DESC, id`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("list wishlist items: %w", err)
	}
	defer rows.Close()

	items := []domain.WishlistItem{}
	for rows.Next() {
		var w domain.WishlistItem
		if err := rows.Scan(&w.ID, &w.OwnerEmail, &w.ProductID, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan wishlist row: %w", err)
		}
		items = append(items, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wishlist rows: %w", err)
	}
	return items, nil
}

// Delete removes a wishlist item.
func (r *WishlistRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM wishlists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete wishlist item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("wishlist item", id)
	}
	return nil
}
