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

// CartRepository implements repository.CartRepository using PostgreSQL.
type CartRepository struct {
	pool database.DBTX
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool database.DBTX) *CartRepository {
	return &CartRepository{pool: pool}
}

// Create inserts a cart item.
func (r *CartRepository) Create(ctx context.Context, item *domain.CartItem) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO carts (id, owner_email, product_id, quantity, created_at) VALUES ($1, $2, $3, $4, $5)`,
		item.ID, item.OwnerEmail, item.ProductID, item.Quantity, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert cart item: %w", err)
	}
	return nil
}

// GetByID retrieves a cart item.
func (r *CartRepository) GetByID(ctx context.Context, id string) (*domain.CartItem, error) {
	var c domain.CartItem
	err := r.pool.QueryRow(ctx,
		`SELECT id, owner_email, product_id, quantity, created_at FROM carts WHERE id = $1`, id,
	).Scan(&c.ID, &c.OwnerEmail, &c.ProductID, &c.Quantity, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("cart item", id)
		}
		return nil, fmt.Errorf("get cart item: %w", err)
	}
	return &c, nil
}

// ListByOwner returns the owner's cart, oldest first.
func (r *CartRepository) ListByOwner(ctx context.Context, email string) ([]domain.CartItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, owner_email, product_id, quantity, created_at FROM carts WHERE owner_email = $1 ORDER BY created_at, id`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		var c domain.CartItem
		if err := rows.Scan(&c.ID, &c.OwnerEmail, &c.ProductID, &c.Quantity, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cart row: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart rows: %w", err)
	}
	return items, nil
}

// UpdateQuantity sets a cart item's quantity.
func (r *CartRepository) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	ct, err := r.pool.Exec(ctx, `UPDATE carts SET quantity = $1 WHERE id = $2`, quantity, id)
	if err != nil {
		return fmt.Errorf("update cart quantity: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("cart item", id)
	}
	return nil
}

// Delete removes a cart item.
func (r *CartRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("cart item", id)
	}
	return nil
}

// DeleteByIDs removes the owner's items among ids.
func (r *CartRepository) DeleteByIDs(ctx context.Context, owner string, ids []string) (int, error) {
	return deleteCartItems(ctx, r.pool, owner, ids)
}

func deleteCartItems(ctx context.Context, q querier, owner string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ct, err := q.Exec(ctx, `DELETE FROM carts WHERE owner_email = $1 AND id = ANY($2)`, owner, ids)
	if err != nil {
		return 0, fmt.Errorf("delete cart items: %w", err)
	}
	return int(ct.RowsAffected()), nil
}
