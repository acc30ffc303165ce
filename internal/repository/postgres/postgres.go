// Package postgres implements the repositories on PostgreSQL with pgx.
// Multi-write flows run in a single transaction.
package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/utafrali/shopper/internal/repository"
	"github.com/utafrali/shopper/pkg/database"
)

// querier is satisfied by both the pool and a pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// NewStore returns every repository backed by pool.
func NewStore(pool database.DBTX) *repository.Store {
	return &repository.Store{
		Users:         NewUserRepository(pool),
		Products:      NewProductRepository(pool),
		Carts:         NewCartRepository(pool),
		Wishlists:     NewWishlistRepository(pool),
		Payments:      NewPaymentRepository(pool),
		Reviews:       NewReviewRepository(pool),
		Blogs:         NewBlogRepository(pool),
		Transactional: true,
	}
}

// isUniqueViolation checks for SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "23505")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s literally anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
