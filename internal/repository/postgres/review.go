package postgres

import (
	"context"
	"fmt"

	"github.com/utafrali/shopper/internal/domain"
	"github.com/utafrali/shopper/pkg/database"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Ingest inserts the review and recomputes every referenced product's rating
// in one transaction.
func (r *ReviewRepository) Ingest(ctx context.Context, rv *domain.Review) (_ []domain.RatingSummary, err error) {
	query := `
		INSERT INTO reviews (id, product_ids, rating, author_email, author_name, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	ctx, end := database.TraceQuery(ctx, "IngestReview", query)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = tx.Exec(ctx, query,
		rv.ID, rv.ProductIDs, rv.Rating, rv.AuthorEmail, rv.AuthorName, rv.Comment, rv.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert review: %w", err)
	}

	summaries := make([]domain.RatingSummary, 0, len(rv.ProductIDs))
	for _, id := range rv.ProductIDs {
		s, err := recompute(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return summaries, nil
}

// Recompute rebuilds one product's rating outside any transaction.
func (r *ReviewRepository) Recompute(ctx context.Context, productID string) (domain.RatingSummary, error) {
	return recompute(ctx, r.pool, productID)
}

// recompute scans every rating of the product and writes back the summary.
func recompute(ctx context.Context, q querier, productID string) (domain.RatingSummary, error) {
	rows, err := q.Query(ctx, `SELECT rating FROM reviews WHERE $1 = ANY(product_ids)`, productID)
	if err != nil {
		return domain.RatingSummary{}, fmt.Errorf("scan ratings: %w", err)
	}
	var ratings []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return domain.RatingSummary{}, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return domain.RatingSummary{}, fmt.Errorf("iterate ratings: %w", err)
	}

	s := domain.SummarizeRatings(productID, ratings)
	if _, err := q.Exec(ctx,
		`UPDATE products SET rating_count = $1, average_rating = $2 WHERE id = $3`,
		s.Count, s.Average, productID,
	); err != nil {
		return domain.RatingSummary{}, fmt.Errorf("update product rating: %w", err)
	}
	return s, nil
}

// ListByProduct returns the reviews referencing productID, newest first.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_ids, rating, author_email, author_name, comment, created_at
		FROM reviews WHERE $1 = ANY(product_ids) ORDER BY created_at DESC, id`, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.ProductIDs, &rv.Rating, &rv.AuthorEmail, &rv.AuthorName, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, nil
}
