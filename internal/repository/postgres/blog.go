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

const blogColumns = `id, title, slug, content, image, author_email, created_at`

// BlogRepository implements repository.BlogRepository using PostgreSQL.
type BlogRepository struct {
	pool database.DBTX
}

// NewBlogRepository creates a new PostgreSQL-backed blog repository.
func NewBlogRepository(pool database.DBTX) *BlogRepository {
	return &BlogRepository{pool: pool}
}

func scanBlog(row pgx.Row, b *domain.BlogPost) error {
	return row.Scan(&b.ID, &b.Title, &b.Slug, &b.Content, &b.Image, &b.AuthorEmail, &b.CreatedAt)
}

// Create inserts a blog post.
func (r *BlogRepository) Create(ctx context.Context, b *domain.BlogPost) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO blogs (`+blogColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.ID, b.Title, b.Slug, b.Content, b.Image, b.AuthorEmail, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert blog: %w", err)
	}
	return nil
}

// GetByID retrieves a blog post.
func (r *BlogRepository) GetByID(ctx context.Context, id string) (*domain.BlogPost, error) {
	var b domain.BlogPost
	if err := scanBlog(r.pool.QueryRow(ctx, `SELECT `+blogColumns+` FROM blogs WHERE id = $1`, id), &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("blog", id)
		}
		return nil, fmt.Errorf("get blog: %w", err)
	}
	return &b, nil
}

// List returns all posts, newest first.
func (r *BlogRepository) List(ctx context.Context) ([]domain.BlogPost, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+blogColumns+` FROM blogs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	defer rows.Close()

	posts := []domain.BlogPost{}
	for rows.Next() {
		var b domain.BlogPost
		if err := scanBlog(rows, &b); err != nil {
			return nil, fmt.Errorf("scan blog row: %w", err)
		}
		posts = append(posts, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blog rows: %w", err)
	}
	return posts, nil
}

// Delete removes a blog post.
func (r *BlogRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("blog", id)
	}
	return nil
}
