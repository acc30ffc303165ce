package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/shopper/internal/domain"
	"github.com/utafrali/shopper/pkg/database"
	apperrors "github.com/utafrali/shopper/pkg/errors"
)

const productColumns = `id, owner_email, owner_name, name, category, description, image, price, quantity,
		status, rating_count, average_rating, created_at, updated_at`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func scanProduct(row pgx.Row, p *domain.Product, extra ...any) error {
	dest := []any{
		&p.ID, &p.OwnerEmail, &p.OwnerName, &p.Name, &p.Category, &p.Description, &p.Image,
		&p.Price, &p.Quantity, &p.Status, &p.RatingCount, &p.AverageRating, &p.CreatedAt, &p.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

func collectProducts(rows pgx.Rows) ([]domain.Product, error) {
	defer rows.Close()
	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.OwnerEmail, p.OwnerName, p.Name, p.Category, p.Description, p.Image,
		p.Price, p.Quantity, p.Status, p.RatingCount, p.AverageRating, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "id", p.ID)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a product in any status.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p domain.Product
	if err := scanProduct(r.pool.QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return &p, nil
}

// GetByIDs returns the products among ids that exist.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get products by ids: %w", err)
	}
	return collectProducts(rows)
}

// Update writes the owner-editable fields of p.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET name = $1, category = $2, description = $3, image = $4, price = $5, quantity = $6, updated_at = $7
		WHERE id = $8`

	ct, err := r.pool.Exec(ctx, query,
		p.Name, p.Category, p.Description, p.Image, p.Price, p.Quantity, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}
	return nil
}

// Delete removes a product.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

// List returns approved products matching filter with the total match count.
func (r *ProductRepository) List(ctx context.Context, filter domain.ProductFilter) (_ []domain.Product, _ int, err error) {
	conditions := []string{"status = $1"}
	args := []any{domain.ProductStatusApprove}
	argIndex := 2

	if !filter.AnyCategory() {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, filter.Category)
		argIndex++
	}

	conditions = append(conditions, fmt.Sprintf("price >= $%d AND price <= $%d", argIndex, argIndex+1))
	args = append(args, filter.MinPrice, filter.MaxPrice)
	argIndex += 2

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(`name ILIKE $%d ESCAPE '\'`, argIndex))
		args = append(args, containsPattern(filter.Search))
		argIndex++
	}

	orderBy := "created_at, id"
	switch filter.Sort {
	case domain.SortPriceLow:
		orderBy = "price ASC, id"
	case domain.SortPriceHigh:
		orderBy = "price DESC, id"
	}

	where := strings.Join(conditions, " AND ")
	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM products
		WHERE %s
		ORDER BY %s`, productColumns, where, orderBy)
	if filter.Paginated() {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
		args = append(args, filter.PerPage, filter.Offset())
	}

	ctx, end := database.TraceQuery(ctx, "ListProducts", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	var total int
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p, &total); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	// A page past the end has no rows to carry the window count.
	if len(products) == 0 && filter.Offset() > 0 {
		countArgs := args
		if filter.Paginated() {
			countArgs = args[:len(args)-2]
		}
		if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM products WHERE "+where, countArgs...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count products: %w", err)
		}
	}

	return products, total, nil
}

// Latest returns the newest approved products.
func (r *ProductRepository) Latest(ctx context.Context, limit int) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE status = $1 ORDER BY created_at DESC, id LIMIT $2`
	rows, err := r.pool.Query(ctx, query, domain.ProductStatusApprove, limit)
	if err != nil {
		return nil, fmt.Errorf("latest products: %w", err)
	}
	return collectProducts(rows)
}

// ListByOwner returns every product owned by email, newest first.
func (r *ProductRepository) ListByOwner(ctx context.Context, email string) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE owner_email = $1 ORDER BY created_at DESC, id`
	rows, err := r.pool.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("list products by owner: %w", err)
	}
	return collectProducts(rows)
}

// CountByOwner counts the products owned by email.
func (r *ProductRepository) CountByOwner(ctx context.Context, email string) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM products WHERE owner_email = $1`, email).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products by owner: %w", err)
	}
	return n, nil
}

// ListByStatus returns products in status, or every product when status is empty.
func (r *ProductRepository) ListByStatus(ctx context.Context, status string) ([]domain.Product, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if status == "" {
		rows, err = r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, id`)
	} else {
		rows, err = r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE status = $1 ORDER BY created_at, id`, status)
	}
	if err != nil {
		return nil, fmt.Errorf("list products by status: %w", err)
	}
	return collectProducts(rows)
}

// UpdateStatus moves a product from one moderation status to another.
func (r *ProductRepository) UpdateStatus(ctx context.Context, id, from, to string) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE products SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		to, time.Now().UTC(), id, from,
	)
	if err != nil {
		return fmt.Errorf("update product status: %w", err)
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check product exists: %w", err)
	}
	if !exists {
		return apperrors.NotFound("product", id)
	}
	return apperrors.Conflict(fmt.Sprintf("product %s is no longer %s", id, from))
}
