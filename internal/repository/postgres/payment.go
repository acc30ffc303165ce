package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/shopper/internal/domain"
	"github.com/utafrali/shopper/internal/repository"
	"github.com/utafrali/shopper/pkg/database"
	apperrors "github.com/utafrali/shopper/pkg/errors"
)

const paymentColumns = `id, email, product_ids, cart_ids, price, currency, transaction_id, status, delivery, created_at`

// PaymentRepository implements repository.PaymentRepository using PostgreSQL.
type PaymentRepository struct {
	pool database.DBTX
}

// NewPaymentRepository creates a new PostgreSQL-backed payment repository.
func NewPaymentRepository(pool database.DBTX) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func scanPayment(row pgx.Row, p *domain.Payment, extra ...any) error {
	var delivery []byte
	dest := []any{
		&p.ID, &p.Email, &p.ProductIDs, &p.CartIDs, &p.Price, &p.Currency,
		&p.TransactionID, &p.Status, &delivery, &p.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	if len(delivery) > 0 {
		if err := json.Unmarshal(delivery, &p.Delivery); err != nil {
			return fmt.Errorf("unmarshal delivery: %w", err)
		}
	}
	return nil
}

// Record inserts p and deletes the payer's listed cart items in one transaction.
func (r *PaymentRepository) Record(ctx context.Context, p *domain.Payment) (err error) {
	delivery, err := json.Marshal(p.Delivery)
	if err != nil {
		return fmt.Errorf("marshal delivery: %w", err)
	}

	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	ctx, end := database.TraceQuery(ctx, "RecordPayment", query)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, query,
		p.ID, p.Email, p.ProductIDs, p.CartIDs, p.Price, p.Currency,
		p.TransactionID, p.Status, delivery, p.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("payment", "transaction_id", p.TransactionID)
		}
		return fmt.Errorf("insert payment: %w", err)
	}

	if _, err = deleteCartItems(ctx, tx, p.Email, p.CartIDs); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a payment.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return r.getOne(ctx, "id", id)
}

// GetByTransactionID retrieves the payment recorded for a provider transaction.
func (r *PaymentRepository) GetByTransactionID(ctx context.Context, txID string) (*domain.Payment, error) {
	return r.getOne(ctx, "transaction_id", txID)
}

func (r *PaymentRepository) getOne(ctx context.Context, column, value string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ` + column + ` = $1`

	var p domain.Payment
	if err := scanPayment(r.pool.QueryRow(ctx, query, value), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("payment", value)
		}
		return nil, fmt.Errorf("get payment by %s: %w", column, err)
	}
	return &p, nil
}

// ListByEmail returns the payer's payments, newest first.
func (r *PaymentRepository) ListByEmail(ctx context.Context, email string) ([]domain.Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE email = $1 ORDER BY created_at DESC, id`, email)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		var p domain.Payment
		if err := scanPayment(rows, &p); err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment rows: %w", err)
	}
	return payments, nil
}

// UpdateStatus sets an order's fulfilment status.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id, status string) error {
	ct, err := r.pool.Exec(ctx, `UPDATE payments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("payment", id)
	}
	return nil
}

// ProductRefs returns each payment's product ids, oldest payment first.
func (r *PaymentRepository) ProductRefs(ctx context.Context) ([][]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT product_ids FROM payments ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list payment product refs: %w", err)
	}
	defer rows.Close()

	refs := [][]string{}
	for rows.Next() {
		var ids []string
		if err := rows.Scan(&ids); err != nil {
			return nil, fmt.Errorf("scan product refs: %w", err)
		}
		refs = append(refs, ids)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product refs: %w", err)
	}
	return refs, nil
}

// sellerLinesQuery unwinds each payment's product ids and joins them to the
// seller's products. WITH ORDINALITY keeps the products in payment order.
const sellerLinesQuery = `
		SELECT p.id, p.email, p.product_ids, p.cart_ids, p.price, p.currency, p.transaction_id,
		       p.status, p.delivery, p.created_at, pr.id, pr.name
		FROM payments p
		CROSS JOIN LATERAL unnest(p.product_ids) WITH ORDINALITY AS ref(product_id, pos)
		JOIN products pr ON pr.id = ref.product_id
		WHERE pr.owner_email = $1`

// SellerLines compiles plan to SQL and returns the joined rows.
func (r *PaymentRepository) SellerLines(ctx context.Context, plan repository.SellerOrderPlan) (_ []domain.SellerLine, err error) {
	query := sellerLinesQuery
	args := []any{plan.SellerEmail}
	switch plan.State {
	case repository.OrderStateNew:
		query += " AND p.status <> $2"
		args = append(args, domain.OrderStatusDelivered)
	case repository.OrderStateHistory:
		query += " AND p.status = $2"
		args = append(args, domain.OrderStatusDelivered)
	}
	query += "\n\t\tORDER BY p.created_at DESC, p.id, ref.pos"

	ctx, end := database.TraceQuery(ctx, "SellerLines", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query seller lines: %w", err)
	}
	defer rows.Close()

	lines := []domain.SellerLine{}
	for rows.Next() {
		var l domain.SellerLine
		if err := scanPayment(rows, &l.Payment, &l.ProductID, &l.ProductName); err != nil {
			return nil, fmt.Errorf("scan seller line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seller lines: %w", err)
	}
	return lines, nil
}
