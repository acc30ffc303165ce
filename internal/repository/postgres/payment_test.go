package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/shopper/internal/domain"
	"github.com/utafrali/shopper/internal/repository"
	apperrors "github.com/utafrali/shopper/pkg/errors"
)

func samplePayment() *domain.Payment {
	return &domain.Payment{
		ID:            "pay-1",
		Email:         "ann@example.com",
		ProductIDs:    []string{"p1", "p2"},
		CartIDs:       []string{"c1", "c2"},
		Price:         42.5,
		Currency:      "usd",
		TransactionID: "pi_123",
		Status:        domain.OrderStatusPlaced,
		Delivery:      domain.DeliveryInfo{Name: "Ann", Address: "1 Main St"},
		CreatedAt:     testTime,
	}
}

func paymentColumnNames() []string {
	return []string{
		"id", "email", "product_ids", "cart_ids", "price", "currency", "transaction_id",
		"status", "delivery", "created_at",
	}
}

func paymentValues(p *domain.Payment) []any {
	delivery, _ := json.Marshal(p.Delivery)
	return []any{
		p.ID, p.Email, p.ProductIDs, p.CartIDs, p.Price, p.Currency, p.TransactionID,
		p.Status, delivery, p.CreatedAt,
	}
}

func expectPaymentInsert(mock pgxmock.PgxPoolIface, p *domain.Payment) *pgxmock.ExpectedExec {
	return mock.ExpectExec("INSERT INTO payments").
		WithArgs(
			p.ID, p.Email, p.ProductIDs, p.CartIDs, p.Price, p.Currency,
			p.TransactionID, p.Status, pgxmock.AnyArg(), p.CreatedAt,
		)
}

func TestPaymentRepository_Record_DeletesCartInSameTransaction(t *testing.T) {
	mock := newMock(t)
	repo := NewPaymentRepository(mock)
	p := samplePayment()

	mock.ExpectBegin()
	expectPaymentInsert(mock, p).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("DELETE FROM carts WHERE owner_email").
		WithArgs(p.Email, p.CartIDs).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectCommit()

	require.NoError(t, repo.Record(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_Record_CartDeleteFailureRollsBack(t *testing.T) {
	mock := newMock(t)
	repo := NewPaymentRepository(mock)
	p := samplePayment()

	mock.ExpectBegin()
	expectPaymentInsert(mock, p).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("DELETE FROM carts").
		WithArgs(p.Email, p.CartIDs).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Record(context.Background(), p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete cart items")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_Record_DuplicateTransaction(t *testing.T) {
	mock := newMock(t)
	repo := NewPaymentRepository(mock)
	p := samplePayment()

	mock.ExpectBegin()
	expectPaymentInsert(mock, p).
		WillReturnError(errors.New("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"))
	mock.ExpectRollback()

	err := repo.Record(context.Background(), p)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_Record_BeginError(t *testing.T) {
	mock := newMock(t)
	repo := NewPaymentRepository(mock)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err := repo.Record(context.Background(), samplePayment())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_GetByTransactionID(t *testing.T) {
	mock := newMock(t)
	repo := NewPaymentRepository(mock)
	p := samplePayment()

	mock.ExpectQuery("SELECT .+ FROM payments WHERE transaction_id").
		WithArgs(p.TransactionID).
		WillReturnRows(pgxmock.NewRows(paymentColumnNames()).AddRow(paymentValues(p)...))

	got, err := repo.GetByTransactionID(context.Background(), p.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_ProductRefs_OldestFirst(t *testing.T) {
	mock := newMock(t)
	repo := NewPaymentRepository(mock)

	mock.ExpectQuery("SELECT product_ids FROM payments ORDER BY created_at, id").
		WillReturnRows(pgxmock.NewRows([]string{"product_ids"}).
			AddRow([]string{"p1", "p2"}).
			AddRow([]string{"p2"}))

	refs, err := repo.ProductRefs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"p1", "p2"}, {"p2"}}, refs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_SellerLines(t *testing.T) {
	p := samplePayment()
	lineColumns := append(paymentColumnNames(), "product_id", "product_name")

	tests := []struct {
		name  string
		state repository.OrderState
		query string
		args  []any
	}{
		{"all", repository.OrderStateAll, `WHERE pr.owner_email = \$1 ORDER BY`, []any{"sam@example.com"}},
		{"new", repository.OrderStateNew, `p.status <> \$2`, []any{"sam@example.com", domain.OrderStatusDelivered}},
		{"history", repository.OrderStateHistory, `p.status = \$2`, []any{"sam@example.com", domain.OrderStatusDelivered}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mock := newMock(t)
			repo := NewPaymentRepository(mock)

			mock.ExpectQuery("unnest.+WITH ORDINALITY.+" + tc.query).
				WithArgs(tc.args...).
				WillReturnRows(pgxmock.NewRows(lineColumns).
					AddRow(append(paymentValues(p), "p1", "Desk Lamp")...))

			lines, err := repo.SellerLines(context.Background(), repository.SellerOrderPlan{
				SellerEmail: "sam@example.com",
				State:       tc.state,
			})
			require.NoError(t, err)
			require.Len(t, lines, 1)
			assert.Equal(t, "p1", lines[0].ProductID)
			assert.Equal(t, "Desk Lamp", lines[0].ProductName)
			assert.Equal(t, p.ID, lines[0].Payment.ID)
			assert.Equal(t, "Ann", lines[0].Payment.Delivery.Name)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPaymentRepository_UpdateStatus_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewPaymentRepository(mock)

	mock.ExpectExec("UPDATE payments SET status").
		WithArgs(domain.OrderStatusShipped, "pay-404").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateStatus(context.Background(), "pay-404", domain.OrderStatusShipped)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
