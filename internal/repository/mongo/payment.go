package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/utafrali/shopper/internal/domain"
	"github.com/utafrali/shopper/internal/repository"
	"github.com/utafrali/shopper/pkg/database"
	apperrors "github.com/utafrali/shopper/pkg/errors"
)

// PaymentRepository implements repository.PaymentRepository using MongoDB.
type PaymentRepository struct {
	coll  *mongo.Collection
	carts *mongo.Collection
}

// NewPaymentRepository creates a new MongoDB-backed payment repository.
func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{
		coll:  db.Collection(paymentsCollection),
		carts: db.Collection(cartsCollection),
	}
}

// Record inserts p, then deletes the payer's listed cart items. The two
// writes are not atomic. A failed delete after a stored payment comes back as
// a *repository.PartialWriteError and the payment.recorded consumer repeats it.
func (r *PaymentRepository) Record(ctx context.Context, p *domain.Payment) (err error) {
	ctx, end := database.TraceCommand(ctx, "RecordPayment", paymentsCollection)
	defer func() { end(err) }()

	if _, err = r.coll.InsertOne(ctx, newPaymentDoc(p)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.AlreadyExists("payment", "transaction_id", p.TransactionID)
		}
		return fmt.Errorf("insert payment: %w", err)
	}

	if len(p.CartIDs) == 0 {
		return nil
	}
	if _, err = r.carts.DeleteMany(ctx, cartOwnerFilter(p.Email, p.CartIDs)); err != nil {
		return repository.NewPartialWriteError("delete cart items", err)
	}
	return nil
}

// GetByID retrieves a payment.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return r.getOne(ctx, "_id", id)
}

// GetByTransactionID retrieves the payment recorded for a provider transaction.
func (r *PaymentRepository) GetByTransactionID(ctx context.Context, txID string) (*domain.Payment, error) {
	return r.getOne(ctx, "transaction_id", txID)
}

func (r *PaymentRepository) getOne(ctx context.Context, field, value string) (*domain.Payment, error) {
	var doc paymentDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: field, Value: value}}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, apperrors.NotFound("payment", value)
		}
		return nil, fmt.Errorf("get payment by %s: %w", field, err)
	}
	p := doc.toDomain()
	return &p, nil
}

// ListByEmail returns the payer's payments, newest first.
func (r *PaymentRepository) ListByEmail(ctx context.Context, email string) ([]domain.Payment, error) {
	cur, err := r.coll.Find(ctx, bson.D{{Key: "email", Value: email}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	var docs []paymentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode payments: %w", err)
	}
	payments := make([]domain.Payment, 0, len(docs))
	for _, d := range docs {
		payments = append(payments, d.toDomain())
	}
	return payments, nil
}

// UpdateStatus sets an order's fulfilment status.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "status", Value: status}}}},
	)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("payment", id)
	}
	return nil
}

// ProductRefs returns each payment's product ids, oldest payment first.
func (r *PaymentRepository) ProductRefs(ctx context.Context) ([][]string, error) {
	cur, err := r.coll.Find(ctx, bson.D{},
		options.Find().
			SetProjection(bson.D{{Key: "product_ids", Value: 1}}).
			SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list payment product refs: %w", err)
	}
	var docs []struct {
		ProductIDs []string `bson:"product_ids"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode product refs: %w", err)
	}
	refs := make([][]string, 0, len(docs))
	for _, d := range docs {
		refs = append(refs, nonNil(d.ProductIDs))
	}
	return refs, nil
}

// SellerLines runs plan as an aggregation pipeline.
func (r *PaymentRepository) SellerLines(ctx context.Context, plan repository.SellerOrderPlan) (_ []domain.SellerLine, err error) {
	ctx, end := database.TraceCommand(ctx, "SellerLines", paymentsCollection)
	defer func() { end(err) }()

	cur, err := r.coll.Aggregate(ctx, sellerLinesPipeline(plan))
	if err != nil {
		return nil, fmt.Errorf("aggregate seller lines: %w", err)
	}
	var docs []sellerLineDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode seller lines: %w", err)
	}
	lines := make([]domain.SellerLine, 0, len(docs))
	for _, d := range docs {
		lines = append(lines, d.toDomain())
	}
	return lines, nil
}
