package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/utafrali/shopper/internal/domain"
	"github.com/utafrali/shopper/pkg/database"
	apperrors "github.com/utafrali/shopper/pkg/errors"
)

// ProductRepository implements repository.ProductRepository using MongoDB.
type ProductRepository struct {
	coll *mongo.Collection
}

// NewProductRepository creates a new MongoDB-backed product repository.
func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{coll: db.Collection(productsCollection)}
}

func (r *ProductRepository) find(ctx context.Context, filter any, opts ...*options.FindOptions) ([]domain.Product, error) {
	cur, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return productsFromDocs(docs), nil
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	if _, err := r.coll.InsertOne(ctx, newProductDoc(p)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.AlreadyExists("product", "id", p.ID)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a product in any status.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var doc productDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	p := doc.toDomain()
	return &p, nil
}

// GetByIDs returns the products among ids that exist.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	products, err := r.find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, fmt.Errorf("get products by ids: %w", err)
	}
	return products, nil
}

// Update writes the owner-editable fields of p.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: p.ID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "name", Value: p.Name},
			{Key: "category", Value: p.Category},
			{Key: "description", Value: p.Description},
			{Key: "image", Value: p.Image},
			{Key: "price", Value: p.Price},
			{Key: "quantity", Value: p.Quantity},
			{Key: "updated_at", Value: p.UpdatedAt},
		}}},
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("product", p.ID)
	}
	return nil
}

// Delete removes a product.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

// List returns approved products matching filter with the total match count.
func (r *ProductRepository) List(ctx context.Context, filter domain.ProductFilter) (_ []domain.Product, _ int, err error) {
	ctx, end := database.TraceCommand(ctx, "ListProducts", productsCollection)
	defer func() { end(err) }()

	query := productListFilter(filter)
	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	products, err := r.find(ctx, query, productListOptions(filter))
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, int(total), nil
}

// Latest returns the newest approved products.
func (r *ProductRepository) Latest(ctx context.Context, limit int) ([]domain.Product, error) {
	products, err := r.find(ctx,
		bson.D{{Key: "status", Value: domain.ProductStatusApprove}},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
			SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, fmt.Errorf("latest products: %w", err)
	}
	return products, nil
}

// ListByOwner returns every product owned by email, newest first.
func (r *ProductRepository) ListByOwner(ctx context.Context, email string) ([]domain.Product, error) {
	products, err := r.find(ctx,
		bson.D{{Key: "owner_email", Value: email}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list products by owner: %w", err)
	}
	return products, nil
}

// CountByOwner counts the products owned by email.
func (r *ProductRepository) CountByOwner(ctx context.Context, email string) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: "owner_email", Value: email}})
	if err != nil {
		return 0, fmt.Errorf("count products by owner: %w", err)
	}
	return int(n), nil
}

// ListByStatus returns products in status, or every product when status is empty.
func (r *ProductRepository) ListByStatus(ctx context.Context, status string) ([]domain.Product, error) {
	filter := bson.D{}
	if status != "" {
		filter = bson.D{{Key: "status", Value: status}}
	}
	products, err := r.find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list products by status: %w", err)
	}
	return products, nil
}

// UpdateStatus moves a product from one moderation status to another with a
// conditional update.
func (r *ProductRepository) UpdateStatus(ctx context.Context, id, from, to string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "status", Value: from}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: to},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	)
	if err != nil {
		return fmt.Errorf("update product status: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("check product exists: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("product", id)
	}
	return apperrors.Conflict(fmt.Sprintf("product %s is no longer %s", id, from))
}
