package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/utafrali/shopper/internal/domain"
	apperrors "github.com/utafrali/shopper/pkg/errors"
)

// CartRepository implements repository.CartRepository using MongoDB.
type CartRepository struct {
	coll *mongo.Collection
}

// NewCartRepository creates a new MongoDB-backed cart repository.
func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{coll: db.Collection(cartsCollection)}
}

// Create inserts a cart item.
func (r *CartRepository) Create(ctx context.Context, item *domain.CartItem) error {
	_, err := r.coll.InsertOne(ctx, cartDoc{
		ID: item.ID, OwnerEmail: item.OwnerEmail, ProductID: item.ProductID,
		Quantity: item.Quantity, CreatedAt: item.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert cart item: %w", err)
	}
	return nil
}

// GetByID retrieves a cart item.
func (r *CartRepository) GetByID(ctx context.Context, id string) (*domain.CartItem, error) {
	var doc cartDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, apperrors.NotFound("cart item", id)
		}
		return nil, fmt.Errorf("get cart item: %w", err)
	}
	item := doc.toDomain()
	return &item, nil
}

// ListByOwner returns the owner's cart, oldest first.
func (r *CartRepository) ListByOwner(ctx context.Context, email string) ([]domain.CartItem, error) {
	cur, err := r.coll.Find(ctx, bson.D{{Key: "owner_email", Value: email}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	var docs []cartDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode cart items: %w", err)
	}
	items := make([]domain.CartItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.toDomain())
	}
	return items, nil
}

// UpdateQuantity sets a cart item's quantity.
func (r *CartRepository) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "quantity", Value: quantity}}}},
	)
	if err != nil {
		return fmt.Errorf("update cart quantity: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("cart item", id)
	}
	return nil
}

// Delete removes a cart item.
func (r *CartRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("cart item", id)
	}
	return nil
}

// DeleteByIDs removes the owner's items among ids.
func (r *CartRepository) DeleteByIDs(ctx context.Context, owner string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.coll.DeleteMany(ctx, cartOwnerFilter(owner, ids))
	if err != nil {
		return 0, fmt.Errorf("delete cart items: %w", err)
	}
	return int(res.DeletedCount), nil
}

// WishlistRepository implements repository.WishlistRepository using MongoDB.
type WishlistRepository struct {
	coll *mongo.Collection
}

// NewWishlistRepository creates a new MongoDB-backed wishlist repository.
func NewWishlistRepository(db *mongo.Database) *WishlistRepository {
	return &WishlistRepository{coll: db.Collection(wishlistsCollection)}
}

// Create inserts a wishlist item. The unique owner/product index turns a
// repeat into a conflict.
func (r *WishlistRepository) Create(ctx context.Context, item *domain.WishlistItem) error {
	_, err := r.coll.InsertOne(ctx, wishlistDoc{
		ID: item.ID, OwnerEmail: item.OwnerEmail, ProductID: item.ProductID, CreatedAt: item.CreatedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.AlreadyExists("wishlist item", "product_id", item.ProductID)
		}
		return fmt.Errorf("insert wishlist item: %w", err)
	}
	return nil
}

// GetByID retrieves a wishlist item.
func (r *WishlistRepository) GetByID(ctx context.Context, id string) (*domain.WishlistItem, error) {
	var doc wishlistDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, apperrors.NotFound("wishlist item", id)
		}
		return nil, fmt.Errorf("get wishlist item: %w", err)
	}
	item := doc.toDomain()
	return &item, nil
}

// ListByOwner returns the owner's wishlist, newest first.
func (r *WishlistRepository) ListByOwner(ctx context.Context, email string) ([]domain.WishlistItem, error) {
	cur, err := r.coll.Find(ctx, bson.D{{Key: "owner_email", Value: email}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list wishlist items: %w", err)
	}
	var docs []wishlistDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode wishlist items: %w", err)
	}
	items := make([]domain.WishlistItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.toDomain())
	}
	return items, nil
}

// Delete removes a wishlist item.
func (r *WishlistRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete wishlist item: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("wishlist item", id)
	}
	return nil
}
