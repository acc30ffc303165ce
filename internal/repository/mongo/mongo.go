// Package mongo implements the repositories on MongoDB. Multi-document
// writes run one after another; the payment and review events drive the
// compensating consumers that finish an interrupted flow.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/utafrali/shopper/internal/repository"
)

// Collection names.
const (
	usersCollection     = "users"
	productsCollection  = "products"
	cartsCollection     = "carts"
	wishlistsCollection = "wishlists"
	paymentsCollection  = "payments"
	reviewsCollection   = "reviews"
	blogsCollection     = "blogs"
)

// NewStore returns every repository backed by db.
func NewStore(db *mongo.Database) *repository.Store {
	return &repository.Store{
		Users:         NewUserRepository(db),
		Products:      NewProductRepository(db),
		Carts:         NewCartRepository(db),
		Wishlists:     NewWishlistRepository(db),
		Payments:      NewPaymentRepository(db),
		Reviews:       NewReviewRepository(db),
		Blogs:         NewBlogRepository(db),
		Transactional: false,
	}
}

// indexes lists the secondary indexes each collection needs.
func indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		productsCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "owner_email", Value: 1}}},
		},
		cartsCollection: {
			{Keys: bson.D{{Key: "owner_email", Value: 1}}},
		},
		wishlistsCollection: {
			{
				Keys:    bson.D{{Key: "owner_email", Value: 1}, {Key: "product_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		paymentsCollection: {
			{Keys: bson.D{{Key: "transaction_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}},
			{Keys: bson.D{{Key: "product_ids", Value: 1}}},
		},
		reviewsCollection: {
			{Keys: bson.D{{Key: "product_ids", Value: 1}}},
		},
	}
}

// EnsureIndexes creates the indexes the repositories rely on. It is safe to
// call on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for name, models := range indexes() {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
