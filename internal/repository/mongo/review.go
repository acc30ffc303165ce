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
)

// ReviewRepository implements repository.ReviewRepository using MongoDB.
type ReviewRepository struct {
	coll     *mongo.Collection
	products *mongo.Collection
}

// NewReviewRepository creates a new MongoDB-backed review repository.
func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{
		coll:     db.Collection(reviewsCollection),
		products: db.Collection(productsCollection),
	}
}

// Ingest inserts the review and then recomputes each referenced product in
// turn. A failed recompute after the insert comes back as a
// *repository.PartialWriteError with the summaries built so far, and the
// review.created consumer runs Recompute again.
func (r *ReviewRepository) Ingest(ctx context.Context, rv *domain.Review) (_ []domain.RatingSummary, err error) {
	ctx, end := database.TraceCommand(ctx, "IngestReview", reviewsCollection)
	defer func() { end(err) }()

	_, err = r.coll.InsertOne(ctx, reviewDoc{
		ID: rv.ID, ProductIDs: nonNil(rv.ProductIDs), Rating: rv.Rating, AuthorEmail: rv.AuthorEmail,
		AuthorName: rv.AuthorName, Comment: rv.Comment, CreatedAt: rv.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("insert review: %w", err)
	}

	summaries := make([]domain.RatingSummary, 0, len(rv.ProductIDs))
	for _, id := range rv.ProductIDs {
		s, rerr := r.Recompute(ctx, id)
		if rerr != nil {
			err = repository.NewPartialWriteError("recompute rating "+id, rerr)
			return summaries, err
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// Recompute rebuilds one product's rating from a full scan of its reviews.
func (r *ReviewRepository) Recompute(ctx context.Context, productID string) (domain.RatingSummary, error) {
	cur, err := r.coll.Find(ctx, referencesProduct(productID),
		options.Find().SetProjection(bson.D{{Key: "rating", Value: 1}}))
	if err != nil {
		return domain.RatingSummary{}, fmt.Errorf("scan ratings: %w", err)
	}
	var docs []struct {
		Rating int `bson:"rating"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return domain.RatingSummary{}, fmt.Errorf("decode ratings: %w", err)
	}
	ratings := make([]int, 0, len(docs))
	for _, d := range docs {
		ratings = append(ratings, d.Rating)
	}

	s := domain.SummarizeRatings(productID, ratings)
	_, err = r.products.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: productID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "rating_count", Value: s.Count},
			{Key: "average_rating", Value: s.Average},
		}}},
	)
	if err != nil {
		return domain.RatingSummary{}, fmt.Errorf("update product rating: %w", err)
	}
	return s, nil
}

// ListByProduct returns the reviews referencing productID, newest first.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	cur, err := r.coll.Find(ctx, referencesProduct(productID),
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	var docs []reviewDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	reviews := make([]domain.Review, 0, len(docs))
	for _, d := range docs {
		reviews = append(reviews, d.toDomain())
	}
	return reviews, nil
}
