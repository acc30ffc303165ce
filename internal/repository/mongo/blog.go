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

// BlogRepository implements repository.BlogRepository using MongoDB.
type BlogRepository struct {
	coll *mongo.Collection
}

// NewBlogRepository creates a new MongoDB-backed blog repository.
func NewBlogRepository(db *mongo.Database) *BlogRepository {
	return &BlogRepository{coll: db.Collection(blogsCollection)}
}

// Create inserts a blog post.
func (r *BlogRepository) Create(ctx context.Context, b *domain.BlogPost) error {
	_, err := r.coll.InsertOne(ctx, blogDoc{
		ID: b.ID, Title: b.Title, Slug: b.Slug, Content: b.Content, Image: b.Image,
		AuthorEmail: b.AuthorEmail, CreatedAt: b.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert blog: %w", err)
	}
	return nil
}

// GetByID retrieves a blog post.
func (r *BlogRepository) GetByID(ctx context.Context, id string) (*domain.BlogPost, error) {
	var doc blogDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, apperrors.NotFound("blog", id)
		}
		return nil, fmt.Errorf("get blog: %w", err)
	}
	b := doc.toDomain()
	return &b, nil
}

// List returns all posts, newest first.
func (r *BlogRepository) List(ctx context.Context) ([]domain.BlogPost, error) {
	cur, err := r.coll.Find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	var docs []blogDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode blogs: %w", err)
	}
	posts := make([]domain.BlogPost, 0, len(docs))
	for _, d := range docs {
		posts = append(posts, d.toDomain())
	}
	return posts, nil
}

// Delete removes a blog post.
func (r *BlogRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("blog", id)
	}
	return nil
}
