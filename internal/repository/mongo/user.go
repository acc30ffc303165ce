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

// UserRepository implements repository.UserRepository using MongoDB.
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a new MongoDB-backed user repository.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

// CreateIfAbsent upserts with $setOnInsert so an existing user is untouched.
func (r *UserRepository) CreateIfAbsent(ctx context.Context, u *domain.User) (*domain.User, bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: u.Email}},
		bson.D{{Key: "$setOnInsert", Value: bson.D{
			{Key: "name", Value: u.Name},
			{Key: "role", Value: u.Role},
			{Key: "created_at", Value: u.CreatedAt},
		}}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return nil, false, fmt.Errorf("upsert user: %w", err)
	}
	if res.UpsertedCount == 1 {
		return u, true, nil
	}

	existing, err := r.GetByEmail(ctx, u.Email)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: email}}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, apperrors.NotFound("user", email)
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	u := doc.toDomain()
	return &u, nil
}

// List returns all users, oldest first.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	cur, err := r.coll.Find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	users := make([]domain.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toDomain())
	}
	return users, nil
}

// UpdateRole sets a user's role.
func (r *UserRepository) UpdateRole(ctx context.Context, email, role string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: email}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "role", Value: role}}}},
	)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("user", email)
	}
	return nil
}
