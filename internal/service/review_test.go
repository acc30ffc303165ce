package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/shopper/internal/domain"
	"github.com/utafrali/shopper/internal/repository"
	apperrors "github.com/utafrali/shopper/pkg/errors"
)

func newReviewService() (*ReviewService, *mockReviewRepository, *mockProductRepository, *mockPublisher) {
	reviews := new(mockReviewRepository)
	products := new(mockProductRepository)
	publisher := new(mockPublisher)
	return NewReviewService(reviews, products, publisher, newTestLogger()), reviews, products, publisher
}

func TestCreateReview_IngestsAndPublishes(t *testing.T) {
	svc, reviews, products, publisher := newReviewService()
	ctx := context.Background()

	products.On("GetByIDs", ctx, []string{productA, productB}).
		Return([]domain.Product{{ID: productA}, {ID: productB}}, nil)
	reviews.On("Ingest", ctx, mock.MatchedBy(func(r *domain.Review) bool {
		return len(r.ProductIDs) == 2 && r.Rating == 4 && r.AuthorEmail == "buyer@example.com"
	})).Return([]domain.RatingSummary{
		{ProductID: productA, Count: 3, Average: 4.3},
		{ProductID: productB, Count: 1, Average: 4},
	}, nil)
	publisher.On("PublishReviewCreated", ctx, mock.AnythingOfType("*domain.Review")).Return(nil)

	res, err := svc.Create(ctx, "buyer@example.com", "Ada", CreateReviewInput{
		ProductIDs: []string{productA, productB, productA},
		Rating:     4,
		Comment:    " great ",
	})

	require.NoError(t, err)
	assert.Equal(t, "great", res.Review.Comment)
	assert.Len(t, res.Ratings, 2)
	assert.Equal(t, 4.3, res.Ratings[0].Average)
	publisher.AssertExpectations(t)
}

func TestCreateReview_StoredReviewWithFailedRecomputeStillPublishes(t *testing.T) {
	svc, reviews, products, publisher := newReviewService()
	ctx := context.Background()

	products.On("GetByIDs", ctx, []string{productA, productB}).
		Return([]domain.Product{{ID: productA}, {ID: productB}}, nil)
	reviews.On("Ingest", ctx, mock.AnythingOfType("*domain.Review")).Return(
		[]domain.RatingSummary{{ProductID: productA, Count: 1, Average: 5}},
		repository.NewPartialWriteError("recompute rating "+productB, errors.New("network")),
	)
	publisher.On("PublishReviewCreated", ctx, mock.AnythingOfType("*domain.Review")).Return(nil)

	res, err := svc.Create(ctx, "buyer@example.com", "Ada", CreateReviewInput{
		ProductIDs: []string{productA, productB},
		Rating:     5,
	})

	require.NoError(t, err)
	assert.Len(t, res.Ratings, 1)
	publisher.AssertCalled(t, "PublishReviewCreated", ctx, res.Review)
}

func TestCreateReview_IngestFailureIsNotPublished(t *testing.T) {
	svc, reviews, products, publisher := newReviewService()
	ctx := context.Background()

	products.On("GetByIDs", ctx, []string{productA}).Return([]domain.Product{{ID: productA}}, nil)
	reviews.On("Ingest", ctx, mock.AnythingOfType("*domain.Review")).
		Return([]domain.RatingSummary(nil), errors.New("insert review: network"))

	_, err := svc.Create(ctx, "buyer@example.com", "Ada", CreateReviewInput{
		ProductIDs: []string{productA}, Rating: 3,
	})

	require.Error(t, err)
	publisher.AssertNotCalled(t, "PublishReviewCreated", mock.Anything, mock.Anything)
}

func TestCreateReview_RatingBounds(t *testing.T) {
	svc, _, _, _ := newReviewService()
	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Create(context.Background(), "b@example.com", "", CreateReviewInput{
			ProductIDs: []string{productA}, Rating: rating,
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput, "rating %d", rating)
	}
}

func TestCreateReview_UnknownProduct(t *testing.T) {
	svc, reviews, products, _ := newReviewService()
	ctx := context.Background()
	products.On("GetByIDs", ctx, []string{productA, productB}).Return([]domain.Product{{ID: productA}}, nil)

	_, err := svc.Create(ctx, "b@example.com", "", CreateReviewInput{
		ProductIDs: []string{productA, productB}, Rating: 5,
	})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	reviews.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
}
