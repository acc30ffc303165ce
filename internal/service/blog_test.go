package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/shopper/pkg/errors"
)

func TestCreateBlog_Slug(t *testing.T) {
	repo := new(mockBlogRepository)
	svc := NewBlogService(repo, newTestLogger())
	ctx := context.Background()
	repo.On("Create", ctx, mock.AnythingOfType("*domain.BlogPost")).Return(nil)

	b, err := svc.Create(ctx, "admin@example.com", CreateBlogInput{Title: "Summer Sale: 50% Off!", Content: "..."})

	require.NoError(t, err)
	assert.Equal(t, "summer-sale-50-off", b.Slug)
	assert.Equal(t, "admin@example.com", b.AuthorEmail)
}

func TestBlog_MalformedID(t *testing.T) {
	svc := NewBlogService(new(mockBlogRepository), newTestLogger())

	_, err := svc.Get(context.Background(), "abc")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.ErrorIs(t, svc.Delete(context.Background(), "abc"), apperrors.ErrInvalidInput)
}
