package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/shopper/internal/domain"
	"github.com/utafrali/shopper/internal/repository"
	apperrors "github.com/utafrali/shopper/pkg/errors"
	"github.com/utafrali/shopper/pkg/slug"
)

// BlogService manages blog posts.
type BlogService struct {
	repo   repository.BlogRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewBlogService creates a new blog service.
func NewBlogService(repo repository.BlogRepository, logger *slog.Logger) *BlogService {
	return &BlogService{repo: repo, logger: logger, now: time.Now}
}

// CreateBlogInput is the body of a blog post.
type CreateBlogInput struct {
	Title   string `json:"title" validate:"required,max=300"`
	Content string `json:"content" validate:"required"`
	Image   string `json:"image" validate:"omitempty,url"`
}

// Create publishes a post authored by author.
func (s *BlogService) Create(ctx context.Context, author string, in CreateBlogInput) (*domain.BlogPost, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperrors.InvalidInput("title is required")
	}

	b := &domain.BlogPost{
		ID:          uuid.New().String(),
		Title:       title,
		Slug:        slug.Generate(title),
		Content:     in.Content,
		Image:       in.Image,
		AuthorEmail: author,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create blog: %w", err)
	}

	s.logger.InfoContext(ctx, "blog post created", slog.String("blog_id", b.ID), slog.String("slug", b.Slug))
	return b, nil
}

// Get returns one post.
func (s *BlogService) Get(ctx context.Context, id string) (*domain.BlogPost, error) {
	if err := ValidateID("blog id", id); err != nil {
		return nil, err
	}
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get blog: %w", err)
	}
	return b, nil
}

// List returns every post, newest first.
func (s *BlogService) List(ctx context.Context) ([]domain.BlogPost, error) {
	posts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	return posts, nil
}

// Delete removes a post.
func (s *BlogService) Delete(ctx context.Context, id string) error {
	if err := ValidateID("blog id", id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}
	return nil
}
