package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/utafrali/shopper/internal/domain"
	"github.com/utafrali/shopper/internal/repository"
	apperrors "github.com/utafrali/shopper/pkg/errors"
)

// UserService manages user records and roles.
type UserService struct {
	repo   repository.UserRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewUserService creates a new user service.
func NewUserService(repo repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger, now: time.Now}
}

// Register creates the customer record for email on first sign-in and
// returns the existing record afterwards.
func (s *UserService) Register(ctx context.Context, email, name string) (*domain.User, bool, error) {
	if strings.TrimSpace(email) == "" {
		return nil, false, apperrors.InvalidInput("email is required")
	}

	u := &domain.User{
		Email:     email,
		Name:      name,
		Role:      domain.RoleCustomer,
		CreatedAt: s.now().UTC(),
	}
	stored, created, err := s.repo.CreateIfAbsent(ctx, u)
	if err != nil {
		return nil, false, fmt.Errorf("register user: %w", err)
	}

	if created {
		s.logger.InfoContext(ctx, "user registered", slog.String("email", email))
	}
	return stored, created, nil
}

// Get returns the user record for email.
func (s *UserService) Get(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByEmail satisfies authz.RoleSource. It returns repository errors
// unwrapped so not-found stays recognisable.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// List returns every user.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateRole sets email's role. Only admins reach this.
func (s *UserService) UpdateRole(ctx context.Context, admin, email, role string) (*domain.User, error) {
	if !domain.IsValidRole(role) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid role %q, must be one of: %s",
			role, strings.Join(domain.ValidRoles(), ", ")))
	}

	if err := s.repo.UpdateRole(ctx, email, role); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	s.logger.InfoContext(ctx, "user role updated",
		slog.String("email", email),
		slog.String("role", role),
		slog.String("by", admin),
	)
	return s.Get(ctx, email)
}
