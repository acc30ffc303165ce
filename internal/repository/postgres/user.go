package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/shopper/internal/domain"
	"github.com/utafrali/shopper/pkg/database"
	apperrors "github.com/utafrali/shopper/pkg/errors"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	pool database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool database.DBTX) *UserRepository {
	return &UserRepository{pool: pool}
}

// CreateIfAbsent inserts u unless the email is taken and returns the stored row.
func (r *UserRepository) CreateIfAbsent(ctx context.Context, u *domain.User) (*domain.User, bool, error) {
	query := `
		INSERT INTO users (email, name, role, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING`

	ct, err := r.pool.Exec(ctx, query, u.Email, u.Name, u.Role, u.CreatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("insert user: %w", err)
	}
	if ct.RowsAffected() == 1 {
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
	query := `SELECT email, name, role, created_at FROM users WHERE email = $1`

	var u domain.User
	err := r.pool.QueryRow(ctx, query, email).Scan(&u.Email, &u.Name, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user", email)
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// List returns all users, oldest first.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT email, name, role, created_at FROM users ORDER BY created_at, email`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.Email, &u.Name, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}
	return users, nil
}

// UpdateRole sets a user's role.
func (r *UserRepository) UpdateRole(ctx context.Context, email, role string) error {
	ct, err := r.pool.Exec(ctx, `UPDATE users SET role = $1 WHERE email = $2`, role, email)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", email)
	}
	return nil
}
