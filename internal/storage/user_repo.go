package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/bcnelson/playfinder/pkg/models"
)

// UserRepository handles user data persistence
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user in the database
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}

	if err := user.Validate(); err != nil {
		return fmt.Errorf("user validation failed: %w", err)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, email, display_name, password_hash, is_admin, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		user.IsAdmin,
		user.CreatedAt.UTC(),
		user.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}
	return r.getOne(ctx, `WHERE id = ?`, id)
}

// GetByEmail retrieves a user by email, case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
}

// Count returns the number of registered users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg string) (*models.User, error) {
	query := `
		SELECT id, email, display_name, password_hash, is_admin, created_at, updated_at
		FROM users ` + where

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user %s: %w", arg, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}
