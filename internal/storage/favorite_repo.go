package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/bcnelson/playfinder/pkg/models"
)

// FavoriteRepository stores which activities a user has saved.
type FavoriteRepository struct {
	db *DB
}

func NewFavoriteRepository(db *DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Add saves the favorite. Adding an existing favorite is a no-op.
func (r *FavoriteRepository) Add(ctx context.Context, userID, activityID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO favorites (user_id, activity_id, created_at)
		VALUES (?, ?, ?)`, userID, activityID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, activityID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND activity_id = ?`, userID, activityID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("favorite %s: %w", activityID, ErrNotFound)
	}
	return nil
}

// List returns the user's favorites, most recent first.
func (r *FavoriteRepository) List(ctx context.Context, userID string) ([]models.Favorite, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, activity_id, created_at FROM favorites
		WHERE user_id = ?
		ORDER BY created_at DESC, activity_id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	favorites := []models.Favorite{}
	for rows.Next() {
		var f models.Favorite
		if err := rows.Scan(&f.UserID, &f.ActivityID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		favorites = append(favorites, f)
	}
	return favorites, rows.Err()
}

func (r *FavoriteRepository) ListActivityIDs(ctx context.Context, userID string) ([]string, error) {
	favorites, err := r.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(favorites))
	for _, f := range favorites {
		ids = append(ids, f.ActivityID)
	}
	return ids, nil
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID, activityID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE user_id = ? AND activity_id = ?`,
		userID, activityID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return count > 0, nil
}
