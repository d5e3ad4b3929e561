package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bcnelson/playfinder/pkg/models"
)

// VisitRepository persists scheduled visits.
type VisitRepository struct {
	db *DB
}

func NewVisitRepository(db *DB) *VisitRepository {
	return &VisitRepository{db: db}
}

func (r *VisitRepository) Create(ctx context.Context, visit *models.Visit) error {
	if err := visit.Validate(); err != nil {
		return fmt.Errorf("visit validation failed: %w", err)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO visits (id, user_id, activity_id, scheduled_at, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		visit.ID,
		visit.UserID,
		visit.ActivityID,
		visit.ScheduledAt.UTC(),
		visit.Note,
		visit.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create visit: %w", err)
	}
	return nil
}

func (r *VisitRepository) GetByID(ctx context.Context, id string) (*models.Visit, error) {
	var visit models.Visit
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, activity_id, scheduled_at, note, created_at
		FROM visits WHERE id = ?`, id).Scan(
		&visit.ID,
		&visit.UserID,
		&visit.ActivityID,
		&visit.ScheduledAt,
		&visit.Note,
		&visit.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("visit %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}
	return &visit, nil
}

func (r *VisitRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM visits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete visit: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("visit %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListByUser returns the user's visits scheduled within [from, to], soonest
// first. A zero bound leaves that side open.
func (r *VisitRepository) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]models.Visit, error) {
	query := `
		SELECT id, user_id, activity_id, scheduled_at, note, created_at
		FROM visits WHERE user_id = ?`
	args := []interface{}{userID}
	if !from.IsZero() {
		query += ` AND scheduled_at >= ?`
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		query += ` AND scheduled_at <= ?`
		args = append(args, to.UTC())
	}
	query += ` ORDER BY scheduled_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	defer rows.Close()

	visits := []models.Visit{}
	for rows.Next() {
		var visit models.Visit
		if err := rows.Scan(
			&visit.ID,
			&visit.UserID,
			&visit.ActivityID,
			&visit.ScheduledAt,
			&visit.Note,
			&visit.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		visits = append(visits, visit)
	}
	return visits, rows.Err()
}
