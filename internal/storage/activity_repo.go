package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bcnelson/playfinder/pkg/geo"
	"github.com/bcnelson/playfinder/pkg/models"
)

// ActivityRepository persists venues and events together with their
// category memberships.
type ActivityRepository struct {
	db *DB
}

func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// ActivityQuery narrows a List call. Zero fields do not constrain. A non-nil
// but empty IDs matches nothing. From and To only match records that have a
// start time.
type ActivityQuery struct {
	Kind       models.ActivityKind
	CategoryID string
	IDs        []string
	Search     string
	From       *time.Time
	To         *time.Time
	Within     *geo.Bounds
	OrderBy    string // name, starts_at or created_at
	Limit      int
	Offset     int
}

const activityColumns = `
	a.id, a.kind, a.name, a.description, a.address, a.latitude, a.longitude,
	a.age_min, a.age_max, a.is_free, a.price_min, a.price_max,
	a.is_indoor, a.is_outdoor, a.starts_at, a.ends_at, a.image_url, a.website,
	a.created_at, a.updated_at,
	(SELECT GROUP_CONCAT(ac.category_id) FROM activity_categories ac WHERE ac.activity_id = a.id)`

// Create inserts the activity and its category links in one transaction.
func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		return fmt.Errorf("activity ID cannot be empty")
	}
	if err := activity.Validate(); err != nil {
		return fmt.Errorf("activity validation failed: %w", err)
	}

	return r.inTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO activities (
				id, kind, name, description, address, latitude, longitude,
				age_min, age_max, is_free, price_min, price_max,
				is_indoor, is_outdoor, starts_at, ends_at, image_url, website,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

		_, err := tx.ExecContext(ctx, query,
			activity.ID,
			string(activity.Kind),
			activity.Name,
			activity.Description,
			activity.Address,
			activity.Latitude,
			activity.Longitude,
			nullInt(activity.AgeMin),
			nullInt(activity.AgeMax),
			activity.IsFree,
			nullFloat(activity.PriceMin),
			nullFloat(activity.PriceMax),
			activity.IsIndoor,
			activity.IsOutdoor,
			nullTime(activity.StartsAt),
			nullTime(activity.EndsAt),
			activity.ImageURL,
			activity.Website,
			activity.CreatedAt.UTC(),
			activity.UpdatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to create activity: %w", constraintError(err))
		}

		return insertCategoryLinks(ctx, tx, activity.ID, activity.CategoryIDs)
	})
}

// GetByID returns the activity or an error wrapping ErrNotFound.
func (r *ActivityRepository) GetByID(ctx context.Context, id string) (*models.Activity, error) {
	if id == "" {
		return nil, fmt.Errorf("activity ID cannot be empty")
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities a WHERE a.id = ?`, id)
	activity, err := scanActivity(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("activity %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get activity by ID: %w", err)
	}

	return activity, nil
}

// Update rewrites the activity row and replaces its category links.
func (r *ActivityRepository) Update(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		return fmt.Errorf("activity ID cannot be empty")
	}
	if err := activity.Validate(); err != nil {
		return fmt.Errorf("activity validation failed: %w", err)
	}

	activity.UpdatedAt = time.Now()

	return r.inTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE activities
			SET kind = ?, name = ?, description = ?, address = ?, latitude = ?, longitude = ?,
			    age_min = ?, age_max = ?, is_free = ?, price_min = ?, price_max = ?,
			    is_indoor = ?, is_outdoor = ?, starts_at = ?, ends_at = ?,
			    image_url = ?, website = ?, updated_at = ?
			WHERE id = ?`

		result, err := tx.ExecContext(ctx, query,
			string(activity.Kind),
			activity.Name,
			activity.Description,
			activity.Address,
			activity.Latitude,
			activity.Longitude,
			nullInt(activity.AgeMin),
			nullInt(activity.AgeMax),
			activity.IsFree,
			nullFloat(activity.PriceMin),
			nullFloat(activity.PriceMax),
			activity.IsIndoor,
			activity.IsOutdoor,
			nullTime(activity.StartsAt),
			nullTime(activity.EndsAt),
			activity.ImageURL,
			activity.Website,
			activity.UpdatedAt.UTC(),
			activity.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update activity: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("activity %s: %w", activity.ID, ErrNotFound)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM activity_categories WHERE activity_id = ?`, activity.ID); err != nil {
			return fmt.Errorf("failed to clear activity categories: %w", err)
		}
		return insertCategoryLinks(ctx, tx, activity.ID, activity.CategoryIDs)
	})
}

// Delete removes the activity. Favorites, visits and category links cascade.
func (r *ActivityRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("activity ID cannot be empty")
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("activity %s: %w", id, ErrNotFound)
	}

	return nil
}

// List returns the activities matching q. The result is never nil.
func (r *ActivityRepository) List(ctx context.Context, q ActivityQuery) ([]models.Activity, error) {
	if q.IDs != nil && len(q.IDs) == 0 {
		return []models.Activity{}, nil
	}

	where, args := q.where()

	query := `SELECT ` + activityColumns + ` FROM activities a`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY ` + q.orderClause()

	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
		if q.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, q.Offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, *activity)
	}

	return activities, rows.Err()
}

// Count returns how many activities match q, ignoring Limit and Offset.
func (r *ActivityRepository) Count(ctx context.Context, q ActivityQuery) (int, error) {
	if q.IDs != nil && len(q.IDs) == 0 {
		return 0, nil
	}

	where, args := q.where()
	query := `SELECT COUNT(*) FROM activities a`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}
	return count, nil
}

func (q ActivityQuery) where() ([]string, []interface{}) {
	var conditions []string
	var args []interface{}

	if q.Kind != "" {
		conditions = append(conditions, "a.kind = ?")
		args = append(args, string(q.Kind))
	}

	if q.CategoryID != "" {
		conditions = append(conditions,
			"EXISTS (SELECT 1 FROM activity_categories c WHERE c.activity_id = a.id AND c.category_id = ?)")
		args = append(args, q.CategoryID)
	}

	if len(q.IDs) > 0 {
		placeholders := make([]string, len(q.IDs))
		for i, id := range q.IDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		conditions = append(conditions, "a.id IN ("+strings.Join(placeholders, ", ")+")")
	}

	if search := strings.TrimSpace(q.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		conditions = append(conditions,
			`(a.name LIKE ? ESCAPE '\' OR a.description LIKE ? ESCAPE '\' OR a.address LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}

	if q.From != nil {
		conditions = append(conditions, "a.starts_at >= ?")
		args = append(args, q.From.UTC())
	}
	if q.To != nil {
		conditions = append(conditions, "a.starts_at <= ?")
		args = append(args, q.To.UTC())
	}

	if b := q.Within; b != nil {
		conditions = append(conditions, "a.latitude BETWEEN ? AND ?")
		args = append(args, b.MinLat, b.MaxLat)
		if b.WrapsAntimeridian() {
			conditions = append(conditions, "(a.longitude >= ? OR a.longitude <= ?)")
		} else {
			conditions = append(conditions, "a.longitude BETWEEN ? AND ?")
		}
		args = append(args, b.MinLng, b.MaxLng)
	}

	return conditions, args
}

func (q ActivityQuery) orderClause() string {
	switch q.OrderBy {
	case "starts_at":
		return "a.starts_at IS NULL, a.starts_at ASC, a.name ASC"
	case "created_at":
		return "a.created_at DESC, a.id ASC"
	default:
		return "a.name COLLATE NOCASE ASC, a.id ASC"
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanActivity(row rowScanner) (*models.Activity, error) {
	var (
		activity           models.Activity
		kind               string
		ageMin, ageMax     sql.NullInt64
		priceMin, priceMax sql.NullFloat64
		startsAt, endsAt   sql.NullTime
		categoryIDs        sql.NullString
	)

	err := row.Scan(
		&activity.ID,
		&kind,
		&activity.Name,
		&activity.Description,
		&activity.Address,
		&activity.Latitude,
		&activity.Longitude,
		&ageMin,
		&ageMax,
		&activity.IsFree,
		&priceMin,
		&priceMax,
		&activity.IsIndoor,
		&activity.IsOutdoor,
		&startsAt,
		&endsAt,
		&activity.ImageURL,
		&activity.Website,
		&activity.CreatedAt,
		&activity.UpdatedAt,
		&categoryIDs,
	)
	if err != nil {
		return nil, err
	}

	activity.Kind = models.ActivityKind(kind)
	activity.AgeMin = intPtr(ageMin)
	activity.AgeMax = intPtr(ageMax)
	activity.PriceMin = floatPtr(priceMin)
	activity.PriceMax = floatPtr(priceMax)
	activity.StartsAt = timePtr(startsAt)
	activity.EndsAt = timePtr(endsAt)
	activity.CategoryIDs = []string{}
	if categoryIDs.Valid && categoryIDs.String != "" {
		activity.CategoryIDs = strings.Split(categoryIDs.String, ",")
	}

	return &activity, nil
}

func insertCategoryLinks(ctx context.Context, tx *sql.Tx, activityID string, categoryIDs []string) error {
	for _, categoryID := range categoryIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO activity_categories (activity_id, category_id) VALUES (?, ?)`,
			activityID, categoryID)
		if err != nil {
			return fmt.Errorf("failed to link category %s: %w", categoryID, constraintError(err))
		}
	}
	return nil
}

func (r *ActivityRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: v.UTC(), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	return &v.Time
}
