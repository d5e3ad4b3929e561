package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bcnelson/playfinder/pkg/models"
)

// CategoryRepository handles category persistence
type CategoryRepository struct {
	db *DB
}

func NewCategoryRepository(db *DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if err := category.Validate(); err != nil {
		return fmt.Errorf("category validation failed: %w", err)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, slug, name, icon, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		category.ID,
		category.Slug,
		category.Name,
		category.Icon,
		category.SortOrder,
		category.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", constraintError(err))
	}

	return nil
}

// GetByID looks a category up by ID, falling back to its slug.
func (r *CategoryRepository) GetByID(ctx context.Context, idOrSlug string) (*models.Category, error) {
	var category models.Category
	err := r.db.QueryRowContext(ctx, `
		SELECT id, slug, name, icon, sort_order, created_at
		FROM categories
		WHERE id = ? OR slug = ?
		LIMIT 1`, idOrSlug, idOrSlug).Scan(
		&category.ID,
		&category.Slug,
		&category.Name,
		&category.Icon,
		&category.SortOrder,
		&category.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("category %s: %w", idOrSlug, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return &category, nil
}

// List returns all categories by sort order, then name.
func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, slug, name, icon, sort_order, created_at
		FROM categories
		ORDER BY sort_order ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var category models.Category
		if err := rows.Scan(
			&category.ID,
			&category.Slug,
			&category.Name,
			&category.Icon,
			&category.SortOrder,
			&category.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("category %s: %w", id, ErrNotFound)
	}

	return nil
}

// CountActivities returns each category with its number of tagged
// activities, including empty categories.
func (r *CategoryRepository) CountActivities(ctx context.Context) ([]models.CategoryCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.slug, c.name, COUNT(ac.activity_id)
		FROM categories c
		LEFT JOIN activity_categories ac ON ac.category_id = c.id
		GROUP BY c.id, c.slug, c.name, c.sort_order
		ORDER BY c.sort_order ASC, c.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to count category activities: %w", err)
	}
	defer rows.Close()

	counts := []models.CategoryCount{}
	for rows.Next() {
		var count models.CategoryCount
		if err := rows.Scan(&count.CategoryID, &count.Slug, &count.Name, &count.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		counts = append(counts, count)
	}

	return counts, rows.Err()
}
