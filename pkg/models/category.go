package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID        string    `db:"id" json:"id"`
	Slug      string    `db:"slug" json:"slug"`
	Name      string    `db:"name" json:"name"`
	Icon      string    `db:"icon" json:"icon,omitempty"`
	SortOrder int       `db:"sort_order" json:"sort_order"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func NewCategory(name, slug string) (*Category, error) {
	c := &Category{
		ID:        uuid.New().String(),
		Slug:      strings.ToLower(strings.TrimSpace(slug)),
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now(),
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Category) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("category name is required")
	}
	if len(c.Name) > 100 {
		return fmt.Errorf("category name must not exceed 100 characters")
	}
	if !slugRegex.MatchString(c.Slug) {
		return fmt.Errorf("invalid category slug: %q", c.Slug)
	}
	return nil
}

// Slugify lowercases name and joins its alphanumeric runs with dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// CategoryCount is the number of activities tagged with a category.
type CategoryCount struct {
	CategoryID string `json:"category_id"`
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	Count      int    `json:"count"`
}
