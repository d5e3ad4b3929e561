package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/bcnelson/playfinder/pkg/geo"
	"github.com/google/uuid"
)

// ActivityKind discriminates the two record variants sharing Activity.
type ActivityKind string

const (
	KindVenue ActivityKind = "venue"
	KindEvent ActivityKind = "event"
)

// Activity is a venue or an event. Both variants carry the same location,
// age, price, environment and category fields; only events have a schedule.
type Activity struct {
	ID          string       `db:"id" json:"id"`
	Kind        ActivityKind `db:"kind" json:"kind"`
	Name        string       `db:"name" json:"name"`
	Description string       `db:"description" json:"description"`
	Address     string       `db:"address" json:"address"`
	Latitude    float64      `db:"latitude" json:"latitude"`
	Longitude   float64      `db:"longitude" json:"longitude"`
	AgeMin      *int         `db:"age_min" json:"age_min,omitempty"`
	AgeMax      *int         `db:"age_max" json:"age_max,omitempty"`
	IsFree      bool         `db:"is_free" json:"is_free"`
	PriceMin    *float64     `db:"price_min" json:"price_min,omitempty"`
	PriceMax    *float64     `db:"price_max" json:"price_max,omitempty"`
	IsIndoor    bool         `db:"is_indoor" json:"is_indoor"`
	IsOutdoor   bool         `db:"is_outdoor" json:"is_outdoor"`
	CategoryIDs []string     `json:"category_ids"`
	StartsAt    *time.Time   `db:"starts_at" json:"starts_at,omitempty"`
	EndsAt      *time.Time   `db:"ends_at" json:"ends_at,omitempty"`
	ImageURL    string       `db:"image_url" json:"image_url,omitempty"`
	Website     string       `db:"website" json:"website,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// NewVenue builds a validated venue at the given coordinates.
func NewVenue(name, address string, latitude, longitude float64) (*Activity, error) {
	a := newActivity(KindVenue, name, address, latitude, longitude)
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// NewEvent builds a validated event. endsAt may be nil.
func NewEvent(name, address string, latitude, longitude float64, startsAt time.Time, endsAt *time.Time) (*Activity, error) {
	a := newActivity(KindEvent, name, address, latitude, longitude)
	a.StartsAt = &startsAt
	a.EndsAt = endsAt
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func newActivity(kind ActivityKind, name, address string, latitude, longitude float64) *Activity {
	now := time.Now()
	return &Activity{
		ID:          uuid.New().String(),
		Kind:        kind,
		Name:        strings.TrimSpace(name),
		Address:     address,
		Latitude:    latitude,
		Longitude:   longitude,
		CategoryIDs: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (a *Activity) SetAgeRange(min, max int) error {
	if err := validateAgeRange(&min, &max); err != nil {
		return err
	}
	a.AgeMin = &min
	a.AgeMax = &max
	a.UpdatedAt = time.Now()
	return nil
}

// SetFree marks the activity free and drops any price bounds.
func (a *Activity) SetFree() {
	a.IsFree = true
	a.PriceMin = nil
	a.PriceMax = nil
	a.UpdatedAt = time.Now()
}

func (a *Activity) SetPriceRange(min, max float64) error {
	if err := validatePriceRange(&min, &max); err != nil {
		return err
	}
	a.IsFree = false
	a.PriceMin = &min
	a.PriceMax = &max
	a.UpdatedAt = time.Now()
	return nil
}

func (a *Activity) SetEnvironment(indoor, outdoor bool) {
	a.IsIndoor = indoor
	a.IsOutdoor = outdoor
	a.UpdatedAt = time.Now()
}

// AddCategory tags the activity with categoryID; duplicates are ignored.
func (a *Activity) AddCategory(categoryID string) {
	if a.HasCategory(categoryID) {
		return
	}
	a.CategoryIDs = append(a.CategoryIDs, categoryID)
	a.UpdatedAt = time.Now()
}

func (a *Activity) HasCategory(categoryID string) bool {
	for _, id := range a.CategoryIDs {
		if id == categoryID {
			return true
		}
	}
	return false
}

func (a *Activity) IsEvent() bool {
	return a.Kind == KindEvent
}

func (a *Activity) Point() geo.Point {
	return geo.Point{Latitude: a.Latitude, Longitude: a.Longitude}
}

// DistanceFrom returns the distance in kilometers from the given coordinate.
func (a *Activity) DistanceFrom(latitude, longitude float64) float64 {
	return geo.Distance(latitude, longitude, a.Latitude, a.Longitude)
}

func (a *Activity) Validate() error {
	if !IsValidKind(a.Kind) {
		return fmt.Errorf("invalid activity kind: %s", a.Kind)
	}
	if err := validateActivityName(a.Name); err != nil {
		return err
	}
	if err := geo.ValidateCoordinates(a.Latitude, a.Longitude); err != nil {
		return err
	}
	if err := validateAgeRange(a.AgeMin, a.AgeMax); err != nil {
		return err
	}
	if !a.IsFree {
		if err := validatePriceRange(a.PriceMin, a.PriceMax); err != nil {
			return err
		}
	}

	switch a.Kind {
	case KindEvent:
		if a.StartsAt == nil {
			return fmt.Errorf("event start time is required")
		}
		if a.EndsAt != nil && a.EndsAt.Before(*a.StartsAt) {
			return fmt.Errorf("event cannot end before it starts")
		}
	case KindVenue:
		if a.StartsAt != nil || a.EndsAt != nil {
			return fmt.Errorf("venues do not have a schedule")
		}
	}

	return nil
}

func IsValidKind(kind ActivityKind) bool {
	return kind == KindVenue || kind == KindEvent
}

func validateActivityName(name string) error {
	if len(strings.TrimSpace(name)) == 0 {
		return fmt.Errorf("name is required")
	}
	if len(name) > 200 {
		return fmt.Errorf("name must not exceed 200 characters")
	}
	return nil
}

func validateAgeRange(min, max *int) error {
	if min != nil && *min < 0 {
		return fmt.Errorf("minimum age cannot be negative")
	}
	if max != nil && *max < 0 {
		return fmt.Errorf("maximum age cannot be negative")
	}
	if min != nil && max != nil && *min > *max {
		return fmt.Errorf("minimum age %d exceeds maximum age %d", *min, *max)
	}
	return nil
}

func validatePriceRange(min, max *float64) error {
	if min != nil && *min < 0 {
		return fmt.Errorf("minimum price cannot be negative")
	}
	if max != nil && *max < 0 {
		return fmt.Errorf("maximum price cannot be negative")
	}
	if min != nil && max != nil && *min > *max {
		return fmt.Errorf("minimum price %.2f exceeds maximum price %.2f", *min, *max)
	}
	return nil
}
