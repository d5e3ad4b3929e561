package discovery

import (
	"fmt"
	"time"

	"github.com/bcnelson/playfinder/pkg/models"
)

// ActivityInput is the writable part of an activity as clients and import
// files supply it.
type ActivityInput struct {
	ID          string              `json:"id,omitempty"`
	Kind        models.ActivityKind `json:"kind" binding:"required"`
	Name        string              `json:"name" binding:"required"`
	Description string              `json:"description"`
	Address     string              `json:"address"`
	Latitude    *float64            `json:"latitude" binding:"required"`
	Longitude   *float64            `json:"longitude" binding:"required"`
	AgeMin      *int                `json:"age_min"`
	AgeMax      *int                `json:"age_max"`
	IsFree      bool                `json:"is_free"`
	PriceMin    *float64            `json:"price_min"`
	PriceMax    *float64            `json:"price_max"`
	IsIndoor    bool                `json:"is_indoor"`
	IsOutdoor   bool                `json:"is_outdoor"`
	CategoryIDs []string            `json:"category_ids"`
	StartsAt    *time.Time          `json:"starts_at"`
	EndsAt      *time.Time          `json:"ends_at"`
	ImageURL    string              `json:"image_url"`
	Website     string              `json:"website"`
}

// Build creates a new validated activity from the input. An ID in the input
// is kept.
func (in ActivityInput) Build() (*models.Activity, error) {
	if in.Latitude == nil || in.Longitude == nil {
		return nil, fmt.Errorf("latitude and longitude are required")
	}

	var (
		activity *models.Activity
		err      error
	)
	switch in.Kind {
	case models.KindVenue:
		activity, err = models.NewVenue(in.Name, in.Address, *in.Latitude, *in.Longitude)
	case models.KindEvent:
		if in.StartsAt == nil {
			return nil, fmt.Errorf("event start time is required")
		}
		activity, err = models.NewEvent(in.Name, in.Address, *in.Latitude, *in.Longitude, *in.StartsAt, in.EndsAt)
	default:
		return nil, fmt.Errorf("invalid activity kind: %q", in.Kind)
	}
	if err != nil {
		return nil, err
	}

	if in.ID != "" {
		activity.ID = in.ID
	}
	if err := in.ApplyTo(activity); err != nil {
		return nil, err
	}
	return activity, nil
}

// ApplyTo overwrites every writable field of activity and validates it.
func (in ActivityInput) ApplyTo(activity *models.Activity) error {
	if in.Latitude == nil || in.Longitude == nil {
		return fmt.Errorf("latitude and longitude are required")
	}

	activity.Kind = in.Kind
	activity.Name = in.Name
	activity.Description = in.Description
	activity.Address = in.Address
	activity.Latitude = *in.Latitude
	activity.Longitude = *in.Longitude
	activity.AgeMin = in.AgeMin
	activity.AgeMax = in.AgeMax
	activity.IsFree = in.IsFree
	activity.PriceMin = in.PriceMin
	activity.PriceMax = in.PriceMax
	activity.IsIndoor = in.IsIndoor
	activity.IsOutdoor = in.IsOutdoor
	activity.CategoryIDs = append([]string{}, in.CategoryIDs...)
	activity.StartsAt = in.StartsAt
	activity.EndsAt = in.EndsAt
	activity.ImageURL = in.ImageURL
	activity.Website = in.Website
	if activity.IsFree {
		activity.PriceMin, activity.PriceMax = nil, nil
	}

	return activity.Validate()
}
