package discovery

import (
	"context"

	"github.com/bcnelson/playfinder/internal/storage"
	"github.com/bcnelson/playfinder/pkg/filters"
	"github.com/bcnelson/playfinder/pkg/geo"
	"github.com/bcnelson/playfinder/pkg/models"
)

// AddFavorite saves an existing activity for the user.
func (s *Service) AddFavorite(ctx context.Context, userID, activityID string) error {
	if _, err := s.activities.GetByID(ctx, activityID); err != nil {
		return err
	}
	return s.favorites.Add(ctx, userID, activityID)
}

func (s *Service) RemoveFavorite(ctx context.Context, userID, activityID string) error {
	return s.favorites.Remove(ctx, userID, activityID)
}

// Favorites lists the user's saved activities: nearest first when origin is
// known, otherwise most recently saved first.
func (s *Service) Favorites(ctx context.Context, userID string, origin *geo.Point) ([]filters.Ranked, error) {
	ids, err := s.favorites.ListActivityIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	records, err := s.activities.List(ctx, storage.ActivityQuery{IDs: ids})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Activity, len(records))
	for _, a := range records {
		byID[a.ID] = a
	}
	ordered := make([]models.Activity, 0, len(records))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			ordered = append(ordered, a)
		}
	}

	if origin == nil {
		return filters.Unranked(ordered), nil
	}
	return filters.RankByDistance(ordered, origin.Latitude, origin.Longitude), nil
}
