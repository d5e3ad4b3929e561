package discovery

import (
	"context"
	"errors"

	"github.com/bcnelson/playfinder/internal/logging"
	"github.com/bcnelson/playfinder/internal/storage"
	"github.com/bcnelson/playfinder/pkg/models"
)

// CreateActivity stores a new activity and indexes it.
func (s *Service) CreateActivity(ctx context.Context, activity *models.Activity) error {
	if err := s.activities.Create(ctx, activity); err != nil {
		return err
	}
	s.indexUpsert(ctx, *activity)
	return nil
}

// UpdateActivity rewrites an existing activity and moves it in the index.
func (s *Service) UpdateActivity(ctx context.Context, activity *models.Activity) error {
	if err := s.activities.Update(ctx, activity); err != nil {
		return err
	}
	s.indexUpsert(ctx, *activity)
	return nil
}

// SaveActivity creates the activity or updates it when its ID exists.
func (s *Service) SaveActivity(ctx context.Context, activity *models.Activity) error {
	_, err := s.activities.GetByID(ctx, activity.ID)
	switch {
	case err == nil:
		return s.UpdateActivity(ctx, activity)
	case errors.Is(err, storage.ErrNotFound):
		return s.CreateActivity(ctx, activity)
	default:
		return err
	}
}

func (s *Service) DeleteActivity(ctx context.Context, id string) error {
	if err := s.activities.Delete(ctx, id); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.Remove(ctx, id); err != nil {
			s.logger.Warn(ctx, "geo index remove failed", logging.String("activity_id", id), logging.Err(err))
		}
	}
	return nil
}

// Reindex rebuilds the geo index from storage and returns how many
// activities it holds.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, ErrIndexDisabled
	}

	all, err := s.activities.List(ctx, storage.ActivityQuery{})
	if err != nil {
		return 0, err
	}

	n, err := s.index.Rebuild(ctx, all)
	if err != nil {
		return n, err
	}
	if s.observer != nil {
		s.observer.SetIndexedActivities(n)
	}
	s.logger.Info(ctx, "geo index rebuilt", logging.Int("activities", n))
	return n, nil
}

// The database is the source of truth; a failed index write is logged and
// repaired by the next Reindex.
func (s *Service) indexUpsert(ctx context.Context, activity models.Activity) {
	if s.index == nil {
		return
	}
	if err := s.index.Upsert(ctx, activity); err != nil {
		s.logger.Warn(ctx, "geo index upsert failed", logging.String("activity_id", activity.ID), logging.Err(err))
	}
}
