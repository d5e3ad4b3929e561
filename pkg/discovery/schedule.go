package discovery

import (
	"context"
	"time"

	"github.com/bcnelson/playfinder/internal/storage"
	"github.com/bcnelson/playfinder/pkg/models"
)

// ScheduledVisit is a visit with the activity it refers to.
type ScheduledVisit struct {
	models.Visit
	Activity models.Activity `json:"activity"`
}

// ScheduleVisit plans a visit. A nil at is allowed for events and means the
// event's start time.
func (s *Service) ScheduleVisit(ctx context.Context, userID, activityID string, at *time.Time, note string) (*models.Visit, error) {
	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, err
	}

	var scheduledAt time.Time
	switch {
	case at != nil:
		scheduledAt = *at
	case activity.StartsAt != nil:
		scheduledAt = *activity.StartsAt
	default:
		return nil, ErrTimeRequired
	}

	visit, err := models.NewVisit(userID, activity.ID, scheduledAt, note)
	if err != nil {
		return nil, err
	}
	if err := s.visits.Create(ctx, visit); err != nil {
		return nil, err
	}
	return visit, nil
}

// Upcoming lists the user's visits in [from, to], soonest first. A zero to
// leaves the window open.
func (s *Service) Upcoming(ctx context.Context, userID string, from, to time.Time) ([]ScheduledVisit, error) {
	visits, err := s.visits.ListByUser(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(visits))
	seen := make(map[string]bool)
	for _, v := range visits {
		if !seen[v.ActivityID] {
			seen[v.ActivityID] = true
			ids = append(ids, v.ActivityID)
		}
	}

	records, err := s.activities.List(ctx, storage.ActivityQuery{IDs: ids})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Activity, len(records))
	for _, a := range records {
		byID[a.ID] = a
	}

	scheduled := make([]ScheduledVisit, 0, len(visits))
	for _, v := range visits {
		activity, ok := byID[v.ActivityID]
		if !ok {
			continue
		}
		scheduled = append(scheduled, ScheduledVisit{Visit: v, Activity: activity})
	}
	return scheduled, nil
}

// CancelVisit deletes one of the user's visits. Another user's visit is
// reported as not found.
func (s *Service) CancelVisit(ctx context.Context, userID, visitID string) error {
	visit, err := s.visits.GetByID(ctx, visitID)
	if err != nil {
		return err
	}
	if !visit.IsOwnedBy(userID) {
		return notFound("visit", visitID)
	}
	return s.visits.Delete(ctx, visitID)
}
