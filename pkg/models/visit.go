package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Visit is a family's plan to attend an activity at a given time.
type Visit struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	ActivityID  string    `db:"activity_id" json:"activity_id"`
	ScheduledAt time.Time `db:"scheduled_at" json:"scheduled_at"`
	Note        string    `db:"note" json:"note,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

func NewVisit(userID, activityID string, scheduledAt time.Time, note string) (*Visit, error) {
	v := &Visit{
		ID:          uuid.New().String(),
		UserID:      userID,
		ActivityID:  activityID,
		ScheduledAt: scheduledAt,
		Note:        note,
		CreatedAt:   time.Now(),
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Visit) Validate() error {
	if v.UserID == "" {
		return fmt.Errorf("user ID is required")
	}
	if v.ActivityID == "" {
		return fmt.Errorf("activity ID is required")
	}
	if v.ScheduledAt.IsZero() {
		return fmt.Errorf("scheduled time is required")
	}
	if len(v.Note) > 500 {
		return fmt.Errorf("note must not exceed 500 characters")
	}
	return nil
}

func (v *Visit) IsOwnedBy(userID string) bool {
	return v.UserID == userID
}
