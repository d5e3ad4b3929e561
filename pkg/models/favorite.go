package models

import "time"

type Favorite struct {
	UserID     string    `db:"user_id" json:"user_id"`
	ActivityID string    `db:"activity_id" json:"activity_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
