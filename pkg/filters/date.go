package filters

import (
	"fmt"
	"time"

	"github.com/bcnelson/playfinder/pkg/models"
)

const DateFilterName = "date"

// DateRangeFilter keeps events starting inside [StartDate, EndDate]. Either
// bound may be missing. Records without a start time (venues) are not
// restricted.
type DateRangeFilter struct{}

func (f *DateRangeFilter) Name() string {
	return DateFilterName
}

func (f *DateRangeFilter) Priority() int {
	return 60
}

func (f *DateRangeFilter) Apply(q Query, activity models.Activity) (visible bool, reason string) {
	from, to := q.Criteria.StartDate, q.Criteria.EndDate
	if from == nil && to == nil {
		return true, "no date restriction"
	}
	if activity.StartsAt == nil {
		return true, "activity has no start time"
	}

	start := *activity.StartsAt
	if from != nil && start.Before(*from) {
		return false, fmt.Sprintf("starts %s, before %s", start.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	if to != nil && start.After(*to) {
		return false, fmt.Sprintf("starts %s, after %s", start.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	return true, "starts within date range"
}
