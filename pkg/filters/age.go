package filters

import (
	"fmt"

	"github.com/bcnelson/playfinder/pkg/models"
)

const AgeFilterName = "age"

// AgeFilter tests overlap between the requested ages and the activity's
// suitability range. A missing bound on the activity is open-ended.
type AgeFilter struct{}

func (f *AgeFilter) Name() string {
	return AgeFilterName
}

func (f *AgeFilter) Priority() int {
	return 70
}

func (f *AgeFilter) Apply(q Query, activity models.Activity) (visible bool, reason string) {
	minAge, hasMin := q.MinAge()
	maxAge, hasMax := q.MaxAge()

	if !hasMin && !hasMax {
		return true, "no age restriction"
	}

	// upper bound of the activity must reach the requested floor
	if hasMin && activity.AgeMax != nil && float64(*activity.AgeMax) < minAge {
		return false, fmt.Sprintf("suitable up to age %d, requested from %g", *activity.AgeMax, minAge)
	}

	// lower bound of the activity must not exceed the requested ceiling
	if hasMax && activity.AgeMin != nil && float64(*activity.AgeMin) > maxAge {
		return false, fmt.Sprintf("suitable from age %d, requested up to %g", *activity.AgeMin, maxAge)
	}

	return true, "age range overlaps"
}
