package filters

import "github.com/bcnelson/playfinder/pkg/models"

const EnvironmentFilterName = "environment"

// EnvironmentFilter applies the indoor/outdoor toggles. Only one toggle set
// restricts; both set behaves exactly like neither set, so "indoor and
// outdoor" never means "either". Product has not confirmed this is intended.
type EnvironmentFilter struct{}

func (f *EnvironmentFilter) Name() string {
	return EnvironmentFilterName
}

func (f *EnvironmentFilter) Priority() int {
	return 80
}

func (f *EnvironmentFilter) Apply(q Query, activity models.Activity) (visible bool, reason string) {
	indoor, outdoor := q.Criteria.Indoor, q.Criteria.Outdoor

	if indoor == outdoor {
		return true, "no indoor/outdoor restriction"
	}

	if indoor {
		if activity.IsIndoor {
			return true, "indoor activity"
		}
		return false, "not an indoor activity"
	}

	if activity.IsOutdoor {
		return true, "outdoor activity"
	}
	return false, "not an outdoor activity"
}
