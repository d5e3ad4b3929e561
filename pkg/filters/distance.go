package filters

import (
	"fmt"

	"github.com/bcnelson/playfinder/pkg/geo"
	"github.com/bcnelson/playfinder/pkg/models"
)

const DistanceFilterName = "distance"

// DistanceFilter keeps activities within the requested radius of the user.
// Without a known position or a usable radius it does not restrict.
type DistanceFilter struct{}

func (f *DistanceFilter) Name() string {
	return DistanceFilterName
}

func (f *DistanceFilter) Priority() int {
	return 50
}

func (f *DistanceFilter) Apply(q Query, activity models.Activity) (visible bool, reason string) {
	maxDistance, ok := q.MaxDistance()
	if !ok {
		return true, "no distance restriction"
	}
	if q.Origin == nil {
		return true, "current location unknown - showing all activities"
	}

	distance := geo.Distance(q.Origin.Latitude, q.Origin.Longitude, activity.Latitude, activity.Longitude)
	if distance <= maxDistance {
		return true, fmt.Sprintf("%.1fkm away, within %gkm", distance, maxDistance)
	}
	return false, fmt.Sprintf("too far (%.1fkm away, need to be within %gkm)", distance, maxDistance)
}
