package filters

import (
	"math"
	"sort"

	"github.com/bcnelson/playfinder/pkg/geo"
	"github.com/bcnelson/playfinder/pkg/models"
)

// Ranked is an activity annotated with its distance from the user in
// kilometers. Distance is nil when the user's position is unknown.
type Ranked struct {
	models.Activity
	Distance *float64 `json:"distance,omitempty"`
}

// DistanceKm returns the annotated distance, or +Inf when there is none so
// that unranked records sort last.
func (r Ranked) DistanceKm() float64 {
	if r.Distance == nil {
		return math.Inf(1)
	}
	return *r.Distance
}

// Unranked wraps records without distance information.
func Unranked(records []models.Activity) []Ranked {
	out := make([]Ranked, len(records))
	for i, activity := range records {
		out[i] = Ranked{Activity: activity}
	}
	return out
}

// WithDistance pairs each record with its distance from (userLat, userLng),
// keeping the input order.
func WithDistance(records []models.Activity, userLat, userLng float64) []Ranked {
	out := make([]Ranked, len(records))
	for i, activity := range records {
		d := geo.Distance(userLat, userLng, activity.Latitude, activity.Longitude)
		out[i] = Ranked{Activity: activity, Distance: &d}
	}
	return out
}

// RankByDistance annotates records and orders them nearest first. Records at
// equal distance keep their relative order.
func RankByDistance(records []models.Activity, userLat, userLng float64) []Ranked {
	ranked := WithDistance(records, userLat, userLng)
	SortRanked(ranked)
	return ranked
}

// SortRanked stably orders ranked in place, nearest first.
func SortRanked(ranked []Ranked) {
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm() < ranked[j].DistanceKm()
	})
}

// SortByDistance returns the records reordered nearest first. The result is a
// new slice; records itself is not reordered, so callers may share it.
func SortByDistance(records []models.Activity, userLat, userLng float64) []models.Activity {
	ranked := RankByDistance(records, userLat, userLng)
	out := make([]models.Activity, len(ranked))
	for i, r := range ranked {
		out[i] = r.Activity
	}
	return out
}

// Nearest returns the closest record, or false when records is empty.
func Nearest(records []models.Activity, userLat, userLng float64) (Ranked, bool) {
	if len(records) == 0 {
		return Ranked{}, false
	}

	best := 0
	bestDistance := records[0].DistanceFrom(userLat, userLng)
	for i := 1; i < len(records); i++ {
		if d := records[i].DistanceFrom(userLat, userLng); d < bestDistance {
			best, bestDistance = i, d
		}
	}

	return Ranked{Activity: records[best], Distance: &bestDistance}, true
}
