package filters

import "github.com/bcnelson/playfinder/pkg/models"

const PriceFilterName = "price"

// PriceFilter keeps free activities when the free toggle is on. It looks only
// at the free flag; price bounds may be absent on free records.
type PriceFilter struct{}

func (f *PriceFilter) Name() string {
	return PriceFilterName
}

func (f *PriceFilter) Priority() int {
	return 90
}

func (f *PriceFilter) Apply(q Query, activity models.Activity) (visible bool, reason string) {
	if !q.Criteria.Free {
		return true, "no price restriction"
	}
	if activity.IsFree {
		return true, "free entry"
	}
	return false, "not free"
}
