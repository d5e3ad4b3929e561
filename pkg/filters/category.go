package filters

import "github.com/bcnelson/playfinder/pkg/models"

const CategoryFilterName = "category"

type CategoryFilter struct{}

func (f *CategoryFilter) Name() string {
	return CategoryFilterName
}

func (f *CategoryFilter) Priority() int {
	return 100
}

func (f *CategoryFilter) Apply(q Query, activity models.Activity) (visible bool, reason string) {
	categoryID := q.Criteria.CategoryID
	if categoryID == "" {
		return true, "no category restriction"
	}
	if activity.HasCategory(categoryID) {
		return true, "in category " + categoryID
	}
	return false, "not in category " + categoryID
}
