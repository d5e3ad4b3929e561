package filters

import "github.com/bcnelson/playfinder/pkg/models"

// FilterRule is one independently toggled predicate. Rules are combined with
// logical AND; a rule with nothing to check must report visible.
type FilterRule interface {
	Apply(q Query, activity models.Activity) (visible bool, reason string)
	Name() string
	Priority() int
}

type FilterConfig struct {
	EnableEnvironmentFilter bool `json:"enable_environment_filter" yaml:"environment"`
	EnablePriceFilter       bool `json:"enable_price_filter" yaml:"price"`
	EnableAgeFilter         bool `json:"enable_age_filter" yaml:"age"`
	EnableDistanceFilter    bool `json:"enable_distance_filter" yaml:"distance"`
	EnableCategoryFilter    bool `json:"enable_category_filter" yaml:"category"`
	EnableDateFilter        bool `json:"enable_date_filter" yaml:"date"`
}

// Enabled reports whether the built-in rule called name is switched on.
// Rules the config does not know about are always enabled.
func (c FilterConfig) Enabled(name string) bool {
	switch name {
	case EnvironmentFilterName:
		return c.EnableEnvironmentFilter
	case PriceFilterName:
		return c.EnablePriceFilter
	case AgeFilterName:
		return c.EnableAgeFilter
	case DistanceFilterName:
		return c.EnableDistanceFilter
	case CategoryFilterName:
		return c.EnableCategoryFilter
	case DateFilterName:
		return c.EnableDateFilter
	default:
		return true
	}
}

type VisibilityExplanation struct {
	ActivityID    string              `json:"activity_id"`
	ActivityName  string              `json:"activity_name"`
	IsVisible     bool                `json:"is_visible"`
	FilterResults []FilterExplanation `json:"filter_results"`
}

type FilterExplanation struct {
	FilterName string `json:"filter_name"`
	Passed     bool   `json:"passed"`
	Reason     string `json:"reason"`
	Priority   int    `json:"priority"`
}

var DefaultFilterConfig = FilterConfig{
	EnableEnvironmentFilter: true,
	EnablePriceFilter:       true,
	EnableAgeFilter:         true,
	EnableDistanceFilter:    true,
	EnableCategoryFilter:    true,
	EnableDateFilter:        true,
}

// DefaultRules returns a fresh instance of every built-in rule.
func DefaultRules() []FilterRule {
	return []FilterRule{
		&CategoryFilter{},
		&PriceFilter{},
		&EnvironmentFilter{},
		&AgeFilter{},
		&DateRangeFilter{},
		&DistanceFilter{},
	}
}
