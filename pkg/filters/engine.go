package filters

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bcnelson/playfinder/pkg/geo"
	"github.com/bcnelson/playfinder/pkg/models"
)

// Engine evaluates a set of FilterRules over activity collections. It never
// mutates the records it is given and holds no per-call state, so one Engine
// may serve concurrent callers.
type Engine struct {
	rules  []FilterRule
	config FilterConfig
	mu     sync.RWMutex
}

func NewEngine(config FilterConfig) *Engine {
	return &Engine{
		rules:  []FilterRule{},
		config: config,
	}
}

// NewStandardEngine returns an engine with every built-in rule registered.
func NewStandardEngine(config FilterConfig) *Engine {
	e := NewEngine(config)
	for _, rule := range DefaultRules() {
		e.AddRule(rule)
	}
	return e
}

var defaultEngine = NewStandardEngine(DefaultFilterConfig)

// Filter narrows records with the built-in rules and default configuration.
func Filter(records []models.Activity, criteria Criteria, origin *geo.Point) []models.Activity {
	return defaultEngine.Filter(records, criteria, origin)
}

func (e *Engine) AddRule(rule FilterRule) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, existingRule := range e.rules {
		if existingRule.Name() == rule.Name() {
			e.rules[i] = rule
			return
		}
	}

	e.rules = append(e.rules, rule)
	e.sortRulesByPriority()
}

func (e *Engine) RemoveRule(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, rule := range e.rules {
		if rule.Name() == name {
			e.rules = append(e.rules[:i], e.rules[i+1:]...)
			return
		}
	}
}

// Filter returns the records passing every enabled rule, in their original
// order. The input slice is left untouched.
func (e *Engine) Filter(records []models.Activity, criteria Criteria, origin *geo.Point) []models.Activity {
	return e.FilterQuery(NewQuery(criteria, origin), records)
}

func (e *Engine) FilterQuery(q Query, records []models.Activity) []models.Activity {
	e.mu.RLock()
	defer e.mu.RUnlock()

	visible := make([]models.Activity, 0, len(records))
	for _, activity := range records {
		if e.passes(q, activity) {
			visible = append(visible, activity)
		}
	}
	return visible
}

func (e *Engine) passes(q Query, activity models.Activity) bool {
	for _, rule := range e.rules {
		if !e.config.Enabled(rule.Name()) {
			continue
		}
		if ok, _ := rule.Apply(q, activity); !ok {
			return false
		}
	}
	return true
}

func (e *Engine) sortRulesByPriority() {
	sort.SliceStable(e.rules, func(i, j int) bool {
		return e.rules[i].Priority() > e.rules[j].Priority()
	})
}

// Explain evaluates every rule against a single activity and reports each
// outcome, including rules that are switched off.
func (e *Engine) Explain(q Query, activity models.Activity) VisibilityExplanation {
	e.mu.RLock()
	defer e.mu.RUnlock()

	explanation := VisibilityExplanation{
		ActivityID:    activity.ID,
		ActivityName:  activity.Name,
		IsVisible:     true,
		FilterResults: []FilterExplanation{},
	}

	for _, rule := range e.rules {
		visible, reason := true, "filter disabled"
		if e.config.Enabled(rule.Name()) {
			visible, reason = rule.Apply(q, activity)
		}

		explanation.FilterResults = append(explanation.FilterResults, FilterExplanation{
			FilterName: rule.Name(),
			Passed:     visible,
			Reason:     reason,
			Priority:   rule.Priority(),
		})

		if !visible {
			explanation.IsVisible = false
		}
	}

	return explanation
}

func (e *Engine) Stats(q Query, records []models.Activity) FilterStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	stats := FilterStats{
		TotalActivities: len(records),
		FilterResults:   make(map[string]FilterRuleStats),
	}

	for _, rule := range e.rules {
		if !e.config.Enabled(rule.Name()) {
			continue
		}
		ruleStats := FilterRuleStats{Name: rule.Name()}
		for _, activity := range records {
			if visible, _ := rule.Apply(q, activity); visible {
				ruleStats.Visible++
			} else {
				ruleStats.Hidden++
			}
		}
		stats.FilterResults[rule.Name()] = ruleStats
	}

	for _, activity := range records {
		if e.passes(q, activity) {
			stats.VisibleActivities++
		}
	}

	return stats
}

type FilterStats struct {
	TotalActivities   int                        `json:"total_activities"`
	VisibleActivities int                        `json:"visible_activities"`
	FilterResults     map[string]FilterRuleStats `json:"filter_results"`
}

type FilterRuleStats struct {
	Name    string `json:"name"`
	Visible int    `json:"visible"`
	Hidden  int    `json:"hidden"`
}

func (e *Engine) ApplySingleFilter(filterName string, q Query, activity models.Activity) (bool, string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, rule := range e.rules {
		if rule.Name() == filterName {
			visible, reason := rule.Apply(q, activity)
			return visible, reason, nil
		}
	}

	return false, "", fmt.Errorf("filter '%s' not found", filterName)
}

func (e *Engine) RegisteredFilters() []FilterInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()

	filters := make([]FilterInfo, len(e.rules))
	for i, rule := range e.rules {
		filters[i] = FilterInfo{
			Name:     rule.Name(),
			Priority: rule.Priority(),
			Enabled:  e.config.Enabled(rule.Name()),
		}
	}

	return filters
}

type FilterInfo struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
	Enabled  bool   `json:"enabled"`
}

func (e *Engine) DisableFilter(filterName string) error {
	return e.setFilterEnabled(filterName, false)
}

func (e *Engine) EnableFilter(filterName string) error {
	return e.setFilterEnabled(filterName, true)
}

func (e *Engine) setFilterEnabled(filterName string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch filterName {
	case EnvironmentFilterName:
		e.config.EnableEnvironmentFilter = enabled
	case PriceFilterName:
		e.config.EnablePriceFilter = enabled
	case AgeFilterName:
		e.config.EnableAgeFilter = enabled
	case DistanceFilterName:
		e.config.EnableDistanceFilter = enabled
	case CategoryFilterName:
		e.config.EnableCategoryFilter = enabled
	case DateFilterName:
		e.config.EnableDateFilter = enabled
	default:
		return fmt.Errorf("unknown filter: %s", filterName)
	}

	return nil
}

func (e *Engine) GetConfig() FilterConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config
}

func (e *Engine) UpdateConfig(config FilterConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.config = config
}
