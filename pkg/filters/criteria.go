package filters

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bcnelson/playfinder/pkg/geo"
)

// Sentinel values the age pickers send when the user has not moved them.
// They are compared as raw strings before any parsing.
const (
	MinAgeNoop = "0"
	MaxAgeNoop = "12"
)

// Criteria is the caller-supplied filter state. Numeric fields arrive as the
// strings the client sent; a value that does not parse disables only its own
// rule and never fails the request.
type Criteria struct {
	Indoor      bool       `json:"indoor,omitempty" form:"indoor"`
	Outdoor     bool       `json:"outdoor,omitempty" form:"outdoor"`
	Free        bool       `json:"free,omitempty" form:"free"`
	MinAge      string     `json:"minAge,omitempty" form:"minAge"`
	MaxAge      string     `json:"maxAge,omitempty" form:"maxAge"`
	MaxDistance string     `json:"maxDistance,omitempty" form:"maxDistance"`
	CategoryID  string     `json:"categoryId,omitempty" form:"categoryId"`
	StartDate   *time.Time `json:"startDate,omitempty" form:"-"`
	EndDate     *time.Time `json:"endDate,omitempty" form:"-"`
}

// Query is Criteria resolved once per filter pass: numeric strings are parsed
// and the user's position, if known, is attached.
type Query struct {
	Criteria Criteria
	Origin   *geo.Point

	minAge      *float64
	maxAge      *float64
	maxDistance *float64
}

func NewQuery(criteria Criteria, origin *geo.Point) Query {
	return Query{
		Criteria:    criteria,
		Origin:      origin,
		minAge:      parseBound(criteria.MinAge, MinAgeNoop),
		maxAge:      parseBound(criteria.MaxAge, MaxAgeNoop),
		maxDistance: parseBound(criteria.MaxDistance, ""),
	}
}

// MinAge returns the parsed lower age bound, if one applies.
func (q Query) MinAge() (float64, bool) {
	return deref(q.minAge)
}

// MaxAge returns the parsed upper age bound, if one applies.
func (q Query) MaxAge() (float64, bool) {
	return deref(q.maxAge)
}

// MaxDistance returns the parsed radius in kilometers, if one applies.
func (q Query) MaxDistance() (float64, bool) {
	return deref(q.maxDistance)
}

// IsEmpty reports whether no rule has anything to check.
func (q Query) IsEmpty() bool {
	c := q.Criteria
	return c.Indoor == c.Outdoor && !c.Free &&
		q.minAge == nil && q.maxAge == nil &&
		(q.maxDistance == nil || q.Origin == nil) &&
		c.CategoryID == "" && c.StartDate == nil && c.EndDate == nil
}

func parseBound(value, noop string) *float64 {
	if value == "" || value == noop {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil
	}
	return &v
}

func deref(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}
