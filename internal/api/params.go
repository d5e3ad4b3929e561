package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bcnelson/playfinder/pkg/filters"
	"github.com/bcnelson/playfinder/pkg/geo"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// parseCriteria reads filter criteria from the query string. Malformed values
// are dropped rather than rejected so that a bad parameter never hides
// results.
func parseCriteria(c *gin.Context) filters.Criteria {
	return filters.Criteria{
		Indoor:      queryBool(c, "indoor"),
		Outdoor:     queryBool(c, "outdoor"),
		Free:        queryBool(c, "free"),
		MinAge:      c.Query("minAge"),
		MaxAge:      c.Query("maxAge"),
		MaxDistance: c.Query("maxDistance"),
		CategoryID:  c.Query("categoryId"),
		StartDate:   queryTime(c, "startDate", false),
		EndDate:     queryTime(c, "endDate", true),
	}
}

// parseOrigin returns the caller's position when both lat and lng are valid.
func parseOrigin(c *gin.Context) *geo.Point {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		return nil
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		return nil
	}
	p, err := geo.NewPoint(lat, lng)
	if err != nil {
		return nil
	}
	return &p
}

func parsePage(c *gin.Context) (limit, offset int) {
	limit = defaultPageSize
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

func queryBool(c *gin.Context, key string) bool {
	switch strings.ToLower(c.Query(key)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// queryTime accepts RFC3339 or a plain date. A plain date used as an upper
// bound covers the whole day.
func queryTime(c *gin.Context, key string, endOfDay bool) *time.Time {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t
}
