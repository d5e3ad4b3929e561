package discovery

import (
	"context"
	"sort"
	"strings"

	"github.com/bcnelson/playfinder/internal/logging"
	"github.com/bcnelson/playfinder/internal/storage"
	"github.com/bcnelson/playfinder/pkg/filters"
	"github.com/bcnelson/playfinder/pkg/geo"
	"github.com/bcnelson/playfinder/pkg/models"
)

// Sort orders accepted by Search.
const (
	SortDistance = "distance"
	SortName     = "name"
	SortStart    = "start"
)

// SearchRequest describes one listing query.
type SearchRequest struct {
	Kind     models.ActivityKind // empty searches venues and events
	Criteria filters.Criteria
	Origin   *geo.Point
	Text     string
	Sort     string
	Limit    int
	Offset   int
}

type SearchResult struct {
	Activities []filters.Ranked `json:"activities"`
	Total      int              `json:"total"`
}

// ValidSort reports whether sort is a recognised sort order. Empty selects
// the default.
func ValidSort(sort string) bool {
	switch sort {
	case "", SortDistance, SortName, SortStart:
		return true
	}
	return false
}

// Search fetches candidates through the façade, runs the filter engine,
// annotates distance when the origin is known, sorts and pages.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	criteria := s.withDefaults(req.Criteria, req.Origin)
	q := filters.NewQuery(criteria, req.Origin)

	query := storage.ActivityQuery{
		Kind:       req.Kind,
		CategoryID: criteria.CategoryID,
		Search:     req.Text,
	}
	if req.Kind == models.KindEvent {
		query.From = criteria.StartDate
		query.To = criteria.EndDate
	}

	if radius, ok := s.distancePrefilter(q); ok {
		s.narrowByDistance(ctx, &query, *req.Origin, radius)
	}

	records, err := s.activities.List(ctx, query)
	if err != nil {
		return nil, err
	}

	visible := s.engine.FilterQuery(q, records)
	s.observeFilter(len(records), len(visible))

	var ranked []filters.Ranked
	if req.Origin != nil {
		ranked = filters.WithDistance(visible, req.Origin.Latitude, req.Origin.Longitude)
	} else {
		ranked = filters.Unranked(visible)
	}

	sortRanked(ranked, resolveSort(req.Sort, req.Origin, req.Kind))

	return &SearchResult{
		Activities: page(ranked, req.Offset, req.Limit),
		Total:      len(ranked),
	}, nil
}

// distancePrefilter returns the radius to narrow storage by, when the
// distance rule will run for q.
func (s *Service) distancePrefilter(q filters.Query) (float64, bool) {
	if q.Origin == nil || !s.distanceRuleActive() {
		return 0, false
	}
	radius, ok := q.MaxDistance()
	if !ok {
		return 0, false
	}
	// Pad so storage never drops a record the exact rule would keep.
	return radius*1.005 + 0.01, true
}

func (s *Service) distanceRuleActive() bool {
	for _, info := range s.engine.RegisteredFilters() {
		if info.Name == filters.DistanceFilterName {
			return info.Enabled
		}
	}
	return false
}

func (s *Service) narrowByDistance(ctx context.Context, query *storage.ActivityQuery, origin geo.Point, radius float64) {
	if s.index != nil && s.index.Covers(origin, radius) {
		ids, err := s.index.NearbyIDs(ctx, origin.Latitude, origin.Longitude, radius)
		if err == nil {
			query.IDs = ids
			return
		}
		s.logger.Warn(ctx, "geo index lookup failed, using bounding box", logging.Err(err))
	}
	bounds := geo.BoundsAround(origin, radius)
	query.Within = &bounds
}

func resolveSort(requested string, origin *geo.Point, kind models.ActivityKind) string {
	switch {
	case requested != "":
		return requested
	case origin != nil:
		return SortDistance
	case kind == models.KindEvent:
		return SortStart
	default:
		return SortName
	}
}

func sortRanked(ranked []filters.Ranked, order string) {
	switch order {
	case SortDistance:
		filters.SortRanked(ranked)
	case SortStart:
		sort.SliceStable(ranked, func(i, j int) bool {
			a, b := ranked[i].StartsAt, ranked[j].StartsAt
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.Before(*b)
			}
		})
	default:
		sort.SliceStable(ranked, func(i, j int) bool {
			return strings.ToLower(ranked[i].Name) < strings.ToLower(ranked[j].Name)
		})
	}
}

func page(ranked []filters.Ranked, offset, limit int) []filters.Ranked {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(ranked) {
		return []filters.Ranked{}
	}
	ranked = ranked[offset:]
	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked
}
