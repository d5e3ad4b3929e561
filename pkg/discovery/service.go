package discovery

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bcnelson/playfinder/internal/logging"
	"github.com/bcnelson/playfinder/internal/storage"
	"github.com/bcnelson/playfinder/pkg/filters"
	"github.com/bcnelson/playfinder/pkg/geo"
	"github.com/bcnelson/playfinder/pkg/models"
)

var (
	ErrTimeRequired  = errors.New("a visit time is required for venues")
	ErrIndexDisabled = errors.New("geo index is not enabled")
)

// ActivitySource is the query façade over stored activities.
type ActivitySource interface {
	List(ctx context.Context, q storage.ActivityQuery) ([]models.Activity, error)
	GetByID(ctx context.Context, id string) (*models.Activity, error)
	Create(ctx context.Context, activity *models.Activity) error
	Update(ctx context.Context, activity *models.Activity) error
	Delete(ctx context.Context, id string) error
}

type FavoriteStore interface {
	Add(ctx context.Context, userID, activityID string) error
	Remove(ctx context.Context, userID, activityID string) error
	ListActivityIDs(ctx context.Context, userID string) ([]string, error)
	Exists(ctx context.Context, userID, activityID string) (bool, error)
}

type VisitStore interface {
	Create(ctx context.Context, visit *models.Visit) error
	GetByID(ctx context.Context, id string) (*models.Visit, error)
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string, from, to time.Time) ([]models.Visit, error)
}

// NearbyIndex narrows radius searches to candidate IDs.
type NearbyIndex interface {
	Upsert(ctx context.Context, activity models.Activity) error
	Remove(ctx context.Context, activityID string) error
	Rebuild(ctx context.Context, activities []models.Activity) (int, error)
	NearbyIDs(ctx context.Context, lat, lng, radiusKm float64) ([]string, error)
	Covers(origin geo.Point, radiusKm float64) bool
}

// Observer receives filter and index measurements.
type Observer interface {
	ObserveFilter(evaluated, visible int)
	SetIndexedActivities(n int)
}

type Service struct {
	activities ActivitySource
	favorites  FavoriteStore
	visits     VisitStore
	index      NearbyIndex
	engine     *filters.Engine
	observer   Observer
	logger     logging.Logger

	defaultMaxDistanceKm float64
	filterConfig         *filters.FilterConfig
}

type Option func(*Service)

// WithIndex enables the geo index prefilter.
func WithIndex(index NearbyIndex) Option {
	return func(s *Service) { s.index = index }
}

func WithObserver(observer Observer) Option {
	return func(s *Service) { s.observer = observer }
}

func WithLogger(logger logging.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithEngine replaces the standard filter engine.
func WithEngine(engine *filters.Engine) Option {
	return func(s *Service) { s.engine = engine }
}

// WithFilterConfig switches built-in rules on or off. It applies to the
// engine the service ends up with, including one set by WithEngine.
func WithFilterConfig(config filters.FilterConfig) Option {
	return func(s *Service) { s.filterConfig = &config }
}

// WithDefaultMaxDistance applies radiusKm to searches that know the user's
// position but did not ask for a radius.
func WithDefaultMaxDistance(radiusKm float64) Option {
	return func(s *Service) { s.defaultMaxDistanceKm = radiusKm }
}

func NewService(activities ActivitySource, favorites FavoriteStore, visits VisitStore, opts ...Option) *Service {
	s := &Service{
		activities: activities,
		favorites:  favorites,
		visits:     visits,
		engine:     filters.NewStandardEngine(filters.DefaultFilterConfig),
		logger:     logging.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.filterConfig != nil {
		s.engine.UpdateConfig(*s.filterConfig)
	}
	return s
}

// Engine exposes the filter engine so callers can manage rules.
func (s *Service) Engine() *filters.Engine {
	return s.engine
}

// Get returns one activity, annotated with its distance when origin is set.
func (s *Service) Get(ctx context.Context, id string, origin *geo.Point) (filters.Ranked, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return filters.Ranked{}, err
	}
	return rank(*activity, origin), nil
}

// Explain reports which rules would show or hide the activity.
func (s *Service) Explain(ctx context.Context, id string, criteria filters.Criteria, origin *geo.Point) (filters.VisibilityExplanation, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return filters.VisibilityExplanation{}, err
	}
	return s.engine.Explain(filters.NewQuery(s.withDefaults(criteria, origin), origin), *activity), nil
}

func (s *Service) withDefaults(criteria filters.Criteria, origin *geo.Point) filters.Criteria {
	if origin != nil && criteria.MaxDistance == "" && s.defaultMaxDistanceKm > 0 {
		criteria.MaxDistance = strconv.FormatFloat(s.defaultMaxDistanceKm, 'f', -1, 64)
	}
	return criteria
}

func rank(activity models.Activity, origin *geo.Point) filters.Ranked {
	r := filters.Ranked{Activity: activity}
	if origin != nil {
		d := activity.DistanceFrom(origin.Latitude, origin.Longitude)
		r.Distance = &d
	}
	return r
}

func (s *Service) observeFilter(evaluated, visible int) {
	if s.observer != nil {
		s.observer.ObserveFilter(evaluated, visible)
	}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
}
