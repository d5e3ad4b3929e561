package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcnelson/playfinder/internal/cache"
	"github.com/bcnelson/playfinder/internal/metrics"
	"github.com/bcnelson/playfinder/internal/storage"
	"github.com/bcnelson/playfinder/pkg/filters"
	"github.com/bcnelson/playfinder/pkg/geo"
	"github.com/bcnelson/playfinder/pkg/models"
)

var (
	utrecht   = &geo.Point{Latitude: 52.0907, Longitude: 5.1214}
	fairStart = time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
)

type fixture struct {
	db      *storage.DB
	service *Service
	userID  string
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := storage.Open(storage.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	categories := storage.NewCategoryRepository(db)
	for _, slug := range []string{"museums", "parks", "animals"} {
		c, err := models.NewCategory(slug, slug)
		require.NoError(t, err)
		c.ID = slug
		require.NoError(t, categories.Create(ctx, c))
	}

	users := storage.NewUserRepository(db)
	user, err := models.NewUser("family@example.com", "Family")
	require.NoError(t, err)
	require.NoError(t, user.SetPassword("swings-and-slides"))
	require.NoError(t, users.Create(ctx, user))

	service := NewService(
		storage.NewActivityRepository(db),
		storage.NewFavoriteRepository(db),
		storage.NewVisitRepository(db),
		opts...,
	)

	for _, a := range catalog(t) {
		activity := a
		require.NoError(t, service.CreateActivity(ctx, &activity))
	}

	return &fixture{db: db, service: service, userID: user.ID}
}

func catalog(t *testing.T) []models.Activity {
	t.Helper()

	venue := func(id string, lat, lng float64, setup func(a *models.Activity)) models.Activity {
		a, err := models.NewVenue(id, "", lat, lng)
		require.NoError(t, err)
		a.ID = id
		setup(a)
		return *a
	}
	event := func(id string, lat, lng float64, start time.Time, setup func(a *models.Activity)) models.Activity {
		a, err := models.NewEvent(id, "", lat, lng, start, nil)
		require.NoError(t, err)
		a.ID = id
		setup(a)
		return *a
	}

	return []models.Activity{
		venue("museum", 52.0907, 5.1214, func(a *models.Activity) {
			a.SetEnvironment(true, false)
			require.NoError(t, a.SetPriceRange(5, 12))
			require.NoError(t, a.SetAgeRange(4, 12))
			a.AddCategory("museums")
		}),
		venue("park", 52.0800, 5.1400, func(a *models.Activity) {
			a.SetEnvironment(false, true)
			a.SetFree()
			a.AddCategory("parks")
		}),
		venue("farm", 52.1500, 5.0500, func(a *models.Activity) {
			a.SetEnvironment(true, true)
			a.SetFree()
			require.NoError(t, a.SetAgeRange(2, 8))
			a.AddCategory("animals")
		}),
		venue("cinema", 52.0950, 5.1100, func(a *models.Activity) {
			a.SetEnvironment(true, false)
			require.NoError(t, a.SetPriceRange(8, 8))
			require.NoError(t, a.SetAgeRange(6, 18))
		}),
		venue("library", 52.0890, 5.1150, func(a *models.Activity) {
			a.SetFree()
			a.AddCategory("museums")
		}),
		venue("beach", 52.4600, 4.5600, func(a *models.Activity) {
			a.SetEnvironment(false, true)
			a.SetFree()
			a.AddCategory("parks")
		}),
		event("fair", 52.0850, 5.1300, fairStart, func(a *models.Activity) {
			a.SetEnvironment(false, true)
			a.SetFree()
		}),
		event("concert", 52.1000, 5.1000, fairStart.AddDate(0, -1, 0), func(a *models.Activity) {
			a.SetEnvironment(true, false)
			require.NoError(t, a.SetPriceRange(15, 25))
		}),
	}
}

func rankedIDs(ranked []filters.Ranked) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.ID
	}
	return out
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("no criteria lists everything by name", func(t *testing.T) {
		result, err := f.service.Search(ctx, SearchRequest{})
		require.NoError(t, err)
		assert.Equal(t, 8, result.Total)
		assert.Equal(t, []string{"beach", "cinema", "concert", "fair", "farm", "library", "museum", "park"}, rankedIDs(result.Activities))
		assert.Nil(t, result.Activities[0].Distance)
	})

	t.Run("venues near the user sort by distance", func(t *testing.T) {
		result, err := f.service.Search(ctx, SearchRequest{Kind: models.KindVenue, Origin: utrecht})
		require.NoError(t, err)
		assert.Equal(t, []string{"museum", "library", "cinema", "park", "farm", "beach"}, rankedIDs(result.Activities))
		require.NotNil(t, result.Activities[0].Distance)
		assert.InDelta(t, 0, *result.Activities[0].Distance, 1e-9)
		assert.InDelta(t, 56.08, result.Activities[5].DistanceKm(), 0.01)
	})

	t.Run("free within ten kilometers", func(t *testing.T) {
		result, err := f.service.Search(ctx, SearchRequest{
			Kind:     models.KindVenue,
			Criteria: filters.Criteria{Free: true, MaxDistance: "10"},
			Origin:   utrecht,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"library", "park", "farm"}, rankedIDs(result.Activities))
	})

	t.Run("malformed radius is ignored", func(t *testing.T) {
		result, err := f.service.Search(ctx, SearchRequest{
			Kind:     models.KindVenue,
			Criteria: filters.Criteria{MaxDistance: "far"},
			Origin:   utrecht,
		})
		require.NoError(t, err)
		assert.Equal(t, 6, result.Total)
	})

	t.Run("category and environment", func(t *testing.T) {
		result, err := f.service.Search(ctx, SearchRequest{
			Criteria: filters.Criteria{CategoryID: "parks", Outdoor: true},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"beach", "park"}, rankedIDs(result.Activities))
	})

	t.Run("events default to start order and honour the date window", func(t *testing.T) {
		result, err := f.service.Search(ctx, SearchRequest{Kind: models.KindEvent})
		require.NoError(t, err)
		assert.Equal(t, []string{"concert", "fair"}, rankedIDs(result.Activities))

		from := fairStart.AddDate(0, 0, -7)
		to := fairStart.AddDate(0, 0, 7)
		result, err = f.service.Search(ctx, SearchRequest{
			Kind:     models.KindEvent,
			Criteria: filters.Criteria{StartDate: &from, EndDate: &to},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"fair"}, rankedIDs(result.Activities))
	})

	t.Run("text search", func(t *testing.T) {
		result, err := f.service.Search(ctx, SearchRequest{Text: "cine"})
		require.NoError(t, err)
		assert.Equal(t, []string{"cinema"}, rankedIDs(result.Activities))
	})

	t.Run("explicit sort overrides the default", func(t *testing.T) {
		result, err := f.service.Search(ctx, SearchRequest{Kind: models.KindEvent, Origin: utrecht, Sort: SortName})
		require.NoError(t, err)
		assert.Equal(t, []string{"concert", "fair"}, rankedIDs(result.Activities))
		assert.NotNil(t, result.Activities[0].Distance)
	})

	t.Run("paging keeps the total", func(t *testing.T) {
		result, err := f.service.Search(ctx, SearchRequest{Kind: models.KindVenue, Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, 6, result.Total)
		assert.Equal(t, []string{"cinema", "farm"}, rankedIDs(result.Activities))

		result, err = f.service.Search(ctx, SearchRequest{Kind: models.KindVenue, Offset: 50})
		require.NoError(t, err)
		assert.NotNil(t, result.Activities)
		assert.Empty(t, result.Activities)
	})
}

func TestSearchDefaultMaxDistance(t *testing.T) {
	f := newFixture(t, WithDefaultMaxDistance(20))

	result, err := f.service.Search(context.Background(), SearchRequest{Kind: models.KindVenue, Origin: utrecht})
	require.NoError(t, err)
	assert.NotContains(t, rankedIDs(result.Activities), "beach")
	assert.Equal(t, 5, result.Total)

	result, err = f.service.Search(context.Background(), SearchRequest{Kind: models.KindVenue})
	require.NoError(t, err)
	assert.Equal(t, 6, result.Total, "without a position the default radius does not apply")
}

func TestSearchWithFilterConfig(t *testing.T) {
	config := filters.DefaultFilterConfig
	config.EnablePriceFilter = false
	f := newFixture(t, WithFilterConfig(config))

	assert.False(t, f.service.Engine().GetConfig().EnablePriceFilter)

	result, err := f.service.Search(context.Background(), SearchRequest{
		Kind:     models.KindVenue,
		Criteria: filters.Criteria{Free: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, result.Total, "disabled price rule keeps paid venues")
}

func TestSearchWithGeoIndexMatchesBoundingBox(t *testing.T) {
	ctx := context.Background()
	index := cache.NewActivityIndex(cache.NewMockRedisClient())
	indexed := newFixture(t, WithIndex(index))
	plain := newFixture(t)

	for _, radius := range []string{"0.5", "1", "2", "9", "60"} {
		req := SearchRequest{Criteria: filters.Criteria{MaxDistance: radius}, Origin: utrecht}

		a, err := indexed.service.Search(ctx, req)
		require.NoError(t, err)
		b, err := plain.service.Search(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, rankedIDs(b.Activities), rankedIDs(a.Activities), "radius %s", radius)
	}
}

func TestSearchObserver(t *testing.T) {
	collector, err := metrics.NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)
	f := newFixture(t, WithObserver(collector))

	_, err = f.service.Search(context.Background(), SearchRequest{
		Kind:     models.KindVenue,
		Criteria: filters.Criteria{Free: true},
	})
	require.NoError(t, err)

	assert.Equal(t, float64(4), collector.FilterCount(metrics.OutcomeVisible))
	assert.Equal(t, float64(2), collector.FilterCount(metrics.OutcomeHidden))
}

func TestGetAndExplain(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	got, err := f.service.Get(ctx, "park", utrecht)
	require.NoError(t, err)
	assert.Equal(t, "park", got.ID)
	assert.InDelta(t, 1.74, got.DistanceKm(), 0.01)
	assert.ElementsMatch(t, []string{"parks"}, got.CategoryIDs)

	_, err = f.service.Get(ctx, "missing", nil)
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	explanation, err := f.service.Explain(ctx, "cinema", filters.Criteria{Free: true}, nil)
	require.NoError(t, err)
	assert.False(t, explanation.IsVisible)
}

func TestFavorites(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.service.AddFavorite(ctx, f.userID, "beach"))
	require.NoError(t, f.service.AddFavorite(ctx, f.userID, "library"))
	require.NoError(t, f.service.AddFavorite(ctx, f.userID, "farm"))

	err := f.service.AddFavorite(ctx, f.userID, "missing")
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	nearest, err := f.service.Favorites(ctx, f.userID, utrecht)
	require.NoError(t, err)
	assert.Equal(t, []string{"library", "farm", "beach"}, rankedIDs(nearest))

	unranked, err := f.service.Favorites(ctx, f.userID, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"library", "farm", "beach"}, rankedIDs(unranked))
	assert.Nil(t, unranked[0].Distance)

	require.NoError(t, f.service.RemoveFavorite(ctx, f.userID, "farm"))
	after, err := f.service.Favorites(ctx, f.userID, utrecht)
	require.NoError(t, err)
	assert.Equal(t, []string{"library", "beach"}, rankedIDs(after))

	empty, err := f.service.Favorites(ctx, "nobody", nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSchedule(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	eventVisit, err := f.service.ScheduleVisit(ctx, f.userID, "fair", nil, "bring sunscreen")
	require.NoError(t, err)
	assert.True(t, fairStart.Equal(eventVisit.ScheduledAt))

	_, err = f.service.ScheduleVisit(ctx, f.userID, "park", nil, "")
	assert.True(t, errors.Is(err, ErrTimeRequired))

	parkTime := fairStart.Add(-48 * time.Hour)
	parkVisit, err := f.service.ScheduleVisit(ctx, f.userID, "park", &parkTime, "")
	require.NoError(t, err)

	upcoming, err := f.service.Upcoming(ctx, f.userID, fairStart.AddDate(0, 0, -7), time.Time{})
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "park", upcoming[0].Activity.ID)
	assert.Equal(t, "fair", upcoming[1].Activity.ID)
	assert.Equal(t, "bring sunscreen", upcoming[1].Note)

	err = f.service.CancelVisit(ctx, "someone-else", parkVisit.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	require.NoError(t, f.service.CancelVisit(ctx, f.userID, parkVisit.ID))
	upcoming, err = f.service.Upcoming(ctx, f.userID, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, eventVisit.ID, upcoming[0].ID)
}

func TestAdminKeepsIndexInStep(t *testing.T) {
	ctx := context.Background()
	client := cache.NewMockRedisClient()
	index := cache.NewActivityIndex(client)
	collector, err := metrics.NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)
	f := newFixture(t, WithIndex(index), WithObserver(collector))

	assert.Equal(t, 8, client.Len(cache.ActivitiesGeoKey))

	playground, err := models.NewVenue("Playground", "", 52.0910, 5.1220)
	require.NoError(t, err)
	require.NoError(t, f.service.SaveActivity(ctx, playground))
	assert.Equal(t, 9, client.Len(cache.ActivitiesGeoKey))

	playground.Latitude = 52.46
	playground.Longitude = 4.56
	require.NoError(t, f.service.SaveActivity(ctx, playground))
	ids, err := index.NearbyIDs(ctx, utrecht.Latitude, utrecht.Longitude, 1)
	require.NoError(t, err)
	assert.NotContains(t, ids, playground.ID)

	require.NoError(t, f.service.DeleteActivity(ctx, playground.ID))
	assert.Equal(t, 8, client.Len(cache.ActivitiesGeoKey))
	assert.True(t, errors.Is(f.service.DeleteActivity(ctx, playground.ID), storage.ErrNotFound))

	require.NoError(t, client.Del(ctx, cache.ActivitiesGeoKey))
	n, err := f.service.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, 8, client.Len(cache.ActivitiesGeoKey))
}

func TestReindexWithoutIndex(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Reindex(context.Background())
	assert.True(t, errors.Is(err, ErrIndexDisabled))
}
