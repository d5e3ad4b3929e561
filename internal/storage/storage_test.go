package storage

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/bcnelson/playfinder/pkg/geo"
	"github.com/bcnelson/playfinder/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedVenue(t *testing.T, repo *ActivityRepository, name string, lat, lng float64, categoryIDs ...string) *models.Activity {
	t.Helper()
	venue, err := models.NewVenue(name, name+" street 1", lat, lng)
	require.NoError(t, err)
	for _, id := range categoryIDs {
		venue.AddCategory(id)
	}
	require.NoError(t, repo.Create(context.Background(), venue))
	return venue
}

func seedCategory(t *testing.T, repo *CategoryRepository, name string) *models.Category {
	t.Helper()
	category, err := models.NewCategory(name, "")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), category))
	return category
}

func seedUser(t *testing.T, repo *UserRepository, email string) *models.User {
	t.Helper()
	user, err := models.NewUser(email, "Parent")
	require.NoError(t, err)
	require.NoError(t, user.SetPassword("correct horse battery"))
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestOpen(t *testing.T) {
	t.Run("in-memory database is migrated and healthy", func(t *testing.T) {
		db := newTestDB(t)
		require.NoError(t, db.Health())
		assert.Equal(t, ":memory:", db.Path())

		version, err := db.GetVersion()
		require.NoError(t, err)
		assert.NotEmpty(t, version)
	})

	t.Run("file database runs in WAL mode", func(t *testing.T) {
		path := t.TempDir() + "/nested/playfinder.db"
		db, err := Open(Config{Path: path})
		require.NoError(t, err)
		defer db.Close()

		var mode string
		require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
		assert.Equal(t, "wal", mode)
	})

	t.Run("file database requires a path", func(t *testing.T) {
		_, err := NewDB(Config{})
		assert.Error(t, err)
	})
}

func TestMigrator(t *testing.T) {
	db, err := NewDB(Config{InMemory: true})
	require.NoError(t, err)
	defer db.Close()

	source := fstest.MapFS{
		"001_widgets.sql": {Data: []byte("-- +migrate up\nCREATE TABLE widgets (id TEXT);\n-- +migrate down\nDROP TABLE widgets;\n")},
		"002_gadgets.sql": {Data: []byte("CREATE TABLE gadgets (id TEXT);\n-- +migrate down\nDROP TABLE gadgets;\n")},
		"README.md":       {Data: []byte("ignored")},
	}
	migrator := NewMigratorFS(db, source)

	applied, err := migrator.Up()
	require.NoError(t, err)
	require.Len(t, applied, 2)
	assert.Equal(t, "widgets", applied[0].Name)
	assert.Equal(t, "gadgets", applied[1].Name)

	again, err := migrator.Up()
	require.NoError(t, err)
	assert.Empty(t, again)

	statuses, err := migrator.Status()
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.True(t, statuses[0].Applied)
	assert.True(t, statuses[1].Applied)

	rolledBack, err := migrator.Down()
	require.NoError(t, err)
	assert.Equal(t, 2, rolledBack.ID)

	statuses, err = migrator.Status()
	require.NoError(t, err)
	assert.True(t, statuses[0].Applied)
	assert.False(t, statuses[1].Applied)

	_, err = db.Exec("INSERT INTO gadgets (id) VALUES ('x')")
	assert.Error(t, err, "gadgets table should be gone")

	_, err = migrator.Down()
	require.NoError(t, err)
	_, err = migrator.Down()
	assert.Error(t, err)
}

func TestParseMigrationContent(t *testing.T) {
	up, down := parseMigrationContent("-- header\n-- +migrate up\nCREATE TABLE a (id INT);\n\n-- +migrate down\nDROP TABLE a;\n")
	assert.Equal(t, "-- header\nCREATE TABLE a (id INT);", up)
	assert.Equal(t, "DROP TABLE a;", down)
}

func TestActivityRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	activities := NewActivityRepository(db)
	categories := NewCategoryRepository(db)

	outdoor := seedCategory(t, categories, "Outdoor Play")
	museums := seedCategory(t, categories, "Museums")

	t.Run("create and get round trips optional fields", func(t *testing.T) {
		venue, err := models.NewVenue("Railway Museum", "Maliebaanstation 16", 52.0877, 5.1329)
		require.NoError(t, err)
		require.NoError(t, venue.SetAgeRange(3, 12))
		require.NoError(t, venue.SetPriceRange(10, 17.5))
		venue.SetEnvironment(true, false)
		venue.AddCategory(museums.ID)
		venue.Website = "https://example.org"
		require.NoError(t, activities.Create(ctx, venue))

		got, err := activities.GetByID(ctx, venue.ID)
		require.NoError(t, err)
		assert.Equal(t, models.KindVenue, got.Kind)
		assert.Equal(t, "Railway Museum", got.Name)
		assert.InDelta(t, 52.0877, got.Latitude, 1e-9)
		require.NotNil(t, got.AgeMin)
		assert.Equal(t, 3, *got.AgeMin)
		require.NotNil(t, got.PriceMax)
		assert.Equal(t, 17.5, *got.PriceMax)
		assert.True(t, got.IsIndoor)
		assert.False(t, got.IsOutdoor)
		assert.False(t, got.IsFree)
		assert.Nil(t, got.StartsAt)
		assert.Equal(t, []string{museums.ID}, got.CategoryIDs)
		assert.Equal(t, "https://example.org", got.Website)
	})

	t.Run("get missing activity wraps ErrNotFound", func(t *testing.T) {
		_, err := activities.GetByID(ctx, "missing")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("invalid activity is rejected", func(t *testing.T) {
		bad := &models.Activity{ID: "bad", Kind: models.KindVenue, Name: "", Latitude: 200}
		assert.Error(t, activities.Create(ctx, bad))
	})

	t.Run("constraint violations wrap ErrConflict and ErrInvalidReference", func(t *testing.T) {
		venue := seedVenue(t, activities, "Wilhelminapark", 52.0862, 5.1382, outdoor.ID)

		dup, err := models.NewVenue("Wilhelminapark again", "", 52.0862, 5.1382)
		require.NoError(t, err)
		dup.ID = venue.ID
		assert.True(t, errors.Is(activities.Create(ctx, dup), ErrConflict))

		orphan, err := models.NewVenue("Orphan", "", 52.0, 5.0)
		require.NoError(t, err)
		orphan.AddCategory("no-such-category")
		assert.True(t, errors.Is(activities.Create(ctx, orphan), ErrInvalidReference))
		_, err = activities.GetByID(ctx, orphan.ID)
		assert.True(t, errors.Is(err, ErrNotFound), "failed link rolls back the insert")

		venue.CategoryIDs = []string{"no-such-category"}
		assert.True(t, errors.Is(activities.Update(ctx, venue), ErrInvalidReference))
	})

	t.Run("update replaces categories", func(t *testing.T) {
		venue := seedVenue(t, activities, "Griftpark", 52.0973, 5.1261, outdoor.ID)
		venue.Name = "Griftpark Playground"
		venue.CategoryIDs = []string{museums.ID, outdoor.ID}
		venue.SetFree()
		require.NoError(t, activities.Update(ctx, venue))

		got, err := activities.GetByID(ctx, venue.ID)
		require.NoError(t, err)
		assert.Equal(t, "Griftpark Playground", got.Name)
		assert.True(t, got.IsFree)
		assert.ElementsMatch(t, []string{museums.ID, outdoor.ID}, got.CategoryIDs)
	})

	t.Run("update and delete of missing activity wrap ErrNotFound", func(t *testing.T) {
		ghost, err := models.NewVenue("Ghost", "", 0, 0)
		require.NoError(t, err)
		assert.True(t, errors.Is(activities.Update(ctx, ghost), ErrNotFound))
		assert.True(t, errors.Is(activities.Delete(ctx, ghost.ID), ErrNotFound))
	})

	t.Run("delete removes the activity", func(t *testing.T) {
		venue := seedVenue(t, activities, "Temporary", 52.0, 5.0)
		require.NoError(t, activities.Delete(ctx, venue.ID))
		_, err := activities.GetByID(ctx, venue.ID)
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestActivityRepositoryList(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	activities := NewActivityRepository(db)
	categories := NewCategoryRepository(db)

	outdoor := seedCategory(t, categories, "Outdoor")

	park := seedVenue(t, activities, "Park", 52.1, 5.1, outdoor.ID)
	zoo := seedVenue(t, activities, "Zoo_Blijdorp", 51.93, 4.45)
	island := seedVenue(t, activities, "Island", -16.5, 179.9)

	start := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	fair, err := models.NewEvent("Summer fair", "Market square", 52.09, 5.12, start, nil)
	require.NoError(t, err)
	fair.AddCategory(outdoor.ID)
	require.NoError(t, activities.Create(ctx, fair))

	later, err := models.NewEvent("Autumn fair", "Market square", 52.09, 5.12, start.AddDate(0, 3, 0), nil)
	require.NoError(t, err)
	require.NoError(t, activities.Create(ctx, later))

	names := func(list []models.Activity) []string {
		out := make([]string, len(list))
		for i, a := range list {
			out[i] = a.Name
		}
		return out
	}

	t.Run("no constraints lists everything by name", func(t *testing.T) {
		all, err := activities.List(ctx, ActivityQuery{})
		require.NoError(t, err)
		assert.Equal(t, []string{"Autumn fair", "Island", "Park", "Summer fair", "Zoo_Blijdorp"}, names(all))
	})

	t.Run("kind", func(t *testing.T) {
		events, err := activities.List(ctx, ActivityQuery{Kind: models.KindEvent, OrderBy: "starts_at"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Summer fair", "Autumn fair"}, names(events))
		require.NotNil(t, events[0].StartsAt)
		assert.True(t, start.Equal(*events[0].StartsAt))
	})

	t.Run("category", func(t *testing.T) {
		tagged, err := activities.List(ctx, ActivityQuery{CategoryID: outdoor.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{"Park", "Summer fair"}, names(tagged))
	})

	t.Run("ids", func(t *testing.T) {
		byID, err := activities.List(ctx, ActivityQuery{IDs: []string{park.ID, zoo.ID}})
		require.NoError(t, err)
		assert.Equal(t, []string{"Park", "Zoo_Blijdorp"}, names(byID))

		none, err := activities.List(ctx, ActivityQuery{IDs: []string{}})
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("search escapes like wildcards", func(t *testing.T) {
		found, err := activities.List(ctx, ActivityQuery{Search: "o_B"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Zoo_Blijdorp"}, names(found))

		found, err = activities.List(ctx, ActivityQuery{Search: "market"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Autumn fair", "Summer fair"}, names(found))
	})

	t.Run("date window", func(t *testing.T) {
		from := start.Add(-time.Hour)
		to := start.AddDate(0, 1, 0)
		found, err := activities.List(ctx, ActivityQuery{From: &from, To: &to})
		require.NoError(t, err)
		assert.Equal(t, []string{"Summer fair"}, names(found))
	})

	t.Run("bounds", func(t *testing.T) {
		bounds := geo.BoundsAround(geo.Point{Latitude: 52.09, Longitude: 5.12}, 5)
		found, err := activities.List(ctx, ActivityQuery{Within: &bounds})
		require.NoError(t, err)
		assert.Equal(t, []string{"Autumn fair", "Park", "Summer fair"}, names(found))
	})

	t.Run("bounds across the antimeridian", func(t *testing.T) {
		bounds := geo.BoundsAround(geo.Point{Latitude: -16.5, Longitude: -179.95}, 50)
		require.True(t, bounds.WrapsAntimeridian())
		found, err := activities.List(ctx, ActivityQuery{Within: &bounds})
		require.NoError(t, err)
		assert.Equal(t, []string{island.Name}, names(found))
	})

	t.Run("limit, offset and count", func(t *testing.T) {
		page, err := activities.List(ctx, ActivityQuery{Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"Island", "Park"}, names(page))

		total, err := activities.Count(ctx, ActivityQuery{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 5, total)

		events, err := activities.Count(ctx, ActivityQuery{Kind: models.KindEvent})
		require.NoError(t, err)
		assert.Equal(t, 2, events)
	})
}

func TestCategoryRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	categories := NewCategoryRepository(db)
	activities := NewActivityRepository(db)

	indoor := seedCategory(t, categories, "Indoor Play")
	farms := seedCategory(t, categories, "Farms")

	seedVenue(t, activities, "Ballorig", 52.0, 5.0, indoor.ID)
	seedVenue(t, activities, "Monkey Town", 52.1, 5.1, indoor.ID)

	t.Run("lookup by id or slug", func(t *testing.T) {
		byID, err := categories.GetByID(ctx, indoor.ID)
		require.NoError(t, err)
		assert.Equal(t, "indoor-play", byID.Slug)

		bySlug, err := categories.GetByID(ctx, "indoor-play")
		require.NoError(t, err)
		assert.Equal(t, indoor.ID, bySlug.ID)

		_, err = categories.GetByID(ctx, "nope")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("duplicate slug is rejected", func(t *testing.T) {
		dup, err := models.NewCategory("Indoor play", "")
		require.NoError(t, err)
		assert.True(t, errors.Is(categories.Create(ctx, dup), ErrConflict))
	})

	t.Run("list orders by name within sort order", func(t *testing.T) {
		list, err := categories.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Farms", list[0].Name)
		assert.Equal(t, "Indoor Play", list[1].Name)
	})

	t.Run("count activities includes empty categories", func(t *testing.T) {
		counts, err := categories.CountActivities(ctx)
		require.NoError(t, err)
		require.Len(t, counts, 2)
		assert.Equal(t, "Farms", counts[0].Name)
		assert.Equal(t, 0, counts[0].Count)
		assert.Equal(t, "indoor-play", counts[1].Slug)
		assert.Equal(t, 2, counts[1].Count)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, categories.Delete(ctx, farms.ID))
		assert.True(t, errors.Is(categories.Delete(ctx, farms.ID), ErrNotFound))
	})
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)

	user := seedUser(t, users, "Parent@Example.com")

	byEmail, err := users.GetByEmail(ctx, " parent@example.COM ")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.True(t, byEmail.CheckPassword("correct horse battery"))

	byID, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "parent@example.com", byID.Email)
	assert.False(t, byID.IsAdmin)

	dup, err := models.NewUser("parent@example.com", "Other")
	require.NoError(t, err)
	require.NoError(t, dup.SetPassword("another password"))
	assert.Error(t, users.Create(ctx, dup))

	_, err = users.GetByEmail(ctx, "nobody@example.com")
	assert.True(t, errors.Is(err, ErrNotFound))

	count, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestFavoriteAndVisitRepositories(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	activities := NewActivityRepository(db)
	favorites := NewFavoriteRepository(db)
	visits := NewVisitRepository(db)

	user := seedUser(t, users, "family@example.com")
	park := seedVenue(t, activities, "Park", 52.1, 5.1)
	pool := seedVenue(t, activities, "Pool", 52.2, 5.2)

	t.Run("favorites", func(t *testing.T) {
		require.NoError(t, favorites.Add(ctx, user.ID, park.ID))
		require.NoError(t, favorites.Add(ctx, user.ID, park.ID))
		require.NoError(t, favorites.Add(ctx, user.ID, pool.ID))

		ids, err := favorites.ListActivityIDs(ctx, user.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{park.ID, pool.ID}, ids)

		saved, err := favorites.List(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, saved, 2)
		assert.Equal(t, user.ID, saved[0].UserID)
		assert.False(t, saved[0].CreatedAt.IsZero())

		exists, err := favorites.Exists(ctx, user.ID, park.ID)
		require.NoError(t, err)
		assert.True(t, exists)

		require.NoError(t, favorites.Remove(ctx, user.ID, park.ID))
		assert.True(t, errors.Is(favorites.Remove(ctx, user.ID, park.ID), ErrNotFound))

		assert.Error(t, favorites.Add(ctx, user.ID, "missing-activity"), "foreign key should reject unknown activity")
	})

	t.Run("visits", func(t *testing.T) {
		base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
		late, err := models.NewVisit(user.ID, park.ID, base.Add(48*time.Hour), "picnic")
		require.NoError(t, err)
		early, err := models.NewVisit(user.ID, pool.ID, base, "")
		require.NoError(t, err)
		past, err := models.NewVisit(user.ID, pool.ID, base.Add(-72*time.Hour), "")
		require.NoError(t, err)
		for _, v := range []*models.Visit{late, early, past} {
			require.NoError(t, visits.Create(ctx, v))
		}

		upcoming, err := visits.ListByUser(ctx, user.ID, base, time.Time{})
		require.NoError(t, err)
		require.Len(t, upcoming, 2)
		assert.Equal(t, early.ID, upcoming[0].ID)
		assert.Equal(t, "picnic", upcoming[1].Note)

		all, err := visits.ListByUser(ctx, user.ID, time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Len(t, all, 3)

		window, err := visits.ListByUser(ctx, user.ID, base.Add(-96*time.Hour), base)
		require.NoError(t, err)
		require.Len(t, window, 2)
		assert.Equal(t, past.ID, window[0].ID)
		assert.Equal(t, early.ID, window[1].ID)

		got, err := visits.GetByID(ctx, late.ID)
		require.NoError(t, err)
		assert.True(t, late.ScheduledAt.Equal(got.ScheduledAt))

		require.NoError(t, visits.Delete(ctx, late.ID))
		_, err = visits.GetByID(ctx, late.ID)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("deleting an activity cascades", func(t *testing.T) {
		require.NoError(t, activities.Delete(ctx, pool.ID))

		ids, err := favorites.ListActivityIDs(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, ids)

		all, err := visits.ListByUser(ctx, user.ID, time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}
