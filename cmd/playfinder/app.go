package main

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bcnelson/playfinder/internal/auth"
	"github.com/bcnelson/playfinder/internal/cache"
	"github.com/bcnelson/playfinder/internal/logging"
	"github.com/bcnelson/playfinder/internal/metrics"
	"github.com/bcnelson/playfinder/internal/storage"
	"github.com/bcnelson/playfinder/pkg/discovery"
)

// app holds the wired services shared by the serve and data commands.
type app struct {
	config     *Config
	logger     logging.Logger
	db         *storage.DB
	categories *storage.CategoryRepository
	users      *storage.UserRepository
	discovery  *discovery.Service
	metrics    *metrics.Collector
	index      *cache.ActivityIndex

	closers []io.Closer
}

type appOptions struct {
	metrics bool
}

func openApp(ctx context.Context, config *Config, opts appOptions) (*app, error) {
	logger, logCloser, err := newLogger(config.Logging)
	if err != nil {
		return nil, err
	}

	a := &app{config: config, logger: logger, closers: []io.Closer{logCloser}}

	db, err := InitDatabase(config.Database.Path)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, db)

	a.categories = storage.NewCategoryRepository(db)
	a.users = storage.NewUserRepository(db)

	serviceOpts := []discovery.Option{
		discovery.WithLogger(logger),
		discovery.WithDefaultMaxDistance(config.Filters.DefaultMaxDistanceKm),
		discovery.WithFilterConfig(config.Filters.Rules),
	}

	if opts.metrics && config.Metrics.Enabled {
		collector, err := metrics.NewCollector(prometheus.DefaultRegisterer)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		a.metrics = collector
		serviceOpts = append(serviceOpts, discovery.WithObserver(collector))
	}

	if config.Redis.Enabled {
		client, err := cache.NewGeoRedisClient(ctx, cache.Options{
			Address:  config.Redis.Address,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		if err != nil {
			// the database alone can answer every query
			logger.Warn(ctx, "geo index unavailable, using database bounding boxes", logging.Err(err))
		} else {
			a.index = cache.NewActivityIndex(client)
			a.closers = append(a.closers, client)
			serviceOpts = append(serviceOpts, discovery.WithIndex(a.index))
		}
	}

	a.discovery = discovery.NewService(
		storage.NewActivityRepository(db),
		storage.NewFavoriteRepository(db),
		storage.NewVisitRepository(db),
		serviceOpts...,
	)

	return a, nil
}

func (a *app) authService() *auth.AuthService {
	return auth.NewAuthService(a.users, auth.AuthConfig{
		JWTSecret:       a.config.Auth.JWTSecret,
		SessionDuration: a.config.Auth.SessionDuration(),
	})
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i].Close()
	}
}

func mustOpenApp(opts appOptions) *app {
	config, err := LoadConfig()
	if err != nil {
		fail("loading config: %v", err)
	}
	if err := ValidateConfig(config); err != nil {
		fail("invalid config: %v", err)
	}

	a, err := openApp(context.Background(), config, opts)
	if err != nil {
		fail("%v", err)
	}
	return a
}
