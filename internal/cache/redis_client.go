package cache

import "context"

// GeoMember is one result of a radius query.
type GeoMember struct {
	Name       string
	DistanceKm float64
}

// RedisClient is the subset of Redis used by the geo index.
type RedisClient interface {
	GeoAdd(ctx context.Context, key, member string, lat, lng float64) error
	GeoRemove(ctx context.Context, key string, members ...string) error
	GeoRadius(ctx context.Context, key string, lat, lng, radiusKm float64) ([]GeoMember, error)
	Del(ctx context.Context, key string) error
	Rename(ctx context.Context, key, newKey string) error
	Ping(ctx context.Context) error
	Close() error
}
