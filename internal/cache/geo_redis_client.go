package cache

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// GeoRedisClient implements RedisClient on go-redis.
type GeoRedisClient struct {
	client *redis.Client
}

// Options mirror the redis section of the config file.
type Options struct {
	Address  string
	Password string
	DB       int
}

// NewGeoRedisClient connects to Redis and verifies the connection.
func NewGeoRedisClient(ctx context.Context, opts Options) (*GeoRedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", opts.Address, err)
	}

	return &GeoRedisClient{client: client}, nil
}

func (r *GeoRedisClient) GeoAdd(ctx context.Context, key, member string, lat, lng float64) error {
	err := r.client.GeoAdd(ctx, key, &redis.GeoLocation{
		Name:      member,
		Latitude:  lat,
		Longitude: lng,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to add geolocation: %w", err)
	}
	return nil
}

// GeoRemove deletes members from the geo set. Geo sets are sorted sets, so
// ZREM applies.
func (r *GeoRedisClient) GeoRemove(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := r.client.ZRem(ctx, key, args...).Err(); err != nil {
		return fmt.Errorf("failed to remove geolocation: %w", err)
	}
	return nil
}

// GeoRadius returns members within radiusKm of the point, nearest first.
func (r *GeoRedisClient) GeoRadius(ctx context.Context, key string, lat, lng, radiusKm float64) ([]GeoMember, error) {
	results, err := r.client.GeoRadius(ctx, key, lng, lat, &redis.GeoRadiusQuery{
		Radius:   radiusKm,
		Unit:     "km",
		WithDist: true,
		Sort:     "ASC",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get nearby locations: %w", err)
	}

	members := make([]GeoMember, len(results))
	for i, loc := range results {
		members[i] = GeoMember{Name: loc.Name, DistanceKm: loc.Dist}
	}
	return members, nil
}

func (r *GeoRedisClient) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *GeoRedisClient) Rename(ctx context.Context, key, newKey string) error {
	return r.client.Rename(ctx, key, newKey).Err()
}

func (r *GeoRedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *GeoRedisClient) Close() error {
	return r.client.Close()
}
