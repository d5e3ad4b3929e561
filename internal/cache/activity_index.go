package cache

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bcnelson/playfinder/pkg/geo"
	"github.com/bcnelson/playfinder/pkg/models"
)

const ActivitiesGeoKey = "playfinder:activities_geo_v1"

// Redis rejects GEOADD outside this latitude band.
const maxIndexableLatitude = 85.05112878

// ActivityIndex keeps activity coordinates in a Redis geo set so radius
// queries can narrow candidates before the filter engine runs.
type ActivityIndex struct {
	client RedisClient
	key    string
}

func NewActivityIndex(client RedisClient) *ActivityIndex {
	return &ActivityIndex{client: client, key: ActivitiesGeoKey}
}

// Upsert adds or moves the activity in the index. Activities outside the
// indexable latitude band are skipped; see Covers.
func (idx *ActivityIndex) Upsert(ctx context.Context, activity models.Activity) error {
	if !indexable(activity.Latitude) {
		return nil
	}
	if err := idx.client.GeoAdd(ctx, idx.key, activity.ID, activity.Latitude, activity.Longitude); err != nil {
		return fmt.Errorf("index activity %s: %w", activity.ID, err)
	}
	return nil
}

func (idx *ActivityIndex) Remove(ctx context.Context, activityID string) error {
	if err := idx.client.GeoRemove(ctx, idx.key, activityID); err != nil {
		return fmt.Errorf("unindex activity %s: %w", activityID, err)
	}
	return nil
}

// Rebuild replaces the index contents with activities. The new set is
// built under a staging key and renamed over the live one, so radius
// queries see either the old or the new index.
func (idx *ActivityIndex) Rebuild(ctx context.Context, activities []models.Activity) (int, error) {
	staging := idx.key + ":rebuild:" + uuid.NewString()

	indexed := 0
	for _, activity := range activities {
		if !indexable(activity.Latitude) {
			continue
		}
		if err := idx.client.GeoAdd(ctx, staging, activity.ID, activity.Latitude, activity.Longitude); err != nil {
			_ = idx.client.Del(ctx, staging)
			return 0, fmt.Errorf("index activity %s: %w", activity.ID, err)
		}
		indexed++
	}

	if indexed == 0 {
		if err := idx.client.Del(ctx, idx.key); err != nil {
			return 0, fmt.Errorf("clear activity index: %w", err)
		}
		return 0, nil
	}

	if err := idx.client.Rename(ctx, staging, idx.key); err != nil {
		_ = idx.client.Del(ctx, staging)
		return 0, fmt.Errorf("swap activity index: %w", err)
	}
	return indexed, nil
}

// NearbyIDs returns the IDs of indexed activities within radiusKm, nearest
// first.
func (idx *ActivityIndex) NearbyIDs(ctx context.Context, lat, lng, radiusKm float64) ([]string, error) {
	members, err := idx.client.GeoRadius(ctx, idx.key, lat, lng, radiusKm)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.Name
	}
	return ids, nil
}

// Covers reports whether every point within radiusKm of origin is
// indexable. When it is false a radius query may miss polar activities and
// callers should not rely on the index.
func (idx *ActivityIndex) Covers(origin geo.Point, radiusKm float64) bool {
	b := geo.BoundsAround(origin, radiusKm)
	return indexable(b.MinLat) && indexable(b.MaxLat)
}

func (idx *ActivityIndex) Ping(ctx context.Context) error {
	return idx.client.Ping(ctx)
}

func indexable(lat float64) bool {
	return lat >= -maxIndexableLatitude && lat <= maxIndexableLatitude
}
