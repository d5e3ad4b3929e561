package cache

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/bcnelson/playfinder/pkg/geo"
)

// MockRedisClient keeps geo sets in memory. Radius queries use the same
// great-circle distance as the filter engine.
type MockRedisClient struct {
	mu      sync.RWMutex
	geoData map[string]map[string]geo.Point
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{
		geoData: make(map[string]map[string]geo.Point),
	}
}

func (m *MockRedisClient) GeoAdd(ctx context.Context, key, member string, lat, lng float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.geoData[key]; !ok {
		m.geoData[key] = make(map[string]geo.Point)
	}
	m.geoData[key][member] = geo.Point{Latitude: lat, Longitude: lng}
	return nil
}

func (m *MockRedisClient) GeoRemove(ctx context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, member := range members {
		delete(m.geoData[key], member)
	}
	return nil
}

func (m *MockRedisClient) GeoRadius(ctx context.Context, key string, lat, lng, radiusKm float64) ([]GeoMember, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	center := geo.Point{Latitude: lat, Longitude: lng}
	results := []GeoMember{}
	for name, p := range m.geoData[key] {
		if d := center.DistanceTo(p); d <= radiusKm {
			results = append(results, GeoMember{Name: name, DistanceKm: d})
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].DistanceKm != results[j].DistanceKm {
			return results[i].DistanceKm < results[j].DistanceKm
		}
		return results[i].Name < results[j].Name
	})
	return results, nil
}

func (m *MockRedisClient) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.geoData, key)
	return nil
}

// Rename fails like Redis when key does not exist.
func (m *MockRedisClient) Rename(ctx context.Context, key, newKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.geoData[key]
	if !ok {
		return errors.New("ERR no such key")
	}
	m.geoData[newKey] = members
	delete(m.geoData, key)
	return nil
}

func (m *MockRedisClient) Ping(ctx context.Context) error {
	return nil
}

func (m *MockRedisClient) Close() error {
	return nil
}

// Len reports how many members a geo set holds.
func (m *MockRedisClient) Len(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.geoData[key])
}
