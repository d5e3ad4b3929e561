package filters

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/bcnelson/playfinder/pkg/geo"
	"github.com/bcnelson/playfinder/pkg/models"
)

var benchOrigin = &geo.Point{Latitude: 52.0907, Longitude: 5.1214}

// generateActivities scatters count activities within about 50 km of
// benchOrigin. The seed is fixed so runs are comparable.
func generateActivities(count int) []models.Activity {
	rng := rand.New(rand.NewSource(1))
	base := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	slugs := []string{"museums", "parks", "animals", "playgrounds", "water"}

	records := make([]models.Activity, count)
	for i := range records {
		opts := []activityOption{
			ages(rng.Intn(6), 6+rng.Intn(12)),
			categories(slugs[i%len(slugs)]),
		}
		switch rng.Intn(3) {
		case 0:
			opts = append(opts, indoor())
		case 1:
			opts = append(opts, outdoor())
		default:
			opts = append(opts, indoor(), outdoor())
		}
		if rng.Intn(3) == 0 {
			opts = append(opts, free())
		} else {
			opts = append(opts, priced(5, 5+float64(rng.Intn(20))))
		}
		if i%4 == 0 {
			opts = append(opts, startsAt(base.Add(time.Duration(rng.Intn(60*24))*time.Hour)))
		}

		lat := benchOrigin.Latitude + (rng.Float64()-0.5)*0.9
		lng := benchOrigin.Longitude + (rng.Float64()-0.5)*1.4
		records[i] = createTestActivity(fmt.Sprintf("activity-%d", i), lat, lng, opts...)
	}
	return records
}

func BenchmarkEngineFilter(b *testing.B) {
	engine := NewStandardEngine(DefaultFilterConfig)
	criteria := Criteria{
		Outdoor:     true,
		MinAge:      "4",
		MaxAge:      "10",
		MaxDistance: "15",
		CategoryID:  "parks",
	}

	for _, size := range []int{100, 1000, 5000} {
		records := generateActivities(size)
		b.Run(fmt.Sprintf("%d_activities", size), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = engine.Filter(records, criteria, benchOrigin)
			}
		})
	}
}

func BenchmarkEngineFilterParallel(b *testing.B) {
	engine := NewStandardEngine(DefaultFilterConfig)
	records := generateActivities(5000)
	criteria := Criteria{Free: true, MaxDistance: "10"}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = engine.Filter(records, criteria, benchOrigin)
		}
	})
}

func BenchmarkRankByDistance(b *testing.B) {
	records := generateActivities(5000)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = RankByDistance(records, benchOrigin.Latitude, benchOrigin.Longitude)
	}
}
