// Package geo provides great-circle distance and coordinate helpers shared by
// the filter engine, the storage prefilter and the geo index.
package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean Earth radius used for every distance in the
// module. Results are only comparable with other code using the same value.
const EarthRadiusKm = 6371.0

// Point is a WGS 84 coordinate in degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewPoint validates and returns a Point.
func NewPoint(latitude, longitude float64) (Point, error) {
	if err := ValidateCoordinates(latitude, longitude); err != nil {
		return Point{}, err
	}
	return Point{Latitude: latitude, Longitude: longitude}, nil
}

// DistanceTo returns the Haversine distance to other in kilometers.
func (p Point) DistanceTo(other Point) float64 {
	return Distance(p.Latitude, p.Longitude, other.Latitude, other.Longitude)
}

// Distance computes the great-circle distance between two points using the
// Haversine formula. Returns distance in kilometers.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := degreesToRadians(lat1)
	lat2Rad := degreesToRadians(lat2)
	deltaLat := degreesToRadians(lat2 - lat1)
	deltaLon := degreesToRadians(lon2 - lon1)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	// rounding can push a just past 1 for antipodal points
	a = math.Min(1, math.Max(0, a))

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// ValidateCoordinates rejects latitudes outside [-90, 90] and longitudes
// outside [-180, 180].
func ValidateCoordinates(latitude, longitude float64) error {
	if math.IsNaN(latitude) || latitude < -90 || latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90 degrees")
	}
	if math.IsNaN(longitude) || longitude < -180 || longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180 degrees")
	}
	return nil
}

// Bounds is a latitude/longitude rectangle in degrees. When MinLng > MaxLng
// the rectangle crosses the antimeridian.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

// BoundsAround returns the smallest rectangle containing every point within
// radiusKm of center. It is a coarse prefilter only: corners of the rectangle
// lie outside the radius.
func BoundsAround(center Point, radiusKm float64) Bounds {
	if radiusKm < 0 {
		radiusKm = 0
	}
	ll := s2.LatLngFromDegrees(center.Latitude, center.Longitude)
	angle := s1.Angle(radiusKm / EarthRadiusKm)
	rect := s2.CapFromCenterAngle(s2.PointFromLatLng(ll), angle).RectBound()

	return Bounds{
		MinLat: rect.Lo().Lat.Degrees(),
		MaxLat: rect.Hi().Lat.Degrees(),
		MinLng: rect.Lo().Lng.Degrees(),
		MaxLng: rect.Hi().Lng.Degrees(),
	}
}

// WrapsAntimeridian reports whether the longitude span crosses ±180°.
func (b Bounds) WrapsAntimeridian() bool {
	return b.MinLng > b.MaxLng
}

// Contains reports whether the coordinate lies inside the rectangle.
func (b Bounds) Contains(latitude, longitude float64) bool {
	if latitude < b.MinLat || latitude > b.MaxLat {
		return false
	}
	if b.WrapsAntimeridian() {
		return longitude >= b.MinLng || longitude <= b.MaxLng
	}
	return longitude >= b.MinLng && longitude <= b.MaxLng
}
