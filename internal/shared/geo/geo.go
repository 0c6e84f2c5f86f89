package geo

import (
	"errors"
	"math"
)

const (
	earthRadiusKm = 6371.0

	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0

	// Walk geofences are kept between a city block and a neighbourhood.
	MinFenceRadiusKm = 0.1
	MaxFenceRadiusKm = 5.0
)

var (
	ErrLatitudeRange  = errors.New("latitude out of range")
	ErrLongitudeRange = errors.New("longitude out of range")
	ErrNotFinite      = errors.New("coordinate is not a finite number")
	ErrRadius         = errors.New("radius must be positive")
)

// Point is a bare coordinate pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceFunc returns the distance in meters between two points.
// Implementations must be deterministic for fixed inputs.
type DistanceFunc func(a, b Point) float64

// HaversineKm returns the great-circle distance in kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dlat := (lat2 - lat1) * math.Pi / 180
	dlng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlng/2)*math.Sin(dlng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// HaversineMeters is the default DistanceFunc.
func HaversineMeters(a, b Point) float64 {
	return HaversineKm(a.Lat, a.Lng, b.Lat, b.Lng) * 1000
}

// ValidatePoint checks that lat/lng are finite and inside the WGS84 ranges.
func ValidatePoint(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return ErrNotFinite
	}
	if lat < MinLatitude || lat > MaxLatitude {
		return ErrLatitudeRange
	}
	if lng < MinLongitude || lng > MaxLongitude {
		return ErrLongitudeRange
	}
	return nil
}

// Area is a circle on the earth's surface.
type Area struct {
	Center   Point   `json:"center"`
	RadiusKm float64 `json:"radius_km"`
}

func (a Area) Validate() error {
	if err := ValidatePoint(a.Center.Lat, a.Center.Lng); err != nil {
		return err
	}
	if math.IsNaN(a.RadiusKm) || a.RadiusKm <= 0 {
		return ErrRadius
	}
	return nil
}

// Contains reports whether p lies inside or on the boundary of the area.
func (a Area) Contains(p Point) bool {
	return HaversineKm(a.Center.Lat, a.Center.Lng, p.Lat, p.Lng) <= a.RadiusKm
}

// NewFence builds a walk geofence, clamping the radius to the allowed band.
func NewFence(center Point, radiusKm float64) (Area, error) {
	if err := ValidatePoint(center.Lat, center.Lng); err != nil {
		return Area{}, err
	}
	if math.IsNaN(radiusKm) || radiusKm <= 0 {
		return Area{}, ErrRadius
	}
	radiusKm = math.Max(MinFenceRadiusKm, math.Min(MaxFenceRadiusKm, radiusKm))
	return Area{Center: center, RadiusKm: radiusKm}, nil
}
