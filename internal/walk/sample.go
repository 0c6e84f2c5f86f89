package walk

import (
	"math"
	"time"

	"backend-dogwalk/internal/shared/fault"
	"backend-dogwalk/internal/shared/geo"
)

// GeoSample is one validated GPS fix. It is a value type; sessions keep
// their own copies.
type GeoSample struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Altitude   float64   `json:"altitude"`
	Accuracy   float64   `json:"accuracy"`
	Speed      float64   `json:"speed"`
	Course     float64   `json:"course"`
	CapturedAt time.Time `json:"captured_at"`
}

// SampleInput is the raw reading handed over by a location provider.
type SampleInput struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Altitude   float64   `json:"altitude"`
	Accuracy   float64   `json:"accuracy"`
	Speed      float64   `json:"speed"`
	Course     float64   `json:"course"`
	CapturedAt time.Time `json:"captured_at"`
}

// NewGeoSample validates coordinates and clamps the rest: accuracy, speed and
// course are floored at 0, and a capture time after now (or a zero one) becomes now.
func NewGeoSample(in SampleInput, now time.Time) (GeoSample, error) {
	if err := geo.ValidatePoint(in.Latitude, in.Longitude); err != nil {
		return GeoSample{}, fault.Wrap(err, fault.CategoryValidation, "invalid_sample")
	}
	capturedAt := in.CapturedAt
	if capturedAt.IsZero() || capturedAt.After(now) {
		capturedAt = now
	}
	return GeoSample{
		Latitude:   in.Latitude,
		Longitude:  in.Longitude,
		Altitude:   finiteOrZero(in.Altitude),
		Accuracy:   nonNegative(in.Accuracy),
		Speed:      nonNegative(in.Speed),
		Course:     nonNegative(in.Course),
		CapturedAt: capturedAt,
	}, nil
}

func (g GeoSample) Point() geo.Point {
	return geo.Point{Lat: g.Latitude, Lng: g.Longitude}
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
