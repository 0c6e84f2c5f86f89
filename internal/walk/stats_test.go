package walk

import (
	"math"
	"testing"
	"time"

	"backend-dogwalk/internal/shared/geo"
)

func TestStatisticsEmpty(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock, Options{})
	stats := s.Statistics()
	if stats.PointCount != 0 || stats.Duration != 0 || stats.AverageSpeedMps != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestStatisticsSpeedsAndGaps(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock, Options{Distance: func(a, b geo.Point) float64 {
		return math.Abs(b.Lat-a.Lat) * 1000
	}})
	if _, err := s.Start(true); err != nil {
		t.Fatalf("start: %v", err)
	}
	base := clock.Now()

	// 60 m in 60 s, then 120 m in 60 s, then a 10 minute silence with no movement.
	points := []struct {
		lat float64
		at  time.Duration
	}{
		{0, 0},
		{0.06, time.Minute},
		{0.18, 2 * time.Minute},
		{0.18, 12 * time.Minute},
	}
	for _, p := range points {
		at := base.Add(p.at)
		sample, err := NewGeoSample(SampleInput{Latitude: p.lat, Accuracy: 4, CapturedAt: at}, at)
		if err != nil {
			t.Fatalf("sample: %v", err)
		}
		if _, err := s.AppendLocation(sample); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	clock.Advance(20 * time.Minute)

	stats := s.Statistics()
	if stats.PointCount != 4 {
		t.Fatalf("unexpected point count %d", stats.PointCount)
	}
	if math.Abs(stats.DistanceM-180) > 1e-6 {
		t.Fatalf("unexpected distance %v", stats.DistanceM)
	}
	if stats.Duration != 20*time.Minute {
		t.Fatalf("in-progress duration should run to now, got %v", stats.Duration)
	}
	if math.Abs(stats.MaxSpeedMps-2) > 1e-6 {
		t.Fatalf("unexpected max speed %v", stats.MaxSpeedMps)
	}
	if stats.MinSpeedMps != 0 {
		t.Fatalf("unexpected min speed %v", stats.MinSpeedMps)
	}
	if !stats.HasGaps {
		t.Fatalf("expected a gap")
	}
	if stats.AverageAccuracy != 4 {
		t.Fatalf("unexpected accuracy %v", stats.AverageAccuracy)
	}
	if math.Abs(stats.AverageSpeedMps-180.0/1200.0) > 1e-9 {
		t.Fatalf("unexpected average speed %v", stats.AverageSpeedMps)
	}

	s.Complete(Completion{})
	clock.Advance(time.Hour)
	if got := s.Statistics().Duration; got != 20*time.Minute {
		t.Fatalf("completed duration must be frozen, got %v", got)
	}
}

func TestSnapshotCopiesState(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock, Options{})
	if _, err := s.Start(true); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := s.AppendLocation(sampleAt(t, 1, 1, clock.Now())); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.AppendPhoto(NewSessionPhoto("s3://bucket/a.jpg", 100, clock.Now())); err != nil {
		t.Fatalf("photo: %v", err)
	}
	clock.Advance(10 * time.Minute)
	rating := 5.0
	s.Complete(Completion{Rating: &rating, Notes: "ok"})

	snap := s.Snapshot()
	if snap.ID != s.ID() || snap.OwnerID != "owner-1" || snap.WalkerID != "walker-1" || snap.DogID != "dog-1" {
		t.Fatalf("unexpected identity %+v", snap)
	}
	if snap.Status != StatusCompleted || snap.ActualStart == nil || snap.EndTime == nil {
		t.Fatalf("unexpected lifecycle fields %+v", snap)
	}
	if snap.DurationSec != 600 || snap.Rating == nil || *snap.Rating != 5 {
		t.Fatalf("unexpected completion fields %+v", snap)
	}
	if len(snap.Locations) != 1 || len(snap.Photos) != 1 || len(snap.History) != 3 {
		t.Fatalf("unexpected sequences %+v", snap)
	}

	snap.Locations[0].Latitude = 50
	*snap.Rating = 1
	if s.Locations()[0].Latitude != 1 {
		t.Fatalf("snapshot must not alias locations")
	}
	if r, _ := s.Rating(); r != 5 {
		t.Fatalf("snapshot must not alias rating")
	}
}
