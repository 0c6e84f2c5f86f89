package walk

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestSession(t *testing.T, clock *fakeClock, opts Options) *Session {
	t.Helper()
	opts.Now = clock.Now
	return New(Params{
		OwnerID:        "owner-1",
		WalkerID:       "walker-1",
		DogID:          "dog-1",
		ScheduledStart: clock.Now().Add(time.Hour),
		Price:          25.00,
	}, opts)
}

func sampleAt(t *testing.T, lat, lng float64, at time.Time) GeoSample {
	t.Helper()
	s, err := NewGeoSample(SampleInput{Latitude: lat, Longitude: lng, Accuracy: 5, CapturedAt: at}, at.Add(time.Hour))
	if err != nil {
		t.Fatalf("new sample: %v", err)
	}
	return s
}
