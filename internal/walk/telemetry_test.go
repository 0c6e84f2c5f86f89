package walk

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"backend-dogwalk/internal/shared/geo"
)

// metersPerDegreeLat matches geo.HaversineMeters along a meridian.
const metersPerDegreeLat = 6371.0 * 1000 * math.Pi / 180

func TestAppendLocationAccumulatesDistance(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock, Options{})
	base := clock.Now()

	total, err := s.AppendLocation(sampleAt(t, 0, 0, base))
	if err != nil || total != 0 {
		t.Fatalf("first sample: %v %v", total, err)
	}
	total, err = s.AppendLocation(sampleAt(t, 100/metersPerDegreeLat, 0, base.Add(time.Minute)))
	if err != nil {
		t.Fatalf("second sample: %v", err)
	}
	if math.Abs(total-100) > 0.01 {
		t.Fatalf("expected ~100m, got %v", total)
	}
	// Same timestamp is accepted: capture times are non-decreasing, not strict.
	if _, err := s.AppendLocation(sampleAt(t, 100/metersPerDegreeLat, 0, base.Add(time.Minute))); err != nil {
		t.Fatalf("equal timestamp: %v", err)
	}
	if len(s.Locations()) != 3 {
		t.Fatalf("expected 3 locations")
	}
}

func TestAppendLocationRejectsOutOfOrder(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock, Options{})
	base := clock.Now()

	if _, err := s.AppendLocation(sampleAt(t, 0, 0, base)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := s.AppendLocation(sampleAt(t, 0.001, 0, base.Add(time.Minute))); err != nil {
		t.Fatalf("append: %v", err)
	}
	before := s.Distance()

	_, err := s.AppendLocation(sampleAt(t, 1, 1, base.Add(30*time.Second)))
	if !errors.Is(err, ErrOutOfOrderSample) {
		t.Fatalf("expected out of order error, got %v", err)
	}
	if s.Distance() != before || len(s.Locations()) != 2 {
		t.Fatalf("rejected sample must leave state untouched")
	}
	last, _ := s.LastLocation()
	if !last.CapturedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("unexpected last sample %v", last.CapturedAt)
	}
}

func TestAppendLocationIgnoresNegativeSegments(t *testing.T) {
	clock := newFakeClock()
	calls := 0
	s := newTestSession(t, clock, Options{Distance: func(a, b geo.Point) float64 {
		calls++
		if calls == 2 {
			return -40
		}
		if calls == 3 {
			return math.NaN()
		}
		return 10
	}})
	base := clock.Now()

	var totals []float64
	for i := 0; i < 5; i++ {
		total, err := s.AppendLocation(sampleAt(t, 0, 0, base.Add(time.Duration(i)*time.Second)))
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		totals = append(totals, total)
	}
	want := []float64{0, 10, 10, 10, 20}
	for i := range want {
		if totals[i] != want[i] {
			t.Fatalf("totals = %v, want %v", totals, want)
		}
	}
}

func TestAppendLocationConcurrentMonotonic(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock, Options{Distance: func(a, b geo.Point) float64 { return 1 }})
	base := clock.Now()

	const producers, perProducer = 8, 200
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		seq     int
		results = make(map[int]float64)
	)
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				// The shared counter hands out increasing timestamps, and the
				// append happens under the same lock so arrival order matches.
				mu.Lock()
				seq++
				n := seq
				total, err := s.AppendLocation(GeoSample{CapturedAt: base.Add(time.Duration(n) * time.Millisecond)})
				mu.Unlock()
				if err != nil {
					t.Errorf("append %d: %v", n, err)
					return
				}
				mu.Lock()
				results[n] = total
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	keys := make([]int, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	prev := -1.0
	for _, k := range keys {
		if results[k] < prev {
			t.Fatalf("distance decreased at %d: %v < %v", k, results[k], prev)
		}
		prev = results[k]
	}
	if want := float64(producers*perProducer - 1); s.Distance() != want {
		t.Fatalf("expected %v, got %v", want, s.Distance())
	}
}

func TestAppendLocationConcurrentRacingProducers(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock, Options{Distance: func(a, b geo.Point) float64 { return 2 }})
	base := clock.Now()

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			last := 0.0
			for i := 0; i < 100; i++ {
				total, err := s.AppendLocation(GeoSample{CapturedAt: base.Add(time.Duration(i*4+p) * time.Millisecond)})
				if errors.Is(err, ErrOutOfOrderSample) {
					continue
				}
				if err != nil {
					t.Errorf("append: %v", err)
					return
				}
				if total < last {
					t.Errorf("producer %d observed decrease %v < %v", p, total, last)
					return
				}
				last = total
			}
		}(p)
	}
	wg.Wait()

	locs := s.Locations()
	for i := 1; i < len(locs); i++ {
		if locs[i].CapturedAt.Before(locs[i-1].CapturedAt) {
			t.Fatalf("locations out of order at %d", i)
		}
	}
	if want := float64(2 * (len(locs) - 1)); s.Distance() != want {
		t.Fatalf("distance %v does not match %d accepted samples", s.Distance(), len(locs))
	}
}

func TestAppendPhotoValidatesSize(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock, Options{})

	for _, size := range []int64{0, -1, DefaultMaxPhotoBytes + 1} {
		if err := s.AppendPhoto(NewSessionPhoto("s3://bucket/p.jpg", size, clock.Now())); !errors.Is(err, ErrPhotoSize) {
			t.Fatalf("size %d: expected size error, got %v", size, err)
		}
	}
	if err := s.AppendPhoto(NewSessionPhoto("s3://bucket/p.jpg", DefaultMaxPhotoBytes, clock.Now())); err != nil {
		t.Fatalf("max size must be accepted: %v", err)
	}
}

func TestAppendPhotoCapacity(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock, Options{})

	for i := 0; i < DefaultPhotoCapacity; i++ {
		if err := s.AppendPhoto(NewSessionPhoto(fmt.Sprintf("s3://bucket/%d.jpg", i), 1024, clock.Now())); err != nil {
			t.Fatalf("photo %d: %v", i, err)
		}
	}
	err := s.AppendPhoto(NewSessionPhoto("s3://bucket/extra.jpg", 1024, clock.Now()))
	if !errors.Is(err, ErrPhotoCapacity) {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if len(s.Photos()) != DefaultPhotoCapacity {
		t.Fatalf("expected %d photos, got %d", DefaultPhotoCapacity, len(s.Photos()))
	}
}

func TestAppendPhotoConcurrentCapacity(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock, Options{PhotoCapacity: 5})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.AppendPhoto(NewSessionPhoto("s3://bucket/x.jpg", 10, clock.Now()))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, ErrPhotoCapacity):
				rejected++
			default:
				t.Errorf("unexpected error %v", err)
			}
		}()
	}
	wg.Wait()
	if accepted != 5 || rejected != 45 || len(s.Photos()) != 5 {
		t.Fatalf("accepted=%d rejected=%d photos=%d", accepted, rejected, len(s.Photos()))
	}
}

func TestAppendAfterTerminalPolicy(t *testing.T) {
	clock := newFakeClock()

	strict := newTestSession(t, clock, Options{})
	strict.Cancel("rain")
	if _, err := strict.AppendLocation(sampleAt(t, 0, 0, clock.Now())); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected closed error, got %v", err)
	}
	if err := strict.AppendPhoto(NewSessionPhoto("ref", 10, clock.Now())); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected closed error, got %v", err)
	}

	permissive := newTestSession(t, clock, Options{AllowAppendAfterTerminal: true})
	permissive.Complete(Completion{})
	if _, err := permissive.AppendLocation(sampleAt(t, 0, 0, clock.Now())); err != nil {
		t.Fatalf("permissive append location: %v", err)
	}
	if err := permissive.AppendPhoto(NewSessionPhoto("ref", 10, clock.Now())); err != nil {
		t.Fatalf("permissive append photo: %v", err)
	}
}

func TestWalkScenario(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock, Options{})
	if s.Price() != 25.00 {
		t.Fatalf("unexpected price")
	}
	if _, err := s.Start(true); err != nil {
		t.Fatalf("start: %v", err)
	}

	step := 50 / metersPerDegreeLat
	var total float64
	for i := 0; i < 3; i++ {
		clock.Advance(time.Minute)
		var err error
		total, err = s.AppendLocation(sampleAt(t, 10+float64(i)*step, 20, clock.Now()))
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if math.Abs(total-100) > 0.01 {
		t.Fatalf("expected ~100m, got %v", total)
	}

	rating := 4.5
	s.Complete(Completion{Rating: &rating})
	if s.Status() != StatusCompleted {
		t.Fatalf("expected completed")
	}
	if s.Duration() <= 0 {
		t.Fatalf("expected positive duration")
	}
	if r, ok := s.Rating(); !ok || r != 4.5 {
		t.Fatalf("unexpected rating %v", r)
	}
}
