package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"backend-dogwalk/internal/db"
	"backend-dogwalk/internal/events"
	"backend-dogwalk/internal/metrics"
	"backend-dogwalk/internal/walk"
)

var errTrack = errors.New("track error")

// metersPerDegreeLat matches the haversine earth radius.
const metersPerDegreeLat = 111194.93

var baseTime = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu  sync.Mutex
	evs []events.Event
	err error
}

func (p *recordingPublisher) Publish(_ context.Context, evs ...events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.evs = append(p.evs, evs...)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(typ events.Type) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.evs {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

type recordingReleaser struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingReleaser) Release(walkerID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, walkerID+"/"+sessionID)
}

func newTestService(t *testing.T, q db.Querier, fenceKm float64) (*Service, *recordingPublisher, *metrics.Collector) {
	t.Helper()
	pub := &recordingPublisher{}
	m := metrics.New()
	svc := NewService(Deps{
		DB:               q,
		Publisher:        pub,
		Metrics:          m,
		Options:          walk.Options{Now: func() time.Time { return baseTime }},
		GeofenceRadiusKm: fenceKm,
	})
	return svc, pub, m
}

func createWalk(t *testing.T, svc *Service, id string) walk.Snapshot {
	t.Helper()
	snap, err := svc.Create(context.Background(), CreateInput{
		ID:       id,
		OwnerID:  "owner-1",
		WalkerID: "walker-1",
		DogID:    "dog-1",
		Price:    25,
	})
	if err != nil {
		t.Fatalf("create walk: %v", err)
	}
	return snap
}

func northOf(lat, lng, meters float64) walk.SampleInput {
	return walk.SampleInput{Latitude: lat + meters/metersPerDegreeLat, Longitude: lng, Accuracy: 5, Speed: 1.2}
}

func containsType(payload []byte, typ events.Type) bool {
	var ev events.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return false
	}
	return ev.Type == typ
}
