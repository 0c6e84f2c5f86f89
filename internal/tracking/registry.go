package tracking

import (
	"sync"

	"backend-dogwalk/internal/shared/geo"
	"backend-dogwalk/internal/walk"
)

type entry struct {
	session *walk.Session
	fence   *fence
}

// registry holds the live sessions of this instance.
type registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func newRegistry() *registry {
	return &registry{entries: map[string]*entry{}}
}

func (r *registry) add(e *entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := e.session.ID()
	if _, ok := r.entries[id]; ok {
		return false
	}
	r.entries[id] = e
	return true
}

func (r *registry) get(id string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// fence watches one walk's samples against a circular area centered on the
// first sample it observes.
type fence struct {
	radiusKm float64

	mu         sync.Mutex
	area       geo.Area
	armed      bool
	disarmed   bool
	outside    bool
	violations int
}

func newFence(radiusKm float64) *fence {
	if radiusKm <= 0 {
		return nil
	}
	return &fence{radiusKm: radiusKm}
}

// observe reports whether p lies outside the area and whether this sample is
// the one that crossed the boundary.
func (f *fence) observe(p geo.Point) (outside, exited bool) {
	if f == nil {
		return false, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.disarmed {
		return false, false
	}
	if !f.armed {
		area, err := geo.NewFence(p, f.radiusKm)
		if err != nil {
			f.disarmed = true
			return false, false
		}
		f.area = area
		f.armed = true
		return false, false
	}
	if f.area.Contains(p) {
		f.outside = false
		return false, false
	}
	f.violations++
	exited = !f.outside
	f.outside = true
	return true, exited
}

func (f *fence) disarm() {
	if f == nil {
		return
	}
	f.mu.Lock()
	f.disarmed = true
	f.mu.Unlock()
}

func (f *fence) Violations() int {
	if f == nil {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.violations
}
