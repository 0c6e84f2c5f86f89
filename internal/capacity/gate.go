package capacity

import (
	"sort"
	"sync"
	"time"
)

type Config struct {
	WalkerID        string
	MaxSimultaneous int
	Available       bool
	// AutoPaused marks Available=false as the gate's own pause at the limit
	// rather than the walker's choice.
	AutoPaused      bool
	Credentials     Credentials
	Now             func() time.Time
}

// Gate arbitrates how many walks a single walker holds at once. The assigned
// set and the availability flag are guarded together so Assign is one
// check-then-commit step.
type Gate struct {
	walkerID string
	max      int
	now      func() time.Time

	mu        sync.RWMutex
	available bool
	// autoPaused is set when Assign turned availability off on reaching max.
	autoPaused bool
	creds      Credentials
	assigned   map[string]struct{}
	history    []VerificationRecord
}

func NewGate(cfg Config) *Gate {
	if cfg.MaxSimultaneous <= 0 {
		cfg.MaxSimultaneous = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	g := &Gate{
		walkerID:  cfg.WalkerID,
		max:       cfg.MaxSimultaneous,
		now:       cfg.Now,
		available: cfg.Available,
		assigned:  make(map[string]struct{}),
	}
	// A new gate holds no walks, so a carried-over automatic pause is lifted.
	if cfg.AutoPaused {
		g.available = true
	}
	g.setCredentialsLocked(cfg.Credentials)
	return g
}

func (g *Gate) WalkerID() string { return g.walkerID }

// CanAccept reports whether one more walk could be assigned right now,
// naming the first failing check.
func (g *Gate) CanAccept(details Details) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.checkLocked(details); err != nil {
		return false, err
	}
	return true, nil
}

// Assign runs the CanAccept checks and records sessionID under one lock.
// Reaching the limit turns availability off in the same step. Assigning an
// id that is already held succeeds without changes.
func (g *Gate) Assign(sessionID string, details Details) (bool, error) {
	if sessionID == "" {
		return false, ErrSessionIDRequired
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.assigned[sessionID]; ok {
		return true, nil
	}
	if err := g.checkLocked(details); err != nil {
		return false, err
	}
	g.assigned[sessionID] = struct{}{}
	if len(g.assigned) >= g.max {
		g.available = false
		g.autoPaused = true
	}
	return true, nil
}

// Release drops a finished walk. Availability comes back only if the gate
// itself paused the walker.
func (g *Gate) Release(sessionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.assigned[sessionID]; !ok {
		return false
	}
	delete(g.assigned, sessionID)
	if g.autoPaused && len(g.assigned) < g.max {
		g.available = true
		g.autoPaused = false
	}
	return true
}

// SetAvailable records the walker's own choice and clears any automatic pause.
func (g *Gate) SetAvailable(available bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.available = available
	g.autoPaused = false
}

func (g *Gate) UpdateCredentials(c Credentials) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setCredentialsLocked(c)
}

func (g *Gate) Available() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.available
}

func (g *Gate) AssignedCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.assigned)
}

func (g *Gate) Status() Status {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]string, 0, len(g.assigned))
	for id := range g.assigned {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return Status{
		WalkerID:        g.walkerID,
		Available:       g.available,
		AutoPaused:      g.autoPaused,
		MaxSimultaneous: g.max,
		Assigned:        ids,
		Credentials:     g.creds,
	}
}

// VerificationHistory returns a copy of the verification trail, oldest first.
func (g *Gate) VerificationHistory() []VerificationRecord {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]VerificationRecord, len(g.history))
	copy(out, g.history)
	return out
}

// checkLocked treats an automatic pause as a capacity condition so callers
// see why the walker stopped accepting.
func (g *Gate) checkLocked(details Details) error {
	switch {
	case !g.available && !g.autoPaused:
		return ErrNotAvailable
	case len(g.assigned) >= g.max:
		return ErrCapacityExceeded
	case !g.creds.BackgroundCheckValid:
		return ErrBackgroundCheckInvalid
	case !g.creds.InsuranceValid:
		return ErrInsuranceInvalid
	case g.creds.ServiceArea.Validate() != nil:
		return ErrServiceAreaInvalid
	case details.Empty():
		return ErrDetailsIncomplete
	}
	return nil
}

func (g *Gate) setCredentialsLocked(c Credentials) {
	at := g.now()
	g.creds = c
	g.history = append(g.history,
		VerificationRecord{Check: CheckBackground, RecordedAt: at, Valid: c.BackgroundCheckValid},
		VerificationRecord{Check: CheckInsurance, RecordedAt: at, Valid: c.InsuranceValid},
		VerificationRecord{Check: CheckServiceArea, RecordedAt: at, Valid: c.ServiceArea.Validate() == nil},
	)
}
