package walk

import (
	"math"
	"sync"
	"time"

	"backend-dogwalk/internal/shared/geo"

	"github.com/google/uuid"
)

const (
	DefaultPhotoCapacity = 20
	DefaultMaxPhotoBytes = 50_000_000
)

// Options tunes a session's ingestion policy. Zero values select the defaults.
type Options struct {
	PhotoCapacity int
	MaxPhotoBytes int64
	// AllowAppendAfterTerminal keeps accepting locations and photos once the
	// session is completed or cancelled.
	AllowAppendAfterTerminal bool
	Distance                 geo.DistanceFunc
	Now                      func() time.Time
}

func (o Options) withDefaults() Options {
	if o.PhotoCapacity <= 0 {
		o.PhotoCapacity = DefaultPhotoCapacity
	}
	if o.MaxPhotoBytes <= 0 {
		o.MaxPhotoBytes = DefaultMaxPhotoBytes
	}
	if o.Distance == nil {
		o.Distance = geo.HaversineMeters
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Params are the immutable facts of a booked walk.
type Params struct {
	ID             string
	OwnerID        string
	WalkerID       string
	DogID          string
	ScheduledStart time.Time
	Price          float64
}

// Session is one walk engagement. It is safe for concurrent use.
//
// State is split into three independently locked groups: lifecycle
// (status, times, audit log), telemetry (locations and running distance)
// and photos. When two locks are needed the telemetry or photo lock is taken
// first and the lifecycle lock second.
type Session struct {
	id             string
	ownerID        string
	walkerID       string
	dogID          string
	scheduledStart time.Time
	price          float64
	opts           Options

	stateMu      sync.RWMutex
	status       Status
	actualStart  time.Time
	endTime      time.Time
	duration     time.Duration
	rating       *float64
	notes        string
	cancelReason string
	emergency    bool
	transitions  []StatusTransition

	locMu     sync.RWMutex
	locations []GeoSample
	distance  float64

	photoMu sync.RWMutex
	photos  []SessionPhoto
}

// New creates a scheduled session. It panics on a negative or non-finite
// price or a missing owner or walker: those are programming errors, callers
// validate user input before getting here.
func New(p Params, opts Options) *Session {
	if p.Price < 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
		panic("walk: price must be a finite non-negative amount")
	}
	if p.OwnerID == "" || p.WalkerID == "" {
		panic("walk: owner and walker ids are required")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	opts = opts.withDefaults()

	s := &Session{
		id:             p.ID,
		ownerID:        p.OwnerID,
		walkerID:       p.WalkerID,
		dogID:          p.DogID,
		scheduledStart: p.ScheduledStart,
		price:          p.Price,
		opts:           opts,
		status:         StatusScheduled,
	}
	s.transitions = append(s.transitions, StatusTransition{
		From: StatusUnknown,
		To:   StatusScheduled,
		At:   opts.Now(),
		Kind: KindStatusChange,
	})
	return s
}

func (s *Session) ID() string                { return s.id }
func (s *Session) OwnerID() string           { return s.ownerID }
func (s *Session) WalkerID() string          { return s.walkerID }
func (s *Session) DogID() string             { return s.dogID }
func (s *Session) ScheduledStart() time.Time { return s.scheduledStart }
func (s *Session) Price() float64            { return s.price }

func (s *Session) Status() Status {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.status
}

func (s *Session) ActualStart() (time.Time, bool) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.actualStart, !s.actualStart.IsZero()
}

func (s *Session) EndTime() (time.Time, bool) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.endTime, !s.endTime.IsZero()
}

func (s *Session) Duration() time.Duration {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.duration
}

func (s *Session) Rating() (float64, bool) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if s.rating == nil {
		return 0, false
	}
	return *s.rating, true
}

func (s *Session) Notes() string {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.notes
}

func (s *Session) CancelReason() string {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.cancelReason
}

func (s *Session) Emergency() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.emergency
}

// History returns a copy of the audit log, oldest first.
func (s *Session) History() []StatusTransition {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	out := make([]StatusTransition, len(s.transitions))
	copy(out, s.transitions)
	return out
}

func (s *Session) Distance() float64 {
	s.locMu.RLock()
	defer s.locMu.RUnlock()
	return s.distance
}

// Locations returns a copy of the accepted samples in capture order.
func (s *Session) Locations() []GeoSample {
	s.locMu.RLock()
	defer s.locMu.RUnlock()
	out := make([]GeoSample, len(s.locations))
	copy(out, s.locations)
	return out
}

func (s *Session) LastLocation() (GeoSample, bool) {
	s.locMu.RLock()
	defer s.locMu.RUnlock()
	if len(s.locations) == 0 {
		return GeoSample{}, false
	}
	return s.locations[len(s.locations)-1], true
}

func (s *Session) Photos() []SessionPhoto {
	s.photoMu.RLock()
	defer s.photoMu.RUnlock()
	out := make([]SessionPhoto, len(s.photos))
	copy(out, s.photos)
	return out
}

func (s *Session) PhotoCapacity() int {
	return s.opts.PhotoCapacity
}
