package assignment

import (
	"context"
	"strings"
	"sync"
	"time"

	"backend-dogwalk/internal/capacity"
	"backend-dogwalk/internal/db"
	"backend-dogwalk/internal/events"
	"backend-dogwalk/internal/metrics"
	"backend-dogwalk/internal/shared/fault"
	"backend-dogwalk/internal/tracking"
	"backend-dogwalk/internal/walk"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WalkCreator opens the session for an admitted booking.
type WalkCreator interface {
	Create(ctx context.Context, in tracking.CreateInput) (walk.Snapshot, error)
}

type Deps struct {
	DB        db.Querier
	Walks     WalkCreator
	Publisher events.Publisher
	Metrics   *metrics.Collector
	Logger    *zap.Logger
	// DefaultMaxSimultaneous applies to walkers registered without a limit.
	DefaultMaxSimultaneous int
	Now                    func() time.Time
}

// Service keeps one capacity gate per walker and books walks through them.
type Service struct {
	repo       *Repository
	walks      WalkCreator
	publisher  events.Publisher
	metrics    *metrics.Collector
	log        *zap.Logger
	defaultMax int
	now        func() time.Time

	mu    sync.RWMutex
	gates map[string]*capacity.Gate
}

func NewService(d Deps) *Service {
	if d.Publisher == nil {
		d.Publisher = events.Nop{}
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Service{
		repo:       NewRepository(d.DB),
		walks:      d.Walks,
		publisher:  d.Publisher,
		metrics:    d.Metrics,
		log:        d.Logger,
		defaultMax: d.DefaultMaxSimultaneous,
		now:        d.Now,
		gates:      map[string]*capacity.Gate{},
	}
}

func (s *Service) RegisterWalker(ctx context.Context, in RegisterWalkerInput) (capacity.Status, error) {
	if strings.TrimSpace(in.WalkerID) == "" {
		return capacity.Status{}, fault.New(fault.CategoryValidation, "invalid_walker", "walker_id is required")
	}
	if in.MaxSimultaneous <= 0 {
		in.MaxSimultaneous = s.defaultMax
	}
	gate := capacity.NewGate(capacity.Config{
		WalkerID:        in.WalkerID,
		MaxSimultaneous: in.MaxSimultaneous,
		Available:       in.Available,
		Credentials:     in.Credentials,
		Now:             s.now,
	})

	s.mu.Lock()
	if _, ok := s.gates[in.WalkerID]; ok {
		s.mu.Unlock()
		return capacity.Status{}, ErrWalkerExists
	}
	s.gates[in.WalkerID] = gate
	s.mu.Unlock()

	st := gate.Status()
	s.saveWalker(ctx, st)
	s.saveVerifications(ctx, in.WalkerID, gate.VerificationHistory())
	return st, nil
}

// Restore rebuilds the gates stored in Postgres. Walkers already registered
// in memory are left alone. Live walks do not survive a restart, so a walker
// the gate had paused at the limit comes back available.
func (s *Service) Restore(ctx context.Context) (int, error) {
	walkers, err := s.repo.LoadWalkers(ctx)
	if err != nil {
		return 0, err
	}
	restored := 0
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, in := range walkers {
		if _, ok := s.gates[in.WalkerID]; ok {
			continue
		}
		s.gates[in.WalkerID] = capacity.NewGate(capacity.Config{
			WalkerID:        in.WalkerID,
			MaxSimultaneous: in.MaxSimultaneous,
			Available:       in.Available,
			AutoPaused:      in.AutoPaused,
			Credentials:     in.Credentials,
			Now:             s.now,
		})
		restored++
	}
	return restored, nil
}

func (s *Service) Walker(id string) (capacity.Status, error) {
	gate, err := s.gate(id)
	if err != nil {
		return capacity.Status{}, err
	}
	return gate.Status(), nil
}

func (s *Service) SetAvailability(ctx context.Context, id string, available bool) (capacity.Status, error) {
	gate, err := s.gate(id)
	if err != nil {
		return capacity.Status{}, err
	}
	gate.SetAvailable(available)
	st := gate.Status()
	s.saveWalker(ctx, st)
	return st, nil
}

func (s *Service) UpdateCredentials(ctx context.Context, id string, creds capacity.Credentials) (capacity.Status, error) {
	gate, err := s.gate(id)
	if err != nil {
		return capacity.Status{}, err
	}
	gate.UpdateCredentials(creds)
	st := gate.Status()
	history := gate.VerificationHistory()
	s.saveWalker(ctx, st)
	if n := len(history); n >= 3 {
		s.saveVerifications(ctx, id, history[n-3:])
	}
	return st, nil
}

func (s *Service) Verifications(id string) ([]capacity.VerificationRecord, error) {
	gate, err := s.gate(id)
	if err != nil {
		return nil, err
	}
	return gate.VerificationHistory(), nil
}

func (s *Service) CanAccept(id string, details capacity.Details) (AcceptCheck, error) {
	gate, err := s.gate(id)
	if err != nil {
		return AcceptCheck{}, err
	}
	ok, err := gate.CanAccept(details)
	if ok {
		return AcceptCheck{Accepting: true}, nil
	}
	return AcceptCheck{Code: fault.CodeOf(err), Reason: err.Error()}, nil
}

// Book admits a new walk in the walker's gate and opens its session. When the
// session cannot be created the slot is handed back.
func (s *Service) Book(ctx context.Context, req BookingRequest) (Booking, error) {
	gate, err := s.gate(req.WalkerID)
	if err != nil {
		return Booking{}, err
	}

	sessionID := uuid.NewString()
	if _, err := gate.Assign(sessionID, req.Details); err != nil {
		s.metrics.Assignments.WithLabelValues(fault.CodeOf(err)).Inc()
		return Booking{}, err
	}

	snap, err := s.walks.Create(ctx, tracking.CreateInput{
		ID:             sessionID,
		OwnerID:        req.OwnerID,
		WalkerID:       req.WalkerID,
		DogID:          req.DogID,
		ScheduledStart: req.ScheduledStart,
		Price:          req.Price,
	})
	if err != nil {
		gate.Release(sessionID)
		s.metrics.Assignments.WithLabelValues("create_failed").Inc()
		return Booking{}, err
	}
	s.metrics.Assignments.WithLabelValues("assigned").Inc()
	s.saveWalker(ctx, gate.Status())

	ev, err := events.New(events.TypeAssigned, sessionID, req.WalkerID, s.now(), req)
	if err == nil {
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.metrics.PublishErrors.Inc()
			s.log.Error("publish assignment", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return Booking{SessionID: sessionID, WalkerID: req.WalkerID, Walk: snap}, nil
}

// Release frees the slot held by a finished walk.
func (s *Service) Release(walkerID, sessionID string) {
	gate, err := s.gate(walkerID)
	if err != nil {
		return
	}
	if gate.Release(sessionID) {
		s.saveWalker(context.Background(), gate.Status())
	}
}

func (s *Service) gate(id string) (*capacity.Gate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.gates[id]
	if !ok {
		return nil, ErrWalkerNotFound
	}
	return g, nil
}

func (s *Service) saveWalker(ctx context.Context, st capacity.Status) {
	if err := s.repo.SaveWalker(ctx, st); err != nil {
		s.metrics.PersistErrors.WithLabelValues("walkers").Inc()
		s.log.Error("persist walker", zap.String("walker_id", st.WalkerID), zap.Error(err))
	}
}

func (s *Service) saveVerifications(ctx context.Context, walkerID string, records []capacity.VerificationRecord) {
	if err := s.repo.InsertVerifications(ctx, walkerID, records); err != nil {
		s.metrics.PersistErrors.WithLabelValues("walker_verifications").Inc()
		s.log.Error("persist walker verifications", zap.String("walker_id", walkerID), zap.Error(err))
	}
}

var _ tracking.Releaser = (*Service)(nil)
