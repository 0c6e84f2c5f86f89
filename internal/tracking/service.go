package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"backend-dogwalk/internal/db"
	"backend-dogwalk/internal/events"
	"backend-dogwalk/internal/metrics"
	"backend-dogwalk/internal/shared/fault"
	"backend-dogwalk/internal/stream"
	"backend-dogwalk/internal/walk"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Releaser frees the walker slot held by a finished walk.
type Releaser interface {
	Release(walkerID, sessionID string)
}

type Deps struct {
	DB        db.Querier
	Hub       *stream.Hub
	Publisher events.Publisher
	Metrics   *metrics.Collector
	Logger    *zap.Logger
	Options   walk.Options
	// GeofenceRadiusKm of 0 disables geofencing.
	GeofenceRadiusKm float64
}

// Service owns the live walks of this instance. Every side effect
// (persistence, fan-out, slot release) runs after the walk engine call has
// returned.
type Service struct {
	repo      *Repository
	hub       *stream.Hub
	publisher events.Publisher
	metrics   *metrics.Collector
	log       *zap.Logger
	opts      walk.Options
	fenceKm   float64
	releaser  Releaser
	live      *registry
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
	if d.Options.Now == nil {
		d.Options.Now = time.Now
	}
	return &Service{
		repo:      NewRepository(d.DB),
		hub:       d.Hub,
		publisher: d.Publisher,
		metrics:   d.Metrics,
		log:       d.Logger,
		opts:      d.Options,
		fenceKm:   d.GeofenceRadiusKm,
		live:      newRegistry(),
	}
}

// SetReleaser must be called before the service handles traffic.
func (s *Service) SetReleaser(r Releaser) {
	s.releaser = r
}

func (s *Service) Create(ctx context.Context, in CreateInput) (walk.Snapshot, error) {
	if err := validateCreate(in); err != nil {
		return walk.Snapshot{}, err
	}
	if in.ID != "" {
		if _, ok := s.live.get(in.ID); ok {
			return walk.Snapshot{}, ErrWalkExists
		}
	}
	sess := walk.New(walk.Params{
		ID:             in.ID,
		OwnerID:        in.OwnerID,
		WalkerID:       in.WalkerID,
		DogID:          in.DogID,
		ScheduledStart: in.ScheduledStart,
		Price:          in.Price,
	}, s.opts)
	if !s.live.add(&entry{session: sess, fence: newFence(s.fenceKm)}) {
		return walk.Snapshot{}, ErrWalkExists
	}
	s.metrics.ActiveSessions.Inc()

	snap := sess.Snapshot()
	s.persist(ctx, "walk_sessions", sess.ID(), func(ctx context.Context) error {
		return s.repo.SaveSession(ctx, snap)
	})
	for _, tr := range snap.History {
		s.recordTransition(ctx, sess, tr)
	}
	return snap, nil
}

func validateCreate(in CreateInput) error {
	switch {
	case strings.TrimSpace(in.OwnerID) == "":
		return fault.New(fault.CategoryValidation, "invalid_walk", "owner_id is required")
	case strings.TrimSpace(in.WalkerID) == "":
		return fault.New(fault.CategoryValidation, "invalid_walk", "walker_id is required")
	case math.IsNaN(in.Price) || math.IsInf(in.Price, 0) || in.Price < 0:
		return fault.New(fault.CategoryValidation, "invalid_walk", "price must be a finite non-negative amount")
	}
	return nil
}

func (s *Service) Start(ctx context.Context, id string, walkerVerified bool) (TransitionResult, error) {
	e, err := s.lookup(id)
	if err != nil {
		return TransitionResult{}, err
	}
	tr, err := e.session.Start(walkerVerified)
	if err != nil {
		return TransitionResult{}, err
	}
	s.afterTransition(ctx, e, tr)
	return TransitionResult{Transition: tr, Applied: true, Status: e.session.Status()}, nil
}

func (s *Service) Cancel(ctx context.Context, id, reason string) (TransitionResult, error) {
	e, err := s.lookup(id)
	if err != nil {
		return TransitionResult{}, err
	}
	tr, ok := e.session.Cancel(reason)
	if ok {
		s.afterTransition(ctx, e, tr)
	}
	return TransitionResult{Transition: tr, Applied: ok, Status: e.session.Status()}, nil
}

func (s *Service) Complete(ctx context.Context, id string, req CompleteRequest) (TransitionResult, error) {
	e, err := s.lookup(id)
	if err != nil {
		return TransitionResult{}, err
	}
	tr, ok := e.session.Complete(walk.Completion{Rating: req.Rating, Notes: req.Notes})
	if ok {
		s.afterTransition(ctx, e, tr)
	}
	return TransitionResult{Transition: tr, Applied: ok, Status: e.session.Status()}, nil
}

func (s *Service) Emergency(ctx context.Context, id, reason string) (TransitionResult, error) {
	e, err := s.lookup(id)
	if err != nil {
		return TransitionResult{}, err
	}
	tr := e.session.TriggerEmergency(reason)
	s.afterTransition(ctx, e, tr)
	return TransitionResult{Transition: tr, Applied: true, Status: e.session.Status()}, nil
}

func (s *Service) AddLocation(ctx context.Context, id string, in walk.SampleInput) (LocationResult, error) {
	e, err := s.lookup(id)
	if err != nil {
		return LocationResult{}, err
	}
	sample, err := walk.NewGeoSample(in, s.opts.Now())
	if err != nil {
		s.metrics.LocationsRejected.WithLabelValues(fault.CodeOf(err)).Inc()
		return LocationResult{}, err
	}
	distance, err := e.session.AppendLocation(sample)
	if err != nil {
		s.metrics.LocationsRejected.WithLabelValues(fault.CodeOf(err)).Inc()
		return LocationResult{}, err
	}
	s.metrics.LocationsAccepted.Inc()

	outside, exited := e.fence.observe(sample.Point())
	res := LocationResult{Sample: sample, DistanceM: distance, OutsideFence: outside}

	s.persist(ctx, "walk_locations", id, func(ctx context.Context) error {
		return s.repo.InsertLocation(ctx, id, sample, distance)
	})
	s.emit(ctx, e.session, events.TypeLocation, sample.CapturedAt, res, false)

	if outside {
		s.metrics.GeofenceExits.Inc()
	}
	if exited {
		s.log.Info("walk left geofence", zap.String("session_id", id), zap.String("walker_id", e.session.WalkerID()))
		s.emit(ctx, e.session, events.TypeGeofenceExit, sample.CapturedAt, sample, true)
	}
	return res, nil
}

func (s *Service) AddPhoto(ctx context.Context, id string, in PhotoInput) (walk.SessionPhoto, error) {
	e, err := s.lookup(id)
	if err != nil {
		return walk.SessionPhoto{}, err
	}
	if strings.TrimSpace(in.StorageRef) == "" {
		err := fault.New(fault.CategoryValidation, "invalid_photo", "storage_ref is required")
		s.metrics.PhotosRejected.WithLabelValues(fault.CodeOf(err)).Inc()
		return walk.SessionPhoto{}, err
	}
	if in.CapturedAt.IsZero() {
		in.CapturedAt = s.opts.Now()
	}
	photo := walk.NewSessionPhoto(in.StorageRef, in.SizeBytes, in.CapturedAt)
	if err := e.session.AppendPhoto(photo); err != nil {
		s.metrics.PhotosRejected.WithLabelValues(fault.CodeOf(err)).Inc()
		return walk.SessionPhoto{}, err
	}
	s.metrics.PhotosAccepted.Inc()

	s.persist(ctx, "walk_photos", id, func(ctx context.Context) error {
		return s.repo.InsertPhoto(ctx, id, photo)
	})
	s.emit(ctx, e.session, events.TypePhoto, photo.CapturedAt, photo, false)
	return photo, nil
}

func (s *Service) Get(id string) (walk.Snapshot, error) {
	e, err := s.lookup(id)
	if err != nil {
		return walk.Snapshot{}, err
	}
	return e.session.Snapshot(), nil
}

func (s *Service) Exists(id string) bool {
	_, ok := s.live.get(id)
	return ok
}

func (s *Service) Summary(id string) (Summary, error) {
	e, err := s.lookup(id)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		SessionID:          id,
		Status:             e.session.Status(),
		Emergency:          e.session.Emergency(),
		PhotoCount:         len(e.session.Photos()),
		BoundaryViolations: e.fence.Violations(),
		Statistics:         e.session.Statistics(),
	}, nil
}

// Points returns the recorded path, reading from Postgres once the walk has
// been evicted from memory.
func (s *Service) Points(ctx context.Context, id string) ([]walk.GeoSample, error) {
	if e, ok := s.live.get(id); ok {
		return e.session.Locations(), nil
	}
	if !s.repo.enabled() {
		return nil, ErrWalkNotFound
	}
	points, err := s.repo.Locations(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, ErrWalkNotFound
	}
	return points, nil
}

// Participants names the owner and walker of a walk, reading the stored row
// once the walk has been evicted.
func (s *Service) Participants(ctx context.Context, id string) (ownerID, walkerID string, err error) {
	if e, ok := s.live.get(id); ok {
		return e.session.OwnerID(), e.session.WalkerID(), nil
	}
	ownerID, walkerID, err = s.repo.Participants(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", ErrWalkNotFound
	}
	return ownerID, walkerID, err
}

func (s *Service) History(id string) ([]walk.StatusTransition, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.session.History(), nil
}

func (s *Service) Photos(id string) ([]walk.SessionPhoto, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.session.Photos(), nil
}

// Evict drops a finished walk from memory after a final save.
func (s *Service) Evict(ctx context.Context, id string) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	if !e.session.Status().Terminal() {
		return ErrWalkStillActive
	}
	snap := e.session.Snapshot()
	s.persist(ctx, "walk_sessions", id, func(ctx context.Context) error {
		return s.repo.SaveSession(ctx, snap)
	})
	s.live.remove(id)
	s.metrics.ActiveSessions.Dec()
	return nil
}

func (s *Service) lookup(id string) (*entry, error) {
	e, ok := s.live.get(id)
	if !ok {
		return nil, ErrWalkNotFound
	}
	return e, nil
}

func (s *Service) afterTransition(ctx context.Context, e *entry, tr walk.StatusTransition) {
	snap := e.session.Snapshot()
	s.persist(ctx, "walk_sessions", snap.ID, func(ctx context.Context) error {
		return s.repo.SaveSession(ctx, snap)
	})
	s.recordTransition(ctx, e.session, tr)

	if tr.Kind == walk.KindStatusChange && tr.To.Terminal() {
		e.fence.disarm()
		if s.releaser != nil {
			s.releaser.Release(snap.WalkerID, snap.ID)
		}
	}
}

func (s *Service) recordTransition(ctx context.Context, sess *walk.Session, tr walk.StatusTransition) {
	s.metrics.Transitions.WithLabelValues(string(tr.Kind), string(tr.To)).Inc()
	s.persist(ctx, "walk_transitions", sess.ID(), func(ctx context.Context) error {
		return s.repo.InsertTransition(ctx, sess.ID(), tr)
	})
	typ := events.TypeStatusChanged
	if tr.Kind == walk.KindEmergency {
		typ = events.TypeEmergency
		s.log.Warn("walk emergency", zap.String("session_id", sess.ID()), zap.String("reason", tr.Reason))
	}
	s.emit(ctx, sess, typ, tr.At, tr, true)
}

func (s *Service) persist(ctx context.Context, table, sessionID string, write func(context.Context) error) {
	if err := write(ctx); err != nil {
		s.metrics.PersistErrors.WithLabelValues(table).Inc()
		s.log.Error("persist walk state", zap.String("table", table), zap.String("session_id", sessionID), zap.Error(err))
	}
}

// emit pushes an event to live watchers; durable events also go to Kafka.
func (s *Service) emit(ctx context.Context, sess *walk.Session, typ events.Type, at time.Time, data any, durable bool) {
	ev, err := events.New(typ, sess.ID(), sess.WalkerID(), at, data)
	if err != nil {
		s.log.Error("encode walk event", zap.String("type", string(typ)), zap.Error(err))
		return
	}
	if s.hub != nil {
		if payload, err := json.Marshal(ev); err == nil {
			s.hub.Broadcast(ctx, sess.ID(), payload)
		}
	}
	if !durable {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.metrics.PublishErrors.Inc()
		s.log.Error("publish walk event", zap.String("type", string(typ)), zap.String("session_id", sess.ID()), zap.Error(err))
	}
}
