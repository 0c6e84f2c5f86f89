package walk

import "time"

// Snapshot is a plain copy of a session for the persistence layer. Each
// group is read under its own lock, so a snapshot taken while producers are
// active is consistent per group.
type Snapshot struct {
	ID             string             `json:"id"`
	OwnerID        string             `json:"owner_id"`
	WalkerID       string             `json:"walker_id"`
	DogID          string             `json:"dog_id"`
	ScheduledStart time.Time          `json:"scheduled_start"`
	Price          float64            `json:"price"`
	Status         Status             `json:"status"`
	ActualStart    *time.Time         `json:"actual_start,omitempty"`
	EndTime        *time.Time         `json:"end_time,omitempty"`
	DurationSec    float64            `json:"duration_sec"`
	Rating         *float64           `json:"rating,omitempty"`
	Notes          string             `json:"notes,omitempty"`
	CancelReason   string             `json:"cancel_reason,omitempty"`
	Emergency      bool               `json:"emergency"`
	DistanceM      float64            `json:"distance_m"`
	Locations      []GeoSample        `json:"locations"`
	Photos         []SessionPhoto     `json:"photos"`
	History        []StatusTransition `json:"history"`
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:             s.id,
		OwnerID:        s.ownerID,
		WalkerID:       s.walkerID,
		DogID:          s.dogID,
		ScheduledStart: s.scheduledStart,
		Price:          s.price,
	}

	s.stateMu.RLock()
	snap.Status = s.status
	snap.ActualStart = timePtr(s.actualStart)
	snap.EndTime = timePtr(s.endTime)
	snap.DurationSec = s.duration.Seconds()
	if s.rating != nil {
		r := *s.rating
		snap.Rating = &r
	}
	snap.Notes = s.notes
	snap.CancelReason = s.cancelReason
	snap.Emergency = s.emergency
	snap.History = make([]StatusTransition, len(s.transitions))
	copy(snap.History, s.transitions)
	s.stateMu.RUnlock()

	s.locMu.RLock()
	snap.DistanceM = s.distance
	snap.Locations = make([]GeoSample, len(s.locations))
	copy(snap.Locations, s.locations)
	s.locMu.RUnlock()

	s.photoMu.RLock()
	snap.Photos = make([]SessionPhoto, len(s.photos))
	copy(snap.Photos, s.photos)
	s.photoMu.RUnlock()

	return snap
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
