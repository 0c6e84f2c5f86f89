package capacity

import (
	"time"

	"backend-dogwalk/internal/shared/geo"
)

// Credentials are supplied by the identity and verification collaborator.
type Credentials struct {
	BackgroundCheckValid bool     `json:"background_check_valid"`
	InsuranceValid       bool     `json:"insurance_valid"`
	ServiceArea          geo.Area `json:"service_area"`
}

const (
	CheckBackground  = "background_check"
	CheckInsurance   = "insurance"
	CheckServiceArea = "service_area"
)

// VerificationRecord is one append-only entry of a walker's verification trail.
type VerificationRecord struct {
	Check      string    `json:"check"`
	RecordedAt time.Time `json:"recorded_at"`
	Valid      bool      `json:"valid"`
}

// DetailEntry is one piece of caller-supplied booking context.
type DetailEntry struct {
	Key        string    `json:"key"`
	RecordedAt time.Time `json:"recorded_at"`
	Value      string    `json:"value"`
}

// Details is opaque to the gate beyond being non-empty.
type Details []DetailEntry

func (d Details) Empty() bool {
	for _, e := range d {
		if e.Key != "" {
			return false
		}
	}
	return true
}

// Status is a point-in-time view of a gate.
type Status struct {
	WalkerID        string      `json:"walker_id"`
	Available       bool        `json:"available"`
	AutoPaused      bool        `json:"auto_paused"`
	MaxSimultaneous int         `json:"max_simultaneous"`
	Assigned        []string    `json:"assigned"`
	Credentials     Credentials `json:"credentials"`
}
