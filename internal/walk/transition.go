package walk

import "time"

type TransitionKind string

const (
	KindStatusChange TransitionKind = "status_change"
	// KindEmergency entries keep From == To; they only mark the log.
	KindEmergency TransitionKind = "emergency"
)

// StatusTransition is one entry of a session's audit log.
type StatusTransition struct {
	From   Status         `json:"from"`
	To     Status         `json:"to"`
	At     time.Time      `json:"at"`
	Reason string         `json:"reason,omitempty"`
	Kind   TransitionKind `json:"kind"`
}
