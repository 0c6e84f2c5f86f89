package assignment

import (
	"time"

	"backend-dogwalk/internal/capacity"
	"backend-dogwalk/internal/shared/fault"
	"backend-dogwalk/internal/walk"
)

var (
	ErrWalkerNotFound = fault.New(fault.CategoryNotFound, "walker_not_found", "walker not registered")
	ErrWalkerExists   = fault.New(fault.CategoryState, "walker_exists", "walker already registered")
)

type RegisterWalkerInput struct {
	WalkerID        string               `json:"walker_id"`
	MaxSimultaneous int                  `json:"max_simultaneous"`
	Available       bool                 `json:"available"`
	Credentials     capacity.Credentials `json:"credentials"`
}

type AvailabilityRequest struct {
	Available bool `json:"available"`
}

type BookingRequest struct {
	WalkerID       string           `json:"walker_id"`
	OwnerID        string           `json:"owner_id"`
	DogID          string           `json:"dog_id"`
	ScheduledStart time.Time        `json:"scheduled_start"`
	Price          float64          `json:"price"`
	Details        capacity.Details `json:"details"`
}

type Booking struct {
	SessionID string        `json:"session_id"`
	WalkerID  string        `json:"walker_id"`
	Walk      walk.Snapshot `json:"walk"`
}

// AcceptCheck explains a CanAccept answer; Code names the first failing check.
type AcceptCheck struct {
	Accepting bool   `json:"accepting"`
	Code      string `json:"code,omitempty"`
	Reason    string `json:"reason,omitempty"`
}
