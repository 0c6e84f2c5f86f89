package tracking

import (
	"time"

	"backend-dogwalk/internal/shared/fault"
	"backend-dogwalk/internal/walk"
)

var (
	ErrWalkNotFound    = fault.New(fault.CategoryNotFound, "walk_not_found", "walk not found")
	ErrWalkExists      = fault.New(fault.CategoryState, "walk_exists", "walk already exists")
	ErrWalkStillActive = fault.New(fault.CategoryState, "walk_still_active", "walk has not finished")
)

// CreateInput books a walk directly. The assignment flow fills ID with the
// session id it reserved in the walker's gate.
type CreateInput struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	WalkerID       string    `json:"walker_id"`
	DogID          string    `json:"dog_id"`
	ScheduledStart time.Time `json:"scheduled_start"`
	Price          float64   `json:"price"`
}

type ReasonRequest struct {
	Reason string `json:"reason"`
}

type CompleteRequest struct {
	Rating *float64 `json:"rating"`
	Notes  string   `json:"notes"`
}

type PhotoInput struct {
	StorageRef string    `json:"storage_ref"`
	SizeBytes  int64     `json:"size_bytes"`
	CapturedAt time.Time `json:"captured_at"`
}

type LocationResult struct {
	Sample    walk.GeoSample `json:"sample"`
	DistanceM float64        `json:"distance_m"`
	// OutsideFence is set when the sample lies outside the walk geofence.
	OutsideFence bool `json:"outside_fence"`
}

type TransitionResult struct {
	Transition walk.StatusTransition `json:"transition"`
	// Applied is false when the command was a no-op on a finished walk.
	Applied bool        `json:"applied"`
	Status  walk.Status `json:"status"`
}

type Summary struct {
	SessionID          string          `json:"session_id"`
	Status             walk.Status     `json:"status"`
	Emergency          bool            `json:"emergency"`
	PhotoCount         int             `json:"photo_count"`
	BoundaryViolations int             `json:"boundary_violations"`
	Statistics         walk.Statistics `json:"statistics"`
}
