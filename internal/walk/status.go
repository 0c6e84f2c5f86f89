package walk

// Status is the lifecycle state of a walk session.
type Status string

const (
	// StatusUnknown only appears as the from-state of the first transition.
	StatusUnknown    Status = "unknown"
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further status change is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus maps a stored value back to a Status, falling back to StatusUnknown.
func ParseStatus(v string) Status {
	switch Status(v) {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return Status(v)
	}
	return StatusUnknown
}
