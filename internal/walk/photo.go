package walk

import (
	"time"

	"github.com/google/uuid"
)

// SessionPhoto references an image uploaded during a walk. Size limits are
// enforced when the photo is appended, not here.
type SessionPhoto struct {
	ID         string    `json:"id"`
	StorageRef string    `json:"storage_ref"`
	SizeBytes  int64     `json:"size_bytes"`
	CapturedAt time.Time `json:"captured_at"`
}

func NewSessionPhoto(storageRef string, sizeBytes int64, capturedAt time.Time) SessionPhoto {
	return SessionPhoto{
		ID:         uuid.NewString(),
		StorageRef: storageRef,
		SizeBytes:  sizeBytes,
		CapturedAt: capturedAt,
	}
}
