// Package storage hands out object references for walk photos. The client
// uploads the bytes itself and then attaches the returned ref to the walk.
package storage

import (
	"context"
	"path"
	"strings"
	"time"

	"backend-dogwalk/internal/db"
	"backend-dogwalk/internal/shared/fault"

	"github.com/google/uuid"
)

const uploadWindow = 15 * time.Minute

var (
	ErrFileName  = fault.New(fault.CategoryValidation, "invalid_file_name", "file_name must be a plain name")
	ErrNotWalker = fault.New(fault.CategoryAuthorization, "not_walk_walker", "only the walk's walker can upload photos")
)

// WalkLookup names the participants of a walk.
type WalkLookup interface {
	Participants(ctx context.Context, sessionID string) (ownerID, walkerID string, err error)
}

type Upload struct {
	ID         string    `json:"id"`
	StorageRef string    `json:"storage_ref"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type Service struct {
	db      db.Querier
	walks   WalkLookup
	baseURL string
	now     func() time.Time
}

func NewService(q db.Querier, walks WalkLookup, baseURL string) *Service {
	return &Service{db: q, walks: walks, baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}
}

// Reserve records an upload slot for one photo of sessionID. Only the walk's
// walker may reserve.
func (s *Service) Reserve(ctx context.Context, sessionID, userID, fileName string) (Upload, error) {
	if fileName == "" {
		fileName = "photo.jpg"
	}
	if path.Base(fileName) != fileName || strings.HasPrefix(fileName, ".") {
		return Upload{}, ErrFileName
	}
	_, walkerID, err := s.walks.Participants(ctx, sessionID)
	if err != nil {
		return Upload{}, err
	}
	if walkerID != userID {
		return Upload{}, ErrNotWalker
	}
	up := Upload{
		ID:        uuid.NewString(),
		ExpiresAt: s.now().Add(uploadWindow),
	}
	up.StorageRef = s.baseURL + "/walks/" + sessionID + "/" + up.ID + "-" + fileName

	if s.db != nil {
		if _, err := s.db.Exec(ctx, `
			INSERT INTO storage_objects (id, session_id, user_id, url, kind, expires_at)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, up.ID, sessionID, userID, up.StorageRef, "walk_photo", up.ExpiresAt); err != nil {
			return Upload{}, err
		}
	}
	return up, nil
}
