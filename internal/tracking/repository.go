package tracking

import (
	"context"

	"backend-dogwalk/internal/db"
	"backend-dogwalk/internal/walk"

	"github.com/jackc/pgx/v5"
)

// Repository writes walk state to Postgres. A nil querier turns every write
// into a no-op so the service can run without a database.
type Repository struct {
	db db.Querier
}

func NewRepository(q db.Querier) *Repository {
	return &Repository{db: q}
}

func (r *Repository) enabled() bool {
	return r != nil && r.db != nil
}

// SaveSession upserts the walk row. The history length is stored as a version
// so a snapshot that lost a race to a newer one never overwrites it.
func (r *Repository) SaveSession(ctx context.Context, snap walk.Snapshot) error {
	if !r.enabled() {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO walk_sessions (id, owner_id, walker_id, dog_id, scheduled_start, price, status,
			actual_start, end_time, duration_sec, rating, notes, cancel_reason, emergency, distance_m, version, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,NOW())
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			actual_start = EXCLUDED.actual_start,
			end_time = EXCLUDED.end_time,
			duration_sec = EXCLUDED.duration_sec,
			rating = EXCLUDED.rating,
			notes = EXCLUDED.notes,
			cancel_reason = EXCLUDED.cancel_reason,
			emergency = EXCLUDED.emergency,
			distance_m = GREATEST(walk_sessions.distance_m, EXCLUDED.distance_m),
			version = EXCLUDED.version,
			updated_at = NOW()
		WHERE walk_sessions.version <= EXCLUDED.version
	`, snap.ID, snap.OwnerID, snap.WalkerID, snap.DogID, snap.ScheduledStart, snap.Price, string(snap.Status),
		snap.ActualStart, snap.EndTime, snap.DurationSec, snap.Rating, snap.Notes, snap.CancelReason,
		snap.Emergency, snap.DistanceM, len(snap.History))
	return err
}

// Participants reads the owner and walker of a stored walk.
func (r *Repository) Participants(ctx context.Context, sessionID string) (ownerID, walkerID string, err error) {
	if !r.enabled() {
		return "", "", pgx.ErrNoRows
	}
	err = r.db.QueryRow(ctx, `SELECT owner_id, walker_id FROM walk_sessions WHERE id=$1`, sessionID).
		Scan(&ownerID, &walkerID)
	return ownerID, walkerID, err
}

func (r *Repository) InsertTransition(ctx context.Context, sessionID string, tr walk.StatusTransition) error {
	if !r.enabled() {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO walk_transitions (session_id, from_status, to_status, kind, reason, occurred_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, sessionID, string(tr.From), string(tr.To), string(tr.Kind), tr.Reason, tr.At)
	return err
}

func (r *Repository) InsertLocation(ctx context.Context, sessionID string, g walk.GeoSample, distanceM float64) error {
	if !r.enabled() {
		return nil
	}
	if _, err := r.db.Exec(ctx, `
		INSERT INTO walk_locations (session_id, location, altitude_m, accuracy_m, speed_mps, course, captured_at)
		VALUES ($1, ST_SetSRID(ST_MakePoint($2,$3), 4326)::geography, $4, $5, $6, $7, $8)
	`, sessionID, g.Longitude, g.Latitude, g.Altitude, g.Accuracy, g.Speed, g.Course, g.CapturedAt); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `
		UPDATE walk_sessions SET distance_m = GREATEST(distance_m, $2), updated_at = NOW() WHERE id = $1
	`, sessionID, distanceM)
	return err
}

func (r *Repository) InsertPhoto(ctx context.Context, sessionID string, p walk.SessionPhoto) error {
	if !r.enabled() {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO walk_photos (id, session_id, storage_ref, size_bytes, captured_at)
		VALUES ($1,$2,$3,$4,$5)
	`, p.ID, sessionID, p.StorageRef, p.SizeBytes, p.CapturedAt)
	return err
}

// Locations reads the stored path of a walk that is no longer held in memory.
func (r *Repository) Locations(ctx context.Context, sessionID string) ([]walk.GeoSample, error) {
	if !r.enabled() {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT ST_Y(location::geometry), ST_X(location::geometry), COALESCE(altitude_m,0), COALESCE(accuracy_m,0),
			COALESCE(speed_mps,0), COALESCE(course,0), captured_at
		FROM walk_locations WHERE session_id=$1
		ORDER BY captured_at, id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []walk.GeoSample
	for rows.Next() {
		var g walk.GeoSample
		if err := rows.Scan(&g.Latitude, &g.Longitude, &g.Altitude, &g.Accuracy, &g.Speed, &g.Course, &g.CapturedAt); err != nil {
			return nil, err
		}
		points = append(points, g)
	}
	return points, rows.Err()
}
