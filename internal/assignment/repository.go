package assignment

import (
	"context"

	"backend-dogwalk/internal/capacity"
	"backend-dogwalk/internal/db"
	"backend-dogwalk/internal/shared/geo"
)

// Repository stores walker gates so they survive a restart. The assigned set
// is not stored; live sessions rebuild it.
type Repository struct {
	db db.Querier
}

func NewRepository(q db.Querier) *Repository {
	return &Repository{db: q}
}

func (r *Repository) enabled() bool {
	return r != nil && r.db != nil
}

func (r *Repository) SaveWalker(ctx context.Context, st capacity.Status) error {
	if !r.enabled() {
		return nil
	}
	area := st.Credentials.ServiceArea
	_, err := r.db.Exec(ctx, `
		INSERT INTO walkers (id, available, auto_paused, max_simultaneous, background_check_valid, insurance_valid,
			service_lat, service_lng, service_radius_km, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())
		ON CONFLICT (id) DO UPDATE SET
			available = EXCLUDED.available,
			auto_paused = EXCLUDED.auto_paused,
			max_simultaneous = EXCLUDED.max_simultaneous,
			background_check_valid = EXCLUDED.background_check_valid,
			insurance_valid = EXCLUDED.insurance_valid,
			service_lat = EXCLUDED.service_lat,
			service_lng = EXCLUDED.service_lng,
			service_radius_km = EXCLUDED.service_radius_km,
			updated_at = NOW()
	`, st.WalkerID, st.Available, st.AutoPaused, st.MaxSimultaneous, st.Credentials.BackgroundCheckValid, st.Credentials.InsuranceValid,
		area.Center.Lat, area.Center.Lng, area.RadiusKm)
	return err
}

func (r *Repository) InsertVerifications(ctx context.Context, walkerID string, records []capacity.VerificationRecord) error {
	if !r.enabled() {
		return nil
	}
	for _, rec := range records {
		if _, err := r.db.Exec(ctx, `
			INSERT INTO walker_verifications (walker_id, check_name, valid, recorded_at)
			VALUES ($1,$2,$3,$4)
		`, walkerID, rec.Check, rec.Valid, rec.RecordedAt); err != nil {
			return err
		}
	}
	return nil
}

// storedWalker is a walkers row. AutoPaused is kept apart from the input
// because only a restore may set it.
type storedWalker struct {
	RegisterWalkerInput
	AutoPaused bool
}

func (r *Repository) LoadWalkers(ctx context.Context) ([]storedWalker, error) {
	if !r.enabled() {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, available, COALESCE(auto_paused,false), max_simultaneous, background_check_valid, insurance_valid,
			COALESCE(service_lat,0), COALESCE(service_lng,0), COALESCE(service_radius_km,0)
		FROM walkers ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storedWalker
	for rows.Next() {
		var in storedWalker
		var area geo.Area
		if err := rows.Scan(&in.WalkerID, &in.Available, &in.AutoPaused, &in.MaxSimultaneous,
			&in.Credentials.BackgroundCheckValid, &in.Credentials.InsuranceValid,
			&area.Center.Lat, &area.Center.Lng, &area.RadiusKm); err != nil {
			return nil, err
		}
		in.Credentials.ServiceArea = area
		out = append(out, in)
	}
	return out, rows.Err()
}
