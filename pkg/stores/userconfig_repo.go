package stores

import (
	"context"
	"database/sql"
	"time"
)

// userConfigRowID pins the singleton preference record to one well-known
// primary key; the schema CHECK rejects any other id.
const userConfigRowID = 1

// UserConfigRepo stores the single-row user preference record.
type UserConfigRepo struct {
	mgr *Manager
}

// NewUserConfigRepo creates a user config repository.
func NewUserConfigRepo(mgr *Manager) *UserConfigRepo {
	return &UserConfigRepo{mgr: mgr}
}

// Save creates the record on first write and replaces it in place on
// every write after that.
func (r *UserConfigRepo) Save(ctx context.Context, cfg *UserConfig) error {
	db, err := r.mgr.Acquire(ctx)
	if err != nil {
		return err
	}

	timezone := cfg.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	units := cfg.Units
	if units == "" {
		units = "metric"
	}

	query := `
		INSERT INTO user_config (
			id, callsign, grid_square, home_latitude, home_longitude, timezone, units, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			callsign = excluded.callsign,
			grid_square = excluded.grid_square,
			home_latitude = excluded.home_latitude,
			home_longitude = excluded.home_longitude,
			timezone = excluded.timezone,
			units = excluded.units,
			updated_at = excluded.updated_at
	`
	_, err = db.ExecContext(ctx, query,
		userConfigRowID,
		cfg.Callsign,
		cfg.GridSquare,
		cfg.HomeLatitude,
		cfg.HomeLongitude,
		timezone,
		units,
		fmtTime(time.Now()),
	)
	if err != nil {
		return classifyExecError("save user config", err)
	}
	return nil
}

// Get returns the preference record, or (nil, nil) before the first
// write.
func (r *UserConfigRepo) Get(ctx context.Context) (*UserConfig, error) {
	db, err := r.mgr.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT callsign, grid_square, home_latitude, home_longitude, timezone, units, updated_at
		FROM user_config
		WHERE id = ?
	`

	cfg := &UserConfig{}
	err = db.QueryRowContext(ctx, query, userConfigRowID).Scan(
		&cfg.Callsign,
		&cfg.GridSquare,
		&cfg.HomeLatitude,
		&cfg.HomeLongitude,
		&cfg.Timezone,
		&cfg.Units,
		&cfg.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, newStoreError(ErrCodeDecode, "scan user config", err)
	}
	return cfg, nil
}
