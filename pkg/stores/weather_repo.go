package stores

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// WeatherRepo provides keyed put/get over cached forecast snapshots with
// explicit expiry timestamps. Stale rows are returned with a staleness
// flag, never hidden; retention is unbounded by design and PurgeExpired
// is operator-invoked.
type WeatherRepo struct {
	mgr *Manager
}

// NewWeatherRepo creates a weather cache repository.
func NewWeatherRepo(mgr *Manager) *WeatherRepo {
	return &WeatherRepo{mgr: mgr}
}

// Put inserts or replaces the cached forecast for the entry's
// (latitude, longitude, forecast date) triple. Last write wins; partial
// forecast fields are never merged.
func (r *WeatherRepo) Put(ctx context.Context, entry *WeatherCacheEntry) error {
	db, err := r.mgr.Acquire(ctx)
	if err != nil {
		return err
	}

	if !entry.ExpiresAt.After(entry.FetchedAt) {
		return newStoreError(ErrCodeConstraint, "put weather cache",
			fmt.Errorf("expires_at %s is not after fetched_at %s",
				entry.ExpiresAt.Format(time.RFC3339), entry.FetchedAt.Format(time.RFC3339)))
	}

	query := `
		INSERT INTO weather_cache (
			latitude, longitude, forecast_date, data, fetched_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(latitude, longitude, forecast_date) DO UPDATE SET
			data = excluded.data,
			fetched_at = excluded.fetched_at,
			expires_at = excluded.expires_at
	`
	_, err = db.ExecContext(ctx, query,
		entry.Latitude,
		entry.Longitude,
		entry.ForecastDate,
		entry.Data,
		fmtTime(entry.FetchedAt),
		fmtTime(entry.ExpiresAt),
	)
	if err != nil {
		return classifyExecError("put weather cache", err)
	}
	return nil
}

// Get performs an exact-key lookup. A stale entry is still returned,
// flagged; a miss is only reported when no row exists at all (nil, nil).
func (r *WeatherRepo) Get(ctx context.Context, latitude, longitude float64, forecastDate string) (*CachedForecast, error) {
	db, err := r.mgr.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT latitude, longitude, forecast_date, data, fetched_at, expires_at
		FROM weather_cache
		WHERE latitude = ? AND longitude = ? AND forecast_date = ?
	`

	entry := WeatherCacheEntry{}
	err = db.QueryRowContext(ctx, query, latitude, longitude, forecastDate).Scan(
		&entry.Latitude,
		&entry.Longitude,
		&entry.ForecastDate,
		&entry.Data,
		&entry.FetchedAt,
		&entry.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, newStoreError(ErrCodeDecode, "scan weather cache", err)
	}

	return &CachedForecast{
		Entry:   entry,
		IsStale: time.Now().After(entry.ExpiresAt),
	}, nil
}

// PurgeExpired deletes every row whose expiry has passed and returns the
// number of rows removed.
func (r *WeatherRepo) PurgeExpired(ctx context.Context) (int64, error) {
	db, err := r.mgr.Acquire(ctx)
	if err != nil {
		return 0, err
	}

	result, err := db.ExecContext(ctx,
		`DELETE FROM weather_cache WHERE datetime(expires_at) < datetime(?)`, fmtTime(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("purge weather cache: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge weather cache: %w", err)
	}
	return rows, nil
}
