package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// sqliteTimeLayout is the storage format for TIMESTAMP columns. Values
// are always written in UTC so lexical and datetime() comparisons agree.
const sqliteTimeLayout = "2006-01-02 15:04:05.000"

func fmtTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

// defaultSearchLimit bounds park searches when the caller gives none.
const defaultSearchLimit = 50

// DefaultFreshnessThreshold is how old the newest synced_at in a search
// result may be before the result carries a staleness warning.
const DefaultFreshnessThreshold = 7 * 24 * time.Hour

// ParkRepo provides CRUD, upsert, and filtered search over the park
// catalog. Rows are created and refreshed only by upserts keyed on the
// external reference code.
type ParkRepo struct {
	mgr       *Manager
	freshness time.Duration
}

// NewParkRepo creates a park repository. A zero freshness threshold
// falls back to DefaultFreshnessThreshold.
func NewParkRepo(mgr *Manager, freshness time.Duration) *ParkRepo {
	if freshness <= 0 {
		freshness = DefaultFreshnessThreshold
	}
	return &ParkRepo{mgr: mgr, freshness: freshness}
}

const parkColumns = `id, reference, name, latitude, longitude, grid_square, state, country,
	   region, park_type, is_active, pota_url, synced_at, metadata`

// Upsert inserts or fully overwrites the row keyed by park.Reference and
// returns the stored row including its assigned identity. Input is
// trusted to be validated by the caller; constraint failures from the
// engine are still surfaced as constraint-classified errors.
func (r *ParkRepo) Upsert(ctx context.Context, park *Park) (*Park, error) {
	db, err := r.mgr.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	syncedAt := park.SyncedAt
	if syncedAt.IsZero() {
		syncedAt = time.Now()
	}

	query := `
		INSERT INTO parks (
			reference, name, latitude, longitude, grid_square, state, country,
			region, park_type, is_active, pota_url, synced_at, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(reference) DO UPDATE SET
			name = excluded.name,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			grid_square = excluded.grid_square,
			state = excluded.state,
			country = excluded.country,
			region = excluded.region,
			park_type = excluded.park_type,
			is_active = excluded.is_active,
			pota_url = excluded.pota_url,
			synced_at = excluded.synced_at,
			metadata = excluded.metadata
	`

	_, err = db.ExecContext(ctx, query,
		park.Reference,
		park.Name,
		park.Latitude,
		park.Longitude,
		park.GridSquare,
		park.State,
		park.Country,
		park.Region,
		park.ParkType,
		park.IsActive,
		park.PotaURL,
		fmtTime(syncedAt),
		park.Metadata,
	)
	if err != nil {
		return nil, classifyExecError("upsert park", err)
	}

	stored, err := r.FindByReference(ctx, park.Reference)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("upsert park: row for %s vanished after write", park.Reference)
	}
	return stored, nil
}

// FindByReference performs an exact-match lookup. A missing reference is
// an empty result (nil, nil), not an error.
func (r *ParkRepo) FindByReference(ctx context.Context, reference string) (*Park, error) {
	db, err := r.mgr.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + parkColumns + ` FROM parks WHERE reference = ?`

	park, err := scanPark(db.QueryRowContext(ctx, query, reference))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return park, nil
}

// Search matches query case-insensitively as a substring of reference or
// name, optionally filtered by state and bounded by a limit. The result
// carries the total match count and a staleness warning derived from the
// newest synced_at among the returned rows.
func (r *ParkRepo) Search(ctx context.Context, query string, opts ParkSearchOptions) (*ParkSearchResult, error) {
	db, err := r.mgr.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	pattern := "%" + query + "%"

	where := `WHERE (reference LIKE ? OR name LIKE ?)`
	args := []interface{}{pattern, pattern}
	if opts.State != "" {
		where += ` AND state = ?`
		args = append(args, opts.State)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM parks ` + where
	if err := db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count parks: %w", err)
	}

	listQuery := `SELECT ` + parkColumns + ` FROM parks ` + where + ` LIMIT ?`
	rows, err := db.QueryContext(ctx, listQuery, append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("search parks: %w", err)
	}
	defer rows.Close()

	result := &ParkSearchResult{Total: total}
	var newestSync time.Time
	for rows.Next() {
		park, err := scanPark(rows)
		if err != nil {
			return nil, err
		}
		if park.SyncedAt.After(newestSync) {
			newestSync = park.SyncedAt
		}
		result.Parks = append(result.Parks, park)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parks: %w", err)
	}

	if len(result.Parks) > 0 && time.Since(newestSync) > r.freshness {
		result.CatalogStale = true
	}
	return result, nil
}

// ListByEntity returns parks for one entity/region code, ordered by
// reference.
func (r *ParkRepo) ListByEntity(ctx context.Context, entityCode string, limit int) ([]*Park, error) {
	db, err := r.mgr.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultSearchLimit
	}

	query := `SELECT ` + parkColumns + ` FROM parks WHERE region = ? ORDER BY reference ASC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, entityCode, limit)
	if err != nil {
		return nil, fmt.Errorf("list parks by entity: %w", err)
	}
	defer rows.Close()

	parks := []*Park{}
	for rows.Next() {
		park, err := scanPark(rows)
		if err != nil {
			return nil, err
		}
		parks = append(parks, park)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parks: %w", err)
	}
	return parks, nil
}

// Count returns the total catalog size.
func (r *ParkRepo) Count(ctx context.Context) (int64, error) {
	db, err := r.mgr.Acquire(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM parks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count parks: %w", err)
	}
	return count, nil
}

// DeleteByReference removes a park. Maintenance only; plans owned by the
// park go with it via the schema's cascade.
func (r *ParkRepo) DeleteByReference(ctx context.Context, reference string) error {
	db, err := r.mgr.Acquire(ctx)
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `DELETE FROM parks WHERE reference = ?`, reference)
	if err != nil {
		return classifyExecError("delete park", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete park: %w", err)
	}
	if rows == 0 {
		return notFoundError("delete park", reference)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPark(row rowScanner) (*Park, error) {
	park := &Park{}
	err := row.Scan(
		&park.ID,
		&park.Reference,
		&park.Name,
		&park.Latitude,
		&park.Longitude,
		&park.GridSquare,
		&park.State,
		&park.Country,
		&park.Region,
		&park.ParkType,
		&park.IsActive,
		&park.PotaURL,
		&park.SyncedAt,
		&park.Metadata,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, newStoreError(ErrCodeDecode, "scan park", err)
	}
	if park.Metadata != nil && !json.Valid([]byte(*park.Metadata)) {
		return nil, newStoreError(ErrCodeDecode, "scan park",
			fmt.Errorf("metadata for %s is not valid JSON", park.Reference))
	}
	return park, nil
}
