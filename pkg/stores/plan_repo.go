package stores

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// PlanRepo provides CRUD and filtered retrieval over activation plans.
// Every read joins the owning park so returned plans carry a current
// park snapshot, not a cached copy.
type PlanRepo struct {
	mgr *Manager
}

// NewPlanRepo creates a plan repository.
func NewPlanRepo(mgr *Manager) *PlanRepo {
	return &PlanRepo{mgr: mgr}
}

const planColumns = `p.id, p.park_id, p.status, p.planned_date, p.planned_time,
	   p.duration_hours, p.preset_id, p.notes, p.weather_snapshot,
	   p.bands_snapshot, p.created_at, p.updated_at`

const planSelect = `
	SELECT ` + planColumns + `, ` + `
		   k.id, k.reference, k.name, k.latitude, k.longitude, k.grid_square,
		   k.state, k.country, k.region, k.park_type, k.is_active, k.pota_url,
		   k.synced_at, k.metadata
	FROM plans p
	JOIN parks k ON k.id = p.park_id
`

// Create inserts a new draft plan. The owning park is checked explicitly
// so a dangling park id fails with an attributable constraint error
// instead of a bare engine message.
func (r *PlanRepo) Create(ctx context.Context, in PlanCreate) (*Plan, error) {
	db, err := r.mgr.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	var parkID int64
	err = db.QueryRowContext(ctx, `SELECT id FROM parks WHERE id = ?`, in.ParkID).Scan(&parkID)
	if err == sql.ErrNoRows {
		return nil, newStoreError(ErrCodeConstraint, "create plan",
			fmt.Errorf("park %d does not exist", in.ParkID))
	}
	if err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}

	now := fmtTime(time.Now())
	query := `
		INSERT INTO plans (
			park_id, status, planned_date, planned_time, duration_hours,
			preset_id, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := db.ExecContext(ctx, query,
		in.ParkID,
		PlanStatusDraft,
		in.PlannedDate,
		in.PlannedTime,
		in.DurationHours,
		in.PresetID,
		in.Notes,
		now,
		now,
	)
	if err != nil {
		return nil, classifyExecError("create plan", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}

	plan, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("create plan: row %d vanished after insert", id)
	}
	return plan, nil
}

// Update applies a field-level merge: only non-nil fields change, and
// updated_at is always refreshed. A missing id is a not-found outcome,
// never a silent no-op.
func (r *PlanRepo) Update(ctx context.Context, id int64, upd PlanUpdate) (*Plan, error) {
	db, err := r.mgr.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	if upd.Status != nil && !upd.Status.Valid() {
		return nil, newStoreError(ErrCodeConstraint, "update plan",
			fmt.Errorf("unknown status %q", *upd.Status))
	}

	sets := []string{"updated_at = ?"}
	args := []interface{}{fmtTime(time.Now())}

	addSet := func(column string, value interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if upd.Status != nil {
		addSet("status", *upd.Status)
	}
	if upd.PlannedDate != nil {
		addSet("planned_date", *upd.PlannedDate)
	}
	if upd.PlannedTime != nil {
		addSet("planned_time", *upd.PlannedTime)
	}
	if upd.DurationHours != nil {
		addSet("duration_hours", *upd.DurationHours)
	}
	if upd.PresetID != nil {
		addSet("preset_id", *upd.PresetID)
	}
	if upd.Notes != nil {
		addSet("notes", *upd.Notes)
	}
	if upd.WeatherSnapshot != nil {
		addSet("weather_snapshot", *upd.WeatherSnapshot)
	}
	if upd.BandsSnapshot != nil {
		addSet("bands_snapshot", *upd.BandsSnapshot)
	}

	query := "UPDATE plans SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, id)

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, classifyExecError("update plan", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}
	if rows == 0 {
		return nil, notFoundError("update plan", id)
	}

	return r.FindByID(ctx, id)
}

// FindByID retrieves a single plan joined with its owning park. A
// missing id is an empty result (nil, nil).
func (r *PlanRepo) FindByID(ctx context.Context, id int64) (*Plan, error) {
	db, err := r.mgr.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	plan, err := scanPlan(db.QueryRowContext(ctx, planSelect+` WHERE p.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Find retrieves plans matching opts, joined with their owning parks,
// in ascending planned-date order.
func (r *PlanRepo) Find(ctx context.Context, opts PlanFindOptions) ([]*Plan, error) {
	db, err := r.mgr.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	var conds []string
	var args []interface{}
	if opts.Status != nil {
		conds = append(conds, "p.status = ?")
		args = append(args, *opts.Status)
	}
	if opts.Upcoming {
		conds = append(conds, "p.planned_date >= ?")
		args = append(args, time.Now().Format("2006-01-02"))
	}

	query := planSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY p.planned_date ASC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find plans: %w", err)
	}
	defer rows.Close()

	plans := []*Plan{}
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	return plans, nil
}

// Delete removes a plan. A missing id is a not-found outcome.
func (r *PlanRepo) Delete(ctx context.Context, id int64) error {
	db, err := r.mgr.Acquire(ctx)
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return classifyExecError("delete plan", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	if rows == 0 {
		return notFoundError("delete plan", id)
	}
	return nil
}

func scanPlan(row rowScanner) (*Plan, error) {
	plan := &Plan{}
	park := &Park{}
	err := row.Scan(
		&plan.ID,
		&plan.ParkID,
		&plan.Status,
		&plan.PlannedDate,
		&plan.PlannedTime,
		&plan.DurationHours,
		&plan.PresetID,
		&plan.Notes,
		&plan.WeatherSnapshot,
		&plan.BandsSnapshot,
		&plan.CreatedAt,
		&plan.UpdatedAt,
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
		return nil, newStoreError(ErrCodeDecode, "scan plan", err)
	}
	if !plan.Status.Valid() {
		return nil, newStoreError(ErrCodeDecode, "scan plan",
			fmt.Errorf("plan %d has unknown status %q", plan.ID, plan.Status))
	}
	plan.Park = park
	return plan, nil
}
