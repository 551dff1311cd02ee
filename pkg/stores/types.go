package stores

import (
	"time"
)

// PlanStatus represents the lifecycle state of an activation plan.
// Transition legality (draft -> finalized -> completed, any -> cancelled)
// is enforced by the planner service, not by the store.
type PlanStatus string

const (
	PlanStatusDraft     PlanStatus = "draft"
	PlanStatusFinalized PlanStatus = "finalized"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusCancelled PlanStatus = "cancelled"
)

// Valid reports whether s is one of the four known plan statuses.
func (s PlanStatus) Valid() bool {
	switch s {
	case PlanStatusDraft, PlanStatusFinalized, PlanStatusCompleted, PlanStatusCancelled:
		return true
	}
	return false
}

// Park is a point-of-interest record synced from the POTA park directory.
// Reference is the globally unique external code (e.g. "K-0039") and is
// immutable once created; rows are refreshed by upserts keyed on it.
type Park struct {
	ID         int64     `json:"id"`
	Reference  string    `json:"reference" validate:"required"`
	Name       string    `json:"name" validate:"required"`
	Latitude   float64   `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude  float64   `json:"longitude" validate:"gte=-180,lte=180"`
	GridSquare *string   `json:"grid_square,omitempty"`
	State      *string   `json:"state,omitempty"`
	Country    *string   `json:"country,omitempty"`
	Region     *string   `json:"region,omitempty"` // entity code, e.g. "US"
	ParkType   *string   `json:"park_type,omitempty"`
	IsActive   bool      `json:"is_active"`
	PotaURL    *string   `json:"pota_url,omitempty"`
	SyncedAt   time.Time `json:"synced_at"`
	Metadata   *string   `json:"metadata,omitempty"` // JSON blob
}

// Plan is a single user-authored activation plan for one park.
// PlannedDate is a calendar date in "2006-01-02" form.
type Plan struct {
	ID              int64      `json:"id"`
	ParkID          int64      `json:"park_id"`
	Status          PlanStatus `json:"status"`
	PlannedDate     string     `json:"planned_date"`
	PlannedTime     *string    `json:"planned_time,omitempty"`
	DurationHours   *float64   `json:"duration_hours,omitempty"`
	PresetID        *int64     `json:"preset_id,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	WeatherSnapshot *string    `json:"weather_snapshot,omitempty"` // opaque serialized blob
	BandsSnapshot   *string    `json:"bands_snapshot,omitempty"`   // opaque serialized blob
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Park is the owning park, joined at read time.
	Park *Park `json:"park,omitempty"`
}

// PlanCreate holds the fields accepted when creating a plan.
// Status is always draft on creation.
type PlanCreate struct {
	ParkID        int64    `json:"park_id" validate:"required"`
	PlannedDate   string   `json:"planned_date" validate:"required,datetime=2006-01-02"`
	PlannedTime   *string  `json:"planned_time,omitempty"`
	DurationHours *float64 `json:"duration_hours,omitempty" validate:"omitempty,gt=0"`
	PresetID      *int64   `json:"preset_id,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
}

// PlanUpdate is a field-level partial update; only non-nil fields change.
type PlanUpdate struct {
	Status          *PlanStatus `json:"status,omitempty"`
	PlannedDate     *string     `json:"planned_date,omitempty"`
	PlannedTime     *string     `json:"planned_time,omitempty"`
	DurationHours   *float64    `json:"duration_hours,omitempty"`
	PresetID        *int64      `json:"preset_id,omitempty"`
	Notes           *string     `json:"notes,omitempty"`
	WeatherSnapshot *string     `json:"weather_snapshot,omitempty"`
	BandsSnapshot   *string     `json:"bands_snapshot,omitempty"`
}

// PlanFindOptions filters plan queries. Upcoming restricts results to
// plans whose date is today or later.
type PlanFindOptions struct {
	Status   *PlanStatus
	Upcoming bool
	Limit    int
}

// ParkSearchOptions bounds and filters park catalog searches.
type ParkSearchOptions struct {
	State string
	Limit int
}

// ParkSearchResult carries matched rows, the total match count, and a
// derived warning when the catalog has not been synced recently.
type ParkSearchResult struct {
	Parks        []*Park
	Total        int
	CatalogStale bool
}

// WeatherCacheEntry is a cached forecast for one coordinate and date.
// The (Latitude, Longitude, ForecastDate) triple is unique; a put for an
// existing triple replaces the row.
type WeatherCacheEntry struct {
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	ForecastDate string    `json:"forecast_date"`
	Data         string    `json:"data"` // opaque serialized forecast
	FetchedAt    time.Time `json:"fetched_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// CachedForecast is a cache read result. IsStale is computed at read
// time (now strictly after ExpiresAt), never stored; stale entries are
// still returned so callers can degrade gracefully.
type CachedForecast struct {
	Entry   WeatherCacheEntry
	IsStale bool
}

// UserConfig is the singleton preference record. Exactly one row exists,
// pinned to a fixed primary key; saves replace it in place.
type UserConfig struct {
	Callsign      string    `json:"callsign" validate:"required"`
	GridSquare    *string   `json:"grid_square,omitempty"`
	HomeLatitude  *float64  `json:"home_latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	HomeLongitude *float64  `json:"home_longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	Timezone      string    `json:"timezone"`
	Units         string    `json:"units" validate:"oneof=metric imperial"`
	UpdatedAt     time.Time `json:"updated_at"`
}
