// Package potadirectory fetches park records from the POTA park
// directory API and converts them into store rows for upserting. It is
// an external collaborator of the data layer: it returns a validated
// success-or-error outcome and never hands over a half-formed payload.
package potadirectory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pjbaur/potaplan/pkg/stores"
	"github.com/pjbaur/potaplan/pkg/telemetry"
)

// Client talks to the POTA park directory API.
type Client struct {
	baseURL  string
	http     *http.Client
	validate *validator.Validate
	log      *telemetry.Logger
}

// NewClient creates a directory client with a fixed wall-clock timeout.
func NewClient(baseURL string, timeout time.Duration, log *telemetry.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: timeout},
		validate: validator.New(),
		log:      log.NewComponentLogger("potadirectory"),
	}
}

// parkRecord is the wire shape of one directory row.
type parkRecord struct {
	Reference    string  `json:"reference"`
	Name         string  `json:"name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Grid         string  `json:"grid"`
	LocationDesc string  `json:"locationDesc"`
	EntityName   string  `json:"entityName"`
	EntityID     string  `json:"entityId"`
	ParkType     string  `json:"parktypeDesc"`
	Active       int     `json:"active"`
}

// FetchEntityParks downloads the park list for one entity code and
// returns validated rows ready for the park repository's upsert. Rows
// failing coordinate or reference validation are dropped and counted,
// not fatal.
func (c *Client) FetchEntityParks(ctx context.Context, entity string) ([]*stores.Park, error) {
	endpoint := fmt.Sprintf("%s/parks/%s", c.baseURL, url.PathEscape(entity))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Kind: ErrKindNetwork, Op: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify("fetch parks", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			Kind: ErrKindNetwork,
			Op:   "fetch parks",
			Err:  fmt.Errorf("directory returned status %d", resp.StatusCode),
		}
	}

	var records []parkRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, &FetchError{Kind: ErrKindDecode, Op: "decode parks", Err: err}
	}
	if len(records) == 0 {
		return nil, &FetchError{
			Kind: ErrKindDecode,
			Op:   "decode parks",
			Err:  fmt.Errorf("directory returned an empty park list for entity %s", entity),
		}
	}

	syncedAt := time.Now()
	parks := make([]*stores.Park, 0, len(records))
	skipped := 0
	for _, rec := range records {
		park := rec.toPark(entity, syncedAt)
		if err := c.validate.Struct(park); err != nil {
			c.log.WithReference(rec.Reference).WithError(err).Warn("skipping invalid directory row")
			skipped++
			continue
		}
		parks = append(parks, park)
	}
	if len(parks) == 0 {
		return nil, &FetchError{
			Kind: ErrKindDecode,
			Op:   "validate parks",
			Err:  fmt.Errorf("all %d directory rows for entity %s failed validation", len(records), entity),
		}
	}
	if skipped > 0 {
		c.log.Warnf("skipped %d invalid directory rows for entity %s", skipped, entity)
	}
	return parks, nil
}

func (r parkRecord) toPark(entity string, syncedAt time.Time) *stores.Park {
	park := &stores.Park{
		Reference: r.Reference,
		Name:      r.Name,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Region:    &entity,
		IsActive:  r.Active != 0,
		SyncedAt:  syncedAt,
	}
	if r.Grid != "" {
		park.GridSquare = &r.Grid
	}
	if r.LocationDesc != "" {
		park.State = &r.LocationDesc
	}
	if r.EntityName != "" {
		park.Country = &r.EntityName
	}
	if r.ParkType != "" {
		park.ParkType = &r.ParkType
	}
	if r.Reference != "" {
		potaURL := "https://pota.app/#/park/" + r.Reference
		park.PotaURL = &potaURL
	}
	return park
}
