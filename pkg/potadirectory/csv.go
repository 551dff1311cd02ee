package potadirectory

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pjbaur/potaplan/pkg/stores"
)

// csv column names in the all-parks export.
const (
	colReference = "reference"
	colName      = "name"
	colLatitude  = "latitude"
	colLongitude = "longitude"
	colGrid      = "grid"
	colLocation  = "locationDesc"
	colEntity    = "entityId"
	colParkType  = "parktypeDesc"
	colActive    = "active"
)

// ParseCSV reads an all-parks CSV export into store rows for bulk
// upserting. Rows with a missing reference or unparsable coordinates
// are skipped and counted; a missing required header is fatal.
func ParseCSV(r io.Reader) (parks []*stores.Park, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}

	index := map[string]int{}
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colReference, colName, colLatitude, colLongitude} {
		if _, ok := index[required]; !ok {
			return nil, 0, fmt.Errorf("csv export is missing the %q column", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	syncedAt := time.Now()
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read csv row: %w", err)
		}

		reference := field(row, colReference)
		name := field(row, colName)
		lat, latErr := strconv.ParseFloat(field(row, colLatitude), 64)
		lon, lonErr := strconv.ParseFloat(field(row, colLongitude), 64)
		if reference == "" || name == "" || latErr != nil || lonErr != nil ||
			lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			skipped++
			continue
		}

		park := &stores.Park{
			Reference: reference,
			Name:      name,
			Latitude:  lat,
			Longitude: lon,
			IsActive:  field(row, colActive) != "0",
			SyncedAt:  syncedAt,
		}
		if v := field(row, colGrid); v != "" {
			park.GridSquare = &v
		}
		if v := field(row, colLocation); v != "" {
			park.State = &v
		}
		if v := field(row, colEntity); v != "" {
			park.Region = &v
		}
		if v := field(row, colParkType); v != "" {
			park.ParkType = &v
		}
		parks = append(parks, park)
	}

	if len(parks) == 0 {
		return nil, skipped, fmt.Errorf("csv export contained no usable park rows")
	}
	return parks, skipped, nil
}
