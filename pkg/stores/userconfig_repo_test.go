package stores

import (
	"context"
	"testing"
)

func TestUserConfigEmptyBeforeFirstWrite(t *testing.T) {
	mgr := setupTestManager(t)
	repo := NewUserConfigRepo(mgr)

	cfg, err := repo.Get(context.Background())
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if cfg != nil {
		t.Error("expected nil before first write")
	}
}

func TestUserConfigSaveAndReplace(t *testing.T) {
	mgr := setupTestManager(t)
	repo := NewUserConfigRepo(mgr)
	ctx := context.Background()

	lat := 41.88
	lon := -87.63
	if err := repo.Save(ctx, &UserConfig{
		Callsign:      "W9ABC",
		GridSquare:    strPtr("EN61"),
		HomeLatitude:  &lat,
		HomeLongitude: &lon,
		Timezone:      "America/Chicago",
		Units:         "imperial",
	}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	cfg, err := repo.Get(ctx)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if cfg == nil || cfg.Callsign != "W9ABC" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Units != "imperial" {
		t.Errorf("expected imperial units, got %s", cfg.Units)
	}

	// Second save replaces in place: still exactly one row.
	if err := repo.Save(ctx, &UserConfig{Callsign: "W9XYZ"}); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	cfg, err = repo.Get(ctx)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if cfg.Callsign != "W9XYZ" {
		t.Errorf("expected replaced callsign, got %s", cfg.Callsign)
	}
	if cfg.Timezone != "UTC" || cfg.Units != "metric" {
		t.Errorf("expected defaults on replace, got %s/%s", cfg.Timezone, cfg.Units)
	}

	db, _ := mgr.Acquire(ctx)
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_config").Scan(&count); err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	if count != 1 {
		t.Errorf("expected a single preference row, got %d", count)
	}
}
