package stores

import (
	"context"
	"testing"
	"time"
)

func testEntry(forecastDate string, fetchedAt, expiresAt time.Time) *WeatherCacheEntry {
	return &WeatherCacheEntry{
		Latitude:     44.428,
		Longitude:    -110.5885,
		ForecastDate: forecastDate,
		Data:         `{"temp_max_c":21.5,"precip_mm":0.2}`,
		FetchedAt:    fetchedAt,
		ExpiresAt:    expiresAt,
	}
}

func TestWeatherPutAndGet(t *testing.T) {
	mgr := setupTestManager(t)
	repo := NewWeatherRepo(mgr)
	ctx := context.Background()
	now := time.Now()

	entry := testEntry("2026-09-12", now, now.Add(6*time.Hour))
	if err := repo.Put(ctx, entry); err != nil {
		t.Fatalf("failed to put entry: %v", err)
	}

	cached, err := repo.Get(ctx, entry.Latitude, entry.Longitude, entry.ForecastDate)
	if err != nil {
		t.Fatalf("failed to get entry: %v", err)
	}
	if cached == nil {
		t.Fatal("expected a cache hit")
	}
	if cached.IsStale {
		t.Error("entry expiring in the future must not be stale")
	}
	if cached.Entry.Data != entry.Data {
		t.Errorf("expected data round-trip, got %s", cached.Entry.Data)
	}
}

func TestWeatherGetMiss(t *testing.T) {
	mgr := setupTestManager(t)
	repo := NewWeatherRepo(mgr)

	cached, err := repo.Get(context.Background(), 1.0, 2.0, "2026-01-01")
	if err != nil {
		t.Fatalf("miss must not be an error: %v", err)
	}
	if cached != nil {
		t.Error("expected nil for a cache miss")
	}
}

func TestWeatherStaleEntryStillReturned(t *testing.T) {
	mgr := setupTestManager(t)
	repo := NewWeatherRepo(mgr)
	ctx := context.Background()
	now := time.Now()

	// Expired an hour ago: a hit with the staleness flag, not a miss.
	entry := testEntry("2026-09-12", now.Add(-2*time.Hour), now.Add(-1*time.Hour))
	if err := repo.Put(ctx, entry); err != nil {
		t.Fatalf("failed to put expired entry: %v", err)
	}

	cached, err := repo.Get(ctx, entry.Latitude, entry.Longitude, entry.ForecastDate)
	if err != nil {
		t.Fatalf("failed to get entry: %v", err)
	}
	if cached == nil {
		t.Fatal("stale entry must still be returned")
	}
	if !cached.IsStale {
		t.Error("expected staleness flag for an expired entry")
	}
}

func TestWeatherPutReplacesTriple(t *testing.T) {
	mgr := setupTestManager(t)
	repo := NewWeatherRepo(mgr)
	ctx := context.Background()
	now := time.Now()

	first := testEntry("2026-09-12", now.Add(-time.Hour), now.Add(time.Hour))
	if err := repo.Put(ctx, first); err != nil {
		t.Fatalf("failed to put first entry: %v", err)
	}

	second := testEntry("2026-09-12", now, now.Add(6*time.Hour))
	second.Data = `{"temp_max_c":18.0,"precip_mm":4.1}`
	if err := repo.Put(ctx, second); err != nil {
		t.Fatalf("failed to put second entry: %v", err)
	}

	cached, err := repo.Get(ctx, first.Latitude, first.Longitude, "2026-09-12")
	if err != nil {
		t.Fatalf("failed to get entry: %v", err)
	}
	if cached.Entry.Data != second.Data {
		t.Errorf("expected last write to win, got %s", cached.Entry.Data)
	}

	db, _ := mgr.Acquire(ctx)
	var count int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM weather_cache WHERE latitude = ? AND longitude = ? AND forecast_date = ?",
		first.Latitude, first.Longitude, "2026-09-12").Scan(&count); err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly 1 row for the triple, got %d", count)
	}
}

func TestWeatherPutRejectsInvertedExpiry(t *testing.T) {
	mgr := setupTestManager(t)
	repo := NewWeatherRepo(mgr)
	now := time.Now()

	entry := testEntry("2026-09-12", now, now.Add(-time.Minute))
	err := repo.Put(context.Background(), entry)
	if !IsConstraint(err) {
		t.Errorf("expected constraint error for expires_at <= fetched_at, got %v", err)
	}
}

func TestWeatherPurgeExpired(t *testing.T) {
	mgr := setupTestManager(t)
	repo := NewWeatherRepo(mgr)
	ctx := context.Background()
	now := time.Now()

	expired := testEntry("2026-09-10", now.Add(-48*time.Hour), now.Add(-24*time.Hour))
	live := testEntry("2026-09-12", now, now.Add(6*time.Hour))
	for _, e := range []*WeatherCacheEntry{expired, live} {
		if err := repo.Put(ctx, e); err != nil {
			t.Fatalf("failed to put entry: %v", err)
		}
	}

	purged, err := repo.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if purged != 1 {
		t.Errorf("expected 1 purged row, got %d", purged)
	}

	if cached, err := repo.Get(ctx, expired.Latitude, expired.Longitude, expired.ForecastDate); err != nil || cached != nil {
		t.Errorf("expected purged entry gone, got %+v err %v", cached, err)
	}
	if cached, err := repo.Get(ctx, live.Latitude, live.Longitude, live.ForecastDate); err != nil || cached == nil {
		t.Errorf("expected live entry retained, err %v", err)
	}
}
