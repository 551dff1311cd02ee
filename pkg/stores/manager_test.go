package stores

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// setupTestManager creates an in-memory store for testing.
func setupTestManager(t *testing.T) *Manager {
	t.Helper()

	mgr, err := NewManager(":memory:")
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	if _, err := mgr.Acquire(context.Background()); err != nil {
		t.Fatalf("failed to acquire store: %v", err)
	}

	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func TestManagerLifecycle(t *testing.T) {
	mgr := setupTestManager(t)
	ctx := context.Background()

	if err := mgr.HealthCheck(ctx); err != nil {
		t.Fatalf("health check failed: %v", err)
	}

	if err := mgr.Close(); err != nil {
		t.Fatalf("failed to close manager: %v", err)
	}

	// Closing again is a no-op, never an error.
	if err := mgr.Close(); err != nil {
		t.Fatalf("second close returned error: %v", err)
	}
}

func TestManagerEmptyPath(t *testing.T) {
	_, err := NewManager("")
	if err == nil {
		t.Fatal("expected error for empty path")
	}
	if !IsStoreInit(err) {
		t.Errorf("expected store init error, got %v", err)
	}
}

func TestManagerAcquireIdempotent(t *testing.T) {
	mgr := setupTestManager(t)
	ctx := context.Background()

	first, err := mgr.Acquire(ctx)
	if err != nil {
		t.Fatalf("failed to acquire: %v", err)
	}
	second, err := mgr.Acquire(ctx)
	if err != nil {
		t.Fatalf("failed to acquire again: %v", err)
	}
	if first != second {
		t.Error("expected the same handle from repeated acquires")
	}
}

func TestManagerReacquireAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "potaplan.db")
	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	ctx := context.Background()

	if _, err := mgr.Acquire(ctx); err != nil {
		t.Fatalf("failed to acquire: %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}

	// A closed manager reinitializes from scratch on the next acquire.
	db, err := mgr.Acquire(ctx)
	if err != nil {
		t.Fatalf("failed to reacquire: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("reacquired handle unusable: %v", err)
	}
	mgr.Close()
}

func TestManagerCreatesDataDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	mgr, err := NewManager(filepath.Join(dir, "potaplan.db"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	defer mgr.Close()

	if _, err := mgr.Acquire(context.Background()); err != nil {
		t.Fatalf("failed to acquire: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("data directory was not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected data path to be a directory")
	}
}

func TestManagerInitFailureRetries(t *testing.T) {
	// A regular file where the parent directory should be makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatalf("failed to create blocker file: %v", err)
	}

	mgr, err := NewManager(filepath.Join(blocker, "sub", "potaplan.db"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	ctx := context.Background()

	if _, err := mgr.Acquire(ctx); err == nil {
		t.Fatal("expected acquire to fail")
	} else if !IsStoreInit(err) {
		t.Errorf("expected store init error, got %v", err)
	}

	// The singleton stays uninitialized, so a later acquire retries setup.
	if _, err := mgr.Acquire(ctx); err == nil {
		t.Fatal("expected retried acquire to fail the same way")
	}
}

func TestMigrationsCreateSchema(t *testing.T) {
	mgr := setupTestManager(t)
	ctx := context.Background()

	db, err := mgr.Acquire(ctx)
	if err != nil {
		t.Fatalf("failed to acquire: %v", err)
	}

	tables := []string{"parks", "plans", "weather_cache", "user_config", "schema_migrations"}
	for _, table := range tables {
		var count int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			t.Errorf("table %s does not exist or is not accessible: %v", table, err)
		}
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "potaplan.db")
	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	ctx := context.Background()

	if _, err := mgr.Acquire(ctx); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	// Reopening the same file runs the migrator against an
	// already-current store; it must be a no-op.
	db, err := mgr.Acquire(ctx)
	if err != nil {
		t.Fatalf("second acquire failed: %v", err)
	}
	defer mgr.Close()

	var versions int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&versions); err != nil {
		t.Fatalf("failed to count migration rows: %v", err)
	}
	if versions != 1 {
		t.Errorf("expected 1 migration metadata row, got %d", versions)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	expanded, err := ExpandHome("~/potaplan/potaplan.db")
	if err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	want := filepath.Join(home, "potaplan", "potaplan.db")
	if expanded != want {
		t.Errorf("expected %s, got %s", want, expanded)
	}

	plain, err := ExpandHome("/var/lib/potaplan.db")
	if err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	if plain != "/var/lib/potaplan.db" {
		t.Errorf("absolute path must pass through, got %s", plain)
	}
}
