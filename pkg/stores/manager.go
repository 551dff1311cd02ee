package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Manager owns the single process handle to the embedded database.
// It is injected into repositories at construction; first Acquire lazily
// creates the parent directory, opens the handle, and runs migrations.
// The mutex makes first-call initialization safe in a concurrent host.
type Manager struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

// NewManager creates a manager for the database file at path.
// The path may be home-relative ("~/..."); ":memory:" is accepted for
// ephemeral stores.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		return nil, newStoreError(ErrCodeStoreInit, "manager", fmt.Errorf("database path is required"))
	}
	return &Manager{path: path}, nil
}

// Acquire returns the shared handle, performing first-time setup on the
// first call only. A setup failure leaves the manager uninitialized so
// the next call retries instead of returning a poisoned handle.
func (m *Manager) Acquire(ctx context.Context) (*sql.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		return m.db, nil
	}

	path, err := ExpandHome(m.path)
	if err != nil {
		return nil, newStoreError(ErrCodeStoreInit, "resolve path", err)
	}

	if !isMemoryPath(path) {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, newStoreError(ErrCodeStoreInit, "create data directory", err)
		}
	}

	db, err := openDatabase(ctx, path)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	m.db = db
	return m.db, nil
}

// Close closes the handle and clears the cached reference so a
// subsequent Acquire reinitializes from scratch. Closing an already
// closed or never-opened manager is a no-op.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}

// HealthCheck verifies the database connection is usable.
func (m *Manager) HealthCheck(ctx context.Context) error {
	db, err := m.Acquire(ctx)
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// openDatabase opens the SQLite file with durability-relevant settings
// and verifies the connection.
func openDatabase(ctx context.Context, path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, newStoreError(ErrCodeStoreInit, "open database", err)
	}

	// Single logical writer: one connection keeps the foreign-key pragma
	// in effect for every statement and keeps :memory: stores coherent.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, newStoreError(ErrCodeStoreInit, "ping database", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, newStoreError(ErrCodeStoreInit, "enable foreign keys", err)
	}

	return db, nil
}

// runMigrations applies pending schema migrations from the embedded
// sources. Applied versions are tracked in the schema_migrations table;
// re-running against a current store is a no-op, and a failing migration
// rolls back without disturbing earlier, committed ones.
func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return newStoreError(ErrCodeMigration, "load migration sources", err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return newStoreError(ErrCodeMigration, "create migration driver", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return newStoreError(ErrCodeMigration, "create migrator", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return newStoreError(ErrCodeMigration, "apply migrations", err)
	}

	return nil
}

// ExpandHome resolves a leading "~" against the current user's home
// directory.
func ExpandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

func isMemoryPath(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file::memory:")
}
