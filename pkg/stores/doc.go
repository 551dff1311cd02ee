// Package stores provides the persistence layer for potaplan.
// It includes a SQLite-backed store with WAL mode, embedded schema
// migrations, and repositories for parks, activation plans, the weather
// forecast cache, and the singleton user preference record.
package stores
