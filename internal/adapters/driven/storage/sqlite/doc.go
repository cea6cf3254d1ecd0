// Package sqlite provides the SQLite-backed document store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Every version of every document is kept in a single
// documents table keyed by (id, version), so the search index can always be
// rebuilt from the latest rows.
//
// # Schema
//
// The schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql
// files and applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.kiitbot/data/kiitbot.db
//
// # Thread Safety
//
// All operations are thread-safe. The store relies on the locking SQLite
// provides in WAL mode.
package sqlite
