// Package sqlite stores browser profiles in a single SQLite file.
//
// Every profile is a set of rows in one kv table keyed by (profile_id, key),
// which is the server-side equivalent of that browser's local storage. The
// server and the promptcards CLI open the same file; WAL mode and a busy
// timeout let them run side by side.
//
// modernc.org/sqlite is pure Go, so the binary builds without cgo.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// DB owns the connection pool and hands out per-profile storage views.
type DB struct {
	conn *sql.DB
}

// pragmas run once per connection, in order.
var pragmas = []struct {
	stmt, what string
}{
	{"PRAGMA journal_mode=WAL", "setting WAL mode"},
	// the CLI waits for the server's write instead of failing with SQLITE_BUSY
	{"PRAGMA busy_timeout=5000", "setting busy timeout"},
}

// migrations are idempotent and run on every start.
var migrations = []string{
	// updated_at is unix milliseconds
	`CREATE TABLE IF NOT EXISTS kv (
		profile_id TEXT NOT NULL,
		key        TEXT NOT NULL,
		value      TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (profile_id, key)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_kv_updated_at ON kv(updated_at)`,
}

// New opens dbPath (a file path, or ":memory:" in tests) and brings the
// schema up to date. The caller must Close the result.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each ":memory:" connection would be a separate empty database, and
	// SQLite has a single writer regardless.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging %s: %w", dbPath, err)
	}

	for _, p := range pragmas {
		if _, err := conn.Exec(p.stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p.what, err)
		}
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	for i, stmt := range migrations {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
