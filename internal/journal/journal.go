package journal

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on events.kind for trace filters
const currentSchemaVersion = 1

// ErrClosed is returned by operations on a closed journal.
var ErrClosed = errors.New("journal: closed")

// Journal is a SQLite-backed append-only event log.
// Uses WAL mode for concurrent reads during writes.
type Journal struct {
	db     *sql.DB
	closed atomic.Bool
}

// Open creates or opens a journal at path.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the database. Safe to call more than once.
func (j *Journal) Close() error {
	if j == nil || j.db == nil || !j.closed.CompareAndSwap(false, true) {
		return nil
	}
	return j.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (j *Journal) DB() *sql.DB {
	return j.db
}

func (j *Journal) check() error {
	if j == nil || j.db == nil || j.closed.Load() {
		return ErrClosed
	}
	return nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind)`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// schemaVersion reports PRAGMA user_version. Used for testing.
func (j *Journal) schemaVersion() (int, error) {
	var v int
	err := j.db.QueryRow("PRAGMA user_version").Scan(&v)
	return v, err
}

// pragma reads a pragma value. Used for testing.
func (j *Journal) pragma(name string) (string, error) {
	var value string
	err := j.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value)
	return value, err
}

