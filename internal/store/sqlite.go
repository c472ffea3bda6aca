package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver

	dbutil "github.com/mvailland/cadence/internal/db"
)

const (
	appName    = "cadence"
	dbFileName = "cadence.db"

	currentSchemaVersion = 1
)

// Manager is a sqlite-backed Store.
type Manager struct {
	db *sql.DB
}

// Verify Manager implements Store at compile time.
var _ Store = (*Manager)(nil)

// Open opens the store at the default XDG data location, creating the
// database and schema on first use.
func Open() (*Manager, error) {
	path, err := xdg.DataFile(filepath.Join(appName, dbFileName))
	if err != nil {
		return nil, err
	}
	return OpenPath(path)
}

// OpenPath opens the store at an explicit path. Used by tests and by
// deployments that override the data directory.
func OpenPath(path string) (*Manager, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Manager{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	return err
}

// Get returns the value stored under key, or ErrNotFound.
func (m *Manager) Get(ctx context.Context, key string) (string, error) {
	var value string
	row := m.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key)
	err := row.Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (m *Manager) Set(ctx context.Context, key, value string) error {
	return dbutil.WithTx(m.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO kv (key, value)
			VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value)
		return err
	})
}

// DB exposes the underlying handle for components that need their own
// tables in the same database.
func (m *Manager) DB() *sql.DB {
	return m.db
}

func (m *Manager) Close() error {
	return m.db.Close()
}
