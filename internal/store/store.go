package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// ErrNotFound is returned when an owner-scoped row does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS users (
		id          TEXT PRIMARY KEY,
		email       TEXT NOT NULL UNIQUE,
		created_at  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS login_codes (
		code        TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at  TEXT NOT NULL,
		used_at     TEXT
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		token       TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at  TEXT NOT NULL,
		revoked_at  TEXT
	);

	CREATE TABLE IF NOT EXISTS projects (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		color       TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_projects_user ON projects(user_id, created_at);

	CREATE TABLE IF NOT EXISTS tasks (
		id          TEXT PRIMARY KEY,
		project_id  TEXT REFERENCES projects(id) ON DELETE SET NULL,
		user_id     TEXT NOT NULL,
		title       TEXT NOT NULL,
		content     TEXT,
		completed   INTEGER NOT NULL DEFAULT 0,
		priority    TEXT NOT NULL DEFAULT '',
		due_date    TEXT,
		labels      TEXT NOT NULL DEFAULT '[]',
		sort_order  INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id, sort_order);

	CREATE TABLE IF NOT EXISTS deep_work_sessions (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL,
		task_id         TEXT REFERENCES tasks(id) ON DELETE SET NULL,
		duration        INTEGER NOT NULL DEFAULT 1500,
		break_duration  INTEGER NOT NULL DEFAULT 300,
		started_at      TEXT NOT NULL,
		ended_at        TEXT,
		completed       INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_user ON deep_work_sessions(user_id, started_at);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('focus_minutes',    '25'),
		('break_minutes',    '5'),
		('custom_durations', 'false'),
		('theme_mode',       'picture'),
		('theme_background', '0');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func timePtr(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// expectRow turns a zero-row update or delete into ErrNotFound.
func expectRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
