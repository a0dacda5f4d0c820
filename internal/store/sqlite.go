package store

import (
	"database/sql"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Current schema version
const SchemaVersion = "2"

// SQLite is a SQLite-backed store.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLite creates a new SQLite store at the given path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}

	// Create tables if not exists
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS history (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			expression TEXT NOT NULL,
			result INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating tables")
	}

	s := &SQLite{db: db}

	// Check/set schema version (use unlocked versions since we're in init)
	version, err := s.getMetadataUnlocked("schema_version")
	if err != nil {
		db.Close()
		return nil, err
	}

	if version == "" || version == "1" {
		// New DB or migrate from v1 to v2: add session column
		if err := s.migrateToV2(); err != nil {
			db.Close()
			return nil, err
		}
		if err := s.setMetadataUnlocked("schema_version", SchemaVersion); err != nil {
			db.Close()
			return nil, err
		}
	} else if version != SchemaVersion {
		db.Close()
		return nil, errors.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}

	return s, nil
}

// migrateToV2 adds the session column and its index.
func (s *SQLite) migrateToV2() error {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('history') WHERE name = 'session'`).Scan(&n)
	if err != nil {
		return errors.Wrap(err, "inspecting history table")
	}
	if n == 0 {
		if _, err := s.db.Exec(`ALTER TABLE history ADD COLUMN session TEXT NOT NULL DEFAULT ''`); err != nil {
			return errors.Wrap(err, "adding session column")
		}
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS history_session ON history (session, seq)`)
	return errors.Wrap(err, "creating session index")
}

// Record appends an entry.
func (s *SQLite) Record(e Entry) (Entry, error) {
	e = prepare(e)
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO history (id, session, expression, result, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.Session, e.Expression, e.Result, e.Error, e.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return e, errors.Wrap(err, "recording history entry")
	}
	return e, nil
}

// History returns entries newest first.
func (s *SQLite) History(session string, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.Query(`
		SELECT id, session, expression, result, error, created_at FROM history
		WHERE ? = '' OR session = ?
		ORDER BY seq DESC
		LIMIT ?
	`, session, session, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying history")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.ID, &e.Session, &e.Expression, &e.Result, &e.Error, &ts); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, errors.Wrapf(err, "entry %s", e.ID)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear removes entries for a session, or all entries.
func (s *SQLite) Clear(session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM history WHERE ? = '' OR session = ?", session, session)
	return errors.Wrap(err, "clearing history")
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// GetMetadata retrieves a metadata value by key.
func (s *SQLite) GetMetadata(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getMetadataUnlocked(key)
}

// getMetadataUnlocked retrieves metadata without locking (caller must hold lock).
func (s *SQLite) getMetadataUnlocked(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "reading metadata %q", key)
	}
	return value, nil
}

// SetMetadata stores a metadata value by key.
func (s *SQLite) SetMetadata(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setMetadataUnlocked(key, value)
}

// setMetadataUnlocked stores metadata without locking (caller must hold lock).
func (s *SQLite) setMetadataUnlocked(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return errors.Wrapf(err, "writing metadata %q", key)
}
