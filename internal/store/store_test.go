package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour every Store must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	first, err := s.Record(Entry{Session: "a", Expression: "1+1", Result: 2})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	_, err = s.Record(Entry{Session: "b", Expression: "5/0", Error: "5 / 0: division by zero"})
	require.NoError(t, err)
	_, err = s.Record(Entry{Session: "a", Expression: "2^10", Result: 1024})
	require.NoError(t, err)

	all, err := s.History("", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2^10", all[0].Expression)
	assert.Equal(t, "5/0", all[1].Expression)
	assert.False(t, all[1].OK())
	assert.Equal(t, "1+1", all[2].Expression)
	assert.Equal(t, first.ID, all[2].ID)
	assert.Equal(t, int64(2), all[2].Result)

	limited, err := s.History("", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "2^10", limited[0].Expression)

	sessionA, err := s.History("a", 0)
	require.NoError(t, err)
	require.Len(t, sessionA, 2)
	for _, e := range sessionA {
		assert.Equal(t, "a", e.Session)
	}

	require.NoError(t, s.Clear("a"))
	all, err = s.History("", 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b", all[0].Session)

	require.NoError(t, s.Clear(""))
	all, err = s.History("", 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory()
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "calc.db"))
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLitePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calc.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	when := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	_, err = s.Record(Entry{ID: "fixed", Session: "s", Expression: "6*7", Result: 42, CreatedAt: when})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Close and reopen to verify persistence
	s2, err := NewSQLite(path)
	require.NoError(t, err)
	defer s2.Close()

	entries, err := s2.History("s", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fixed", entries[0].ID)
	assert.Equal(t, int64(42), entries[0].Result)
	assert.True(t, when.Equal(entries[0].CreatedAt))
}

func TestSQLiteMigrationV1toV2(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calc.db")

	// Create a v1 database manually
	db, err := sql.Open(driverName, path)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE history (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			expression TEXT NOT NULL,
			result INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);
		CREATE TABLE metadata (key TEXT PRIMARY KEY, value TEXT NOT NULL);
		INSERT INTO metadata (key, value) VALUES ('schema_version', '1');
		INSERT INTO history (id, expression, result, created_at)
			VALUES ('old', '1+2', 3, '2025-06-01T00:00:00Z');
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Open with NewSQLite: should migrate to v2
	s, err := NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	version, err := s.GetMetadata("schema_version")
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)

	// Verify existing data preserved
	entries, err := s.History("", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "old", entries[0].ID)
	assert.Equal(t, "", entries[0].Session)
	assert.Equal(t, int64(3), entries[0].Result)

	// New records carry a session
	_, err = s.Record(Entry{Session: "new", Expression: "2*2", Result: 4})
	require.NoError(t, err)
	entries, err = s.History("new", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestSQLiteRejectsFutureSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calc.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.SetMetadata("schema_version", "99"))
	require.NoError(t, s.Close())

	_, err = NewSQLite(path)
	assert.ErrorContains(t, err, "unsupported schema version: 99")
}

func TestMemoryMetadata(t *testing.T) {
	var s MetadataStore = NewMemory()
	require.NoError(t, s.SetMetadata("k", "v"))
	got, err := s.GetMetadata("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewSessionID(t *testing.T) {
	assert.NotEqual(t, NewSessionID(), NewSessionID())
}
