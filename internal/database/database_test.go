package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunsMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "calendar.db")

	db, err := New(path)
	require.NoError(t, err)
	require.NoError(t, db.Ping(context.Background()))
	require.NoError(t, db.Close())

	// Reopening must not re-run the initial schema.
	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.DB().QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&count))
	assert.Equal(t, len(getMigrations()), count)

	for _, table := range []string{"users", "calendars", "calendar_members", "events", "event_attendees", "groups"} {
		var n int
		err := db.DB().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = ?`, table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, table)
	}
}

func TestForeignKeysAreEnforced(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "calendar.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.DB().Exec(`
		INSERT INTO groups (id, name, calendar_id, created_at)
		VALUES ('g1', 'team', 'missing-calendar', CURRENT_TIMESTAMP)
	`)
	assert.Error(t, err)
}
