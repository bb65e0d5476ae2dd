package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db), "second run should be a no-op")

	for _, table := range []string{"users", "messages"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(db))

	insert := "INSERT INTO users (id, full_name, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, 0, 0)"
	_, err = db.Exec(insert, "u1", "Ada", "ada@example.com", "hash")
	require.NoError(t, err)

	_, err = db.Exec(insert, "u2", "Ada Again", "ada@example.com", "hash")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	_, err = db.Exec("INSERT INTO nope VALUES (1)")
	require.Error(t, err)
	assert.False(t, IsUniqueViolation(err))
}

func TestNewAppendsPragmasToExistingQuery(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "chat.db") + "?_txlock=immediate")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var foreignKeys int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
	assert.Equal(t, 1, foreignKeys)

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}
