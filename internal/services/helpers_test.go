package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"path/filepath"
	"testing"

	"github.com/isdelr/chatter-be/internal/database"
	"github.com/isdelr/chatter-be/internal/media"
	"github.com/isdelr/chatter-be/internal/models"
	"github.com/stretchr/testify/require"
)

var pngDataURI = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestServices(t *testing.T) (*UserService, *MessageService) {
	t.Helper()
	db := newTestDB(t)
	store, err := media.NewStore(t.TempDir(), 1024)
	require.NoError(t, err)
	users := NewUserService(db, store)
	return users, NewMessageService(db, users, store)
}

func mustSignup(t *testing.T, users *UserService, name, email string) models.User {
	t.Helper()
	u, err := users.Signup(context.Background(), name, email, "password1")
	require.NoError(t, err)
	return u
}
