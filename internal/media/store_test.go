package media

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/isdelr/chatter-be/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func dataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func newTestStore(t *testing.T, maxBytes int64) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), maxBytes)
	require.NoError(t, err)
	return s
}

func TestSaveAvatarOverwrites(t *testing.T) {
	s := newTestStore(t, 1024)

	url, err := s.SaveAvatar("user-1", dataURI("image/png", pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/avatars/user-1.png", url)

	second := append([]byte{}, pngHeader...)
	second = append(second, 'x')
	url2, err := s.SaveAvatar("user-1", dataURI("image/png", second))
	require.NoError(t, err)
	assert.Equal(t, url, url2)

	data, err := os.ReadFile(filepath.Join(s.Root(), "avatars", "user-1.png"))
	require.NoError(t, err)
	assert.Equal(t, second, data)
}

func TestSaveMessageImageUniqueNames(t *testing.T) {
	s := newTestStore(t, 1024)

	a, err := s.SaveMessageImage(dataURI("image/png", pngHeader))
	require.NoError(t, err)
	b, err := s.SaveMessageImage(dataURI("image/png", pngHeader))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "/uploads/messages/"))

	s.Delete(a)
	_, err = os.Stat(filepath.Join(s.Root(), "messages", filepath.Base(a)))
	assert.True(t, os.IsNotExist(err))
}

func TestDecodeRejects(t *testing.T) {
	s := newTestStore(t, 32)

	tests := []struct {
		name  string
		input string
	}{
		{"NotDataURI", "https://example.com/cat.png"},
		{"NotImage", dataURI("text/plain", []byte("hello"))},
		{"BadBase64", "data:image/png;base64,!!!"},
		{"TooLarge", dataURI("image/png", append(pngHeader, make([]byte, 64)...))},
		{"NotActuallyAnImage", dataURI("image/png", []byte("plain text pretending"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SaveMessageImage(tt.input)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}
