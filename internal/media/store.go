// Package media stores user-uploaded images on local disk.
package media

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/isdelr/chatter-be/internal/apperrors"
)

// URLPrefix is the public path under which stored images are served.
const URLPrefix = "/uploads"

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store writes images below a root directory.
type Store struct {
	root     string
	maxBytes int64
}

// NewStore creates the upload directories and returns a Store.
func NewStore(root string, maxBytes int64) (*Store, error) {
	for _, dir := range []string{"avatars", "messages"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
	}
	return &Store{root: root, maxBytes: maxBytes}, nil
}

// Root returns the directory served under URLPrefix.
func (s *Store) Root() string {
	return s.root
}

// SaveAvatar stores a user's profile picture, replacing any previous one.
func (s *Store) SaveAvatar(userID, dataURI string) (string, error) {
	data, ext, err := s.decode(dataURI)
	if err != nil {
		return "", err
	}

	// Drop older avatars that used a different extension.
	matches, _ := filepath.Glob(filepath.Join(s.root, "avatars", userID+".*"))
	for _, m := range matches {
		os.Remove(m)
	}
	return s.write("avatars", userID+ext, data)
}

// SaveMessageImage stores an image attached to a chat message.
func (s *Store) SaveMessageImage(dataURI string) (string, error) {
	data, ext, err := s.decode(dataURI)
	if err != nil {
		return "", err
	}
	return s.write("messages", uuid.New().String()+ext, data)
}

// Delete removes a stored image by its public URL. Unknown URLs are ignored.
func (s *Store) Delete(url string) {
	rel, ok := strings.CutPrefix(url, URLPrefix+"/")
	if !ok || strings.Contains(rel, "..") {
		return
	}
	os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
}

func (s *Store) write(dir, name string, data []byte) (string, error) {
	if err := os.WriteFile(filepath.Join(s.root, dir, name), data, 0644); err != nil {
		return "", apperrors.Internal(fmt.Errorf("failed to write image: %w", err))
	}
	return path.Join(URLPrefix, dir, name), nil
}

// decode parses a "data:image/...;base64," URI and enforces the size ceiling.
func (s *Store) decode(dataURI string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(dataURI, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, "", apperrors.Validation("Image must be a base64 data URI")
	}

	if int64(base64.StdEncoding.DecodedLen(len(payload))) > s.maxBytes+2 {
		return nil, "", apperrors.Validation(s.tooLargeMessage())
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", apperrors.Validation("Image is not valid base64")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, "", apperrors.Validation(s.tooLargeMessage())
	}

	ext, ok := extensions[http.DetectContentType(data)]
	if !ok {
		return nil, "", apperrors.Validation("Unsupported image type")
	}
	return data, ext, nil
}

func (s *Store) tooLargeMessage() string {
	return fmt.Sprintf("Image exceeds the %d KB limit", s.maxBytes/1024)
}
