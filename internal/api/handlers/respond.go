package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/isdelr/chatter-be/internal/apperrors"
	"github.com/isdelr/chatter-be/internal/auth"
	"github.com/rs/zerolog/log"
)

// MaxBodyBytes caps request bodies; images arrive inline as base64.
const MaxBodyBytes = 10 << 20

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

func respondMessage(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"message": msg})
}

// respondError writes the failure envelope. Server errors are logged with their
// cause and reported to the client generically.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
	}
	respondMessage(w, status, msg)
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.Validation("Request body too large")
		}
		if errors.Is(err, io.EOF) {
			return apperrors.Validation("Request body is required")
		}
		return apperrors.Validation("Invalid request body")
	}
	return nil
}

// currentUserID returns the id placed in the context by the session middleware.
func currentUserID(r *http.Request) (string, error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return "", apperrors.Auth("Unauthorized - No Token Provided")
	}
	return userID, nil
}
