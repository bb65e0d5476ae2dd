package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/isdelr/chatter-be/internal/apperrors"
	"github.com/rs/zerolog/log"
)

type contextKey string

// UserIDKey is the context key for the authenticated user id.
const UserIDKey = contextKey("userID")

// Middleware rejects requests without a valid session and passes the user id down via context.
func (m *SessionManager) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := m.Verify(TokenFromRequest(r))
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected unauthenticated request")
				_, msg := apperrors.HTTPStatus(err)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"message": msg})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns a copy of ctx carrying the user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}
