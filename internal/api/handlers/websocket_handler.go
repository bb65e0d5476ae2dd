package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/isdelr/chatter-be/internal/apperrors"
	"github.com/isdelr/chatter-be/internal/auth"
	"github.com/isdelr/chatter-be/internal/services"
	ws "github.com/isdelr/chatter-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler authenticates and upgrades realtime connections.
type WebSocketHandler struct {
	hub      *ws.Hub
	sessions *auth.SessionManager
	users    services.UserServiceProvider
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. Browser handshakes are
// accepted from allowedOrigins or from the serving host itself.
func NewWebSocketHandler(hub *ws.Hub, sessions *auth.SessionManager, users services.UserServiceProvider, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.ToLower(strings.TrimRight(origin, "/"))] = true
	}

	return &WebSocketHandler{
		hub:      hub,
		sessions: sessions,
		users:    users,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					// Non-browser clients do not send an Origin.
					return true
				}
				if allowed[strings.ToLower(origin)] {
					return true
				}
				u, err := url.Parse(origin)
				return err == nil && strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

// Serve authenticates the handshake and hands the connection to the hub.
// An unauthenticated request is rejected before the upgrade and never registers.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	userID, err := h.sessions.Verify(auth.TokenFromRequest(r))
	if err != nil {
		respondError(w, r, err)
		return
	}

	// Clients may also announce their id; it has to match the session.
	if claimed := r.URL.Query().Get("userId"); claimed != "" && claimed != userID {
		log.Warn().Str("user_id", userID).Str("claimed_id", claimed).Msg("Websocket identity mismatch")
		respondError(w, r, apperrors.Auth("Unauthorized - Identity mismatch"))
		return
	}

	if _, err := h.users.GetUserByID(r.Context(), userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			err = apperrors.Auth("Unauthorized - User not found")
		}
		respondError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, userID)
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
