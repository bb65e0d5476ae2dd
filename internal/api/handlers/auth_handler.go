package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/chatter-be/internal/apperrors"
	"github.com/isdelr/chatter-be/internal/auth"
	"github.com/isdelr/chatter-be/internal/models"
	"github.com/isdelr/chatter-be/internal/services"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles signup, login and profile requests.
type AuthHandler struct {
	service  services.UserServiceProvider
	sessions *auth.SessionManager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.UserServiceProvider, sessions *auth.SessionManager) *AuthHandler {
	return &AuthHandler{service: service, sessions: sessions}
}

// SignupPayload defines the structure for signup requests.
type SignupPayload struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfilePayload defines the structure for profile updates. Absent fields stay unchanged.
type UpdateProfilePayload struct {
	FullName   *string `json:"fullName"`
	ProfilePic *string `json:"profilePic"`
}

// Signup registers a new user and starts a session.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload SignupPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.service.Signup(r.Context(), payload.FullName, payload.Email, payload.Password)
	if err != nil {
		if !errors.Is(err, apperrors.ErrInternal) {
			log.Info().Err(err).Str("email", payload.Email).Msg("Signup rejected")
		}
		respondError(w, r, err)
		return
	}

	if err := h.sessions.IssueCookie(w, user.ID); err != nil {
		respondError(w, r, apperrors.Internal(err))
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User signed up")
	respondJSON(w, http.StatusCreated, user)
}

// Login authenticates a user and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.service.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrAuth) {
			log.Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
		}
		respondError(w, r, err)
		return
	}

	if err := h.sessions.IssueCookie(w, user.ID); err != nil {
		respondError(w, r, apperrors.Internal(err))
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	respondMessage(w, http.StatusOK, "Logged out successfully")
}

// Check returns the user behind the current session.
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpdateProfile changes the current user's name and/or profile picture.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var payload UpdateProfilePayload
	if err := decodeJSON(w, r, &payload); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, services.ProfileUpdate{
		FullName:   payload.FullName,
		ProfilePic: payload.ProfilePic,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// currentUser resolves the session's user. A valid token for a user that no
// longer exists is treated as unauthenticated.
func (h *AuthHandler) currentUser(r *http.Request) (models.User, error) {
	userID, err := currentUserID(r)
	if err != nil {
		return models.User{}, err
	}
	user, err := h.service.GetUserByID(r.Context(), userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return models.User{}, apperrors.Auth("Unauthorized - User not found")
	}
	return user, err
}
