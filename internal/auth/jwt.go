package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/chatter-be/internal/apperrors"
)

// CookieName is the session cookie carrying the signed token.
const CookieName = "jwt"

// Claims defines the JWT claims structure.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies stateless session tokens.
// Validity is purely signature plus expiry; there is no revocation list.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessionManager creates a SessionManager. secure sets the cookie Secure flag.
func NewSessionManager(secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

// Issue creates a signed token for a given user id.
func (m *SessionManager) Issue(userID string) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify parses and validates a token string and returns the embedded user id.
func (m *SessionManager) Verify(tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", apperrors.Auth("Unauthorized - No Token Provided")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", &apperrors.Error{Kind: apperrors.KindAuth, Message: "Unauthorized - Token Expired", Err: err}
		}
		return "", &apperrors.Error{Kind: apperrors.KindAuth, Message: "Unauthorized - Invalid Token", Err: err}
	}
	if !token.Valid || claims.UserID == "" {
		return "", apperrors.Auth("Unauthorized - Invalid Token")
	}
	return claims.UserID, nil
}

// IssueCookie issues a session for the user and sets it as an HTTP-only cookie.
func (m *SessionManager) IssueCookie(w http.ResponseWriter, userID string) error {
	token, expiresAt, err := m.Issue(userID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

// ClearCookie expires the session cookie on the client.
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// TokenFromRequest extracts the session token from the cookie, the Authorization
// header or, for websocket handshakes, the "token" query parameter.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if tokenStr, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			return strings.TrimSpace(tokenStr)
		}
	}

	return r.URL.Query().Get("token")
}
