package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookie carries the tenant session token set by the embedding app.
const SessionCookie = "session_token"

var ErrInvalidSession = errors.New("invalid session token")

// SessionClaims identify the shop a request acts for and the access token
// used against that shop's admin API.
type SessionClaims struct {
	Shop        string `json:"shop"`
	AccessToken string `json:"access_token"`
	jwt.RegisteredClaims
}

func ExtractSessionToken(r *http.Request) string {
	// Cookie (preferred)
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if cookie.Value != "" {
			return cookie.Value
		}
	}

	// Authorization header (fallback)
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}

// ParseSession verifies an HS256 session token and returns its claims.
func ParseSession(token string, secret []byte) (*SessionClaims, error) {
	if token == "" || len(secret) == 0 {
		return nil, ErrInvalidSession
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	if !parsed.Valid || claims.Shop == "" || claims.AccessToken == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
