// Package api implements the Ladle REST API using chi.
package api

import (
	"net/http"
	"strings"

	"github.com/starford/ladle/internal/session"
)

// SessionCookie is the cookie that carries the session token.
const SessionCookie = "ladle_session"

// credential extracts the session token from the request: an
// "Authorization: Bearer <token>" header wins, the session cookie is the
// fallback.
func credential(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// AuthMiddleware returns middleware that requires a live session.
// If enabled is false, all requests pass through (disabled mode).
// A missing, unknown, or expired token fails closed with 401.
func AuthMiddleware(enabled bool, sessions *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			if !sessions.Verify(credential(r)) {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
