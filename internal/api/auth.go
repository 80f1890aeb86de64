package api

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/starford/ladle/internal/apperr"
	"github.com/starford/ladle/internal/session"
)

// Credentials is the configured username/password pair the login endpoint
// checks against. PasswordHash, when set, takes precedence over Password and
// must be a bcrypt hash.
type Credentials struct {
	Username     string
	Password     string
	PasswordHash string
}

func (c Credentials) match(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(c.Username), []byte(username)) == 1
	var passOK bool
	if c.PasswordHash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(c.Password), []byte(password)) == 1
	}
	return userOK && passOK
}

// AuthHandler serves login, logout, and session introspection.
type AuthHandler struct {
	sessions *session.Store
	creds    Credentials
	disabled bool
}

// NewAuthHandler creates an AuthHandler. With disabled=true every session
// check reports authenticated and login still works for clients that want a
// token anyway.
func NewAuthHandler(sessions *session.Store, creds Credentials, disabled bool) *AuthHandler {
	return &AuthHandler{sessions: sessions, creds: creds, disabled: disabled}
}

// Login handles POST /api/login.
//
//	@Summary		Log in with username and password, receiving a session token
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LoginRequest	true	"Credentials"
//	@Success		200		{object}	LoginResponse
//	@Failure		401		{object}	errResponse
//	@Router			/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if !h.creds.match(req.Username, req.Password) {
		respondError(w, apperr.ErrUnauthenticated, "login rejected")
		return
	}

	token, err := h.sessions.Create()
	if err != nil {
		slog.Error("create session failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(session.TTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}

// Logout handles POST /api/logout. It clears the cookie; the server-side
// session is left to expire.
//
//	@Summary	Log out, clearing the session cookie
//	@Tags		auth
//	@Success	204
//	@Router		/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /api/session.
//
//	@Summary		Report whether the caller holds a live session
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	SessionResponse
//	@Router			/session [get]
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	authenticated := h.disabled || h.sessions.Verify(credential(r))
	writeJSON(w, http.StatusOK, SessionResponse{Authenticated: authenticated})
}
