package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"cinepick/models"
	"cinepick/services/sessions"
)

// UserChecker confirms user ids against the recommendation backend.
type UserChecker interface {
	UserExists(ctx context.Context, userID int) (bool, error)
}

// SessionService is the slice of the sessions service the auth handler needs.
type SessionService interface {
	Create(userID int) (models.Session, error)
	Revoke(token string) error
}

// CarouselReleaser tears down a session's live carousels.
type CarouselReleaser interface {
	ReleaseOwner(owner string)
}

// AuthHandler handles login and logout.
type AuthHandler struct {
	users     UserChecker
	sessions  SessionService
	carousels CarouselReleaser
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(users UserChecker, sessionsSvc SessionService, carousels CarouselReleaser) *AuthHandler {
	return &AuthHandler{
		users:     users,
		sessions:  sessionsSvc,
		carousels: carousels,
	}
}

// LoginRequest represents the login request body. The id field accepts a
// JSON number or a numeric string, since the form ships it as text.
type LoginRequest struct {
	UserID any `json:"userId"`
}

// LoginResponse represents the login response.
type LoginResponse struct {
	Token     string `json:"token"`
	UserID    int    `json:"userId"`
	ExpiresAt string `json:"expiresAt"`
}

// Login checks the submitted user id against the backend and opens a
// session. A definitive unknown id gets a 401 and nothing is persisted; a
// backend outage is a 502 so the form can show an inline error.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, ok := parseUserID(req.UserID)
	if !ok {
		errorJSON(w, http.StatusBadRequest, "user id must be a positive number")
		return
	}

	exists, err := h.users.UserExists(r.Context(), userID)
	if err != nil {
		log.Printf("[auth] exists check for %d failed: %v", userID, err)
		errorJSON(w, http.StatusBadGateway, "recommendation service unavailable")
		return
	}
	if !exists {
		errorJSON(w, http.StatusUnauthorized, "user id not found")
		return
	}

	session, err := h.sessions.Create(userID)
	if err != nil {
		log.Printf("[auth] create session for %d failed: %v", userID, err)
		errorJSON(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     session.Token,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt.Format("2006-01-02T15:04:05Z"),
	})
}

// Logout revokes the session and releases its carousels.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r)
	if token == "" {
		errorJSON(w, http.StatusBadRequest, "no session token")
		return
	}

	if err := h.sessions.Revoke(token); err != nil {
		// Already expired is fine.
		if !errors.Is(err, sessions.ErrSessionNotFound) {
			errorJSON(w, http.StatusInternalServerError, "failed to revoke session")
			return
		}
	}
	if h.carousels != nil {
		h.carousels.ReleaseOwner(token)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// parseUserID coerces the submitted id into a positive integer.
func parseUserID(v any) (int, bool) {
	switch id := v.(type) {
	case float64:
		n := int(id)
		if float64(n) == id && n > 0 {
			return n, true
		}
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(id))
		if err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}
