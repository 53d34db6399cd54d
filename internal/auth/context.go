package auth

import (
	"net/http"

	"cinepick/models"
)

// ContextKey is the type used for context keys
type ContextKey string

const (
	// ContextKeyUserID is the key for the numeric user id in the context
	ContextKeyUserID ContextKey = "userID"
	// ContextKeySession is the key for the session in the context
	ContextKeySession ContextKey = "session"
)

// GetUserID retrieves the authenticated user id from the request context.
// Returns 0 when the request is unauthenticated.
func GetUserID(r *http.Request) int {
	if id, ok := r.Context().Value(ContextKeyUserID).(int); ok {
		return id
	}
	return 0
}

// GetSession retrieves the full session from the request context.
func GetSession(r *http.Request) (models.Session, bool) {
	s, ok := r.Context().Value(ContextKeySession).(models.Session)
	return s, ok
}
