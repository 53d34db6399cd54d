package models

import "time"

// Session represents an authenticated session for a user. The backend
// trusts the numeric user id indefinitely, so sessions only end by
// explicit logout or expiry of the token itself.
type Session struct {
	Token     string    `json:"token"`
	UserID    int       `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsExpired returns true if the session has expired.
func (s Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
