package session

import "time"

// Session represents an authenticated member session
type Session struct {
	ID            string    `json:"id"`
	Authenticated bool      `json:"authenticated"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
