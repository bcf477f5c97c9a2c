package domain

import "time"

// TokenSource supplies the bearer token for backend calls. A logged-in
// Session is the usual implementation.
type TokenSource interface {
	BearerToken() string
}

// Session is a logged-in browser session. The backend token never leaves the
// server; the browser only holds the session ID cookie.
type Session struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Token     string    `gorm:"type:text;not null" json:"token"`
	UserID    string    `gorm:"size:64" json:"user_id"`
	Username  string    `gorm:"size:100" json:"username"`
	Email     string    `gorm:"size:255" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}

// BearerToken implements TokenSource. A nil session has no token.
func (s *Session) BearerToken() string {
	if s == nil {
		return ""
	}
	return s.Token
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
