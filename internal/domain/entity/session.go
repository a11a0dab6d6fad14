package entity

import "time"

// Session binds an opaque client-held token to an authenticated user.
// Only the SHA-256 hash of the token is ever stored.
type Session struct {
	TokenHash    string
	UserID       int64
	ExpiresAt    time.Time
	LastActivity time.Time
	CreatedAt    time.Time
}

// IsExpired reports whether the session is no longer valid at the given instant.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// NeedsRenewal reports whether the session has passed half of its lifetime.
func (s *Session) NeedsRenewal(now time.Time, ttl time.Duration) bool {
	return s.ExpiresAt.Sub(now) < ttl/2
}
