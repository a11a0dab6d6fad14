package usecase

import (
	"context"
	"time"
)

// IssuedSession is handed to the delivery layer to set the session cookie.
type IssuedSession struct {
	Token     string
	ExpiresAt time.Time
}

// AuthenticatedSession describes a valid session resolved from a client token.
type AuthenticatedSession struct {
	UserID    int64
	ExpiresAt time.Time

	// Renewed is set when the expiry moved forward and the cookie must be re-issued.
	Renewed bool
}

// SessionUsecase defines the interface for session management operations.
type SessionUsecase interface {
	StartSession(ctx context.Context, userID int64) (*IssuedSession, error)
	Authenticate(ctx context.Context, token string) (*AuthenticatedSession, error)
	RevokeSession(ctx context.Context, token string) error
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}
