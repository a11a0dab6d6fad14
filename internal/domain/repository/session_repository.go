package repository

import (
	"context"
	"errors"
	"time"

	"recipes/internal/domain/entity"
)

// ErrSessionNotFound is returned when no session matches a token hash.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository stores server-side sessions keyed by token hash.
// Implementations must be safe for concurrent use.
type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error

	// FindByTokenHash returns the session regardless of expiry; callers decide validity.
	FindByTokenHash(ctx context.Context, tokenHash string) (*entity.Session, error)

	// Renew moves the expiry of an existing session and records activity.
	Renew(ctx context.Context, tokenHash string, expiresAt time.Time) error

	// Delete removes a session. ErrSessionNotFound if it did not exist.
	Delete(ctx context.Context, tokenHash string) error

	// DeleteExpired removes every session expired at the given instant and returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
