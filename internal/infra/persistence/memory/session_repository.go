// Package memory holds process-local repository implementations.
package memory

import (
	"context"
	"sync"
	"time"

	"recipes/internal/domain/entity"
	"recipes/internal/domain/repository"
)

// sessionRepository keeps sessions in a mutex-guarded map. Contents are lost on restart.
type sessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]entity.Session
}

// NewSessionRepository returns an empty in-memory session store.
func NewSessionRepository() repository.SessionRepository {
	return &sessionRepository{sessions: make(map[string]entity.Session)}
}

func (r *sessionRepository) Create(_ context.Context, session *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.TokenHash] = *session

	return nil
}

func (r *sessionRepository) FindByTokenHash(_ context.Context, tokenHash string) (*entity.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[tokenHash]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}

	return &session, nil
}

// Renew moves the session expiry forward.
func (r *sessionRepository) Renew(_ context.Context, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[tokenHash]
	if !ok {
		return repository.ErrSessionNotFound
	}

	session.ExpiresAt = expiresAt
	session.LastActivity = time.Now().UTC()
	r.sessions[tokenHash] = session

	return nil
}

func (r *sessionRepository) Delete(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[tokenHash]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(r.sessions, tokenHash)

	return nil
}

// DeleteExpired purges expired sessions and reports how many were removed.
func (r *sessionRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for hash, session := range r.sessions {
		if session.IsExpired(now) {
			delete(r.sessions, hash)
			removed++
		}
	}

	return removed, nil
}
