package rdb

import (
	"context"
	"time"

	"recipes/internal/domain/entity"
	domainerrors "recipes/internal/domain/errors"
	"recipes/internal/domain/repository"
	"recipes/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// sessionRepository keeps sessions in the 'sessions' table so they survive restarts
// and are shared between instances.
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository is the constructor for the database-backed session store.
func NewSessionRepository(db *gorm.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

// Create stores a new session row.
func (repo *sessionRepository) Create(ctx context.Context, session *entity.Session) error {
	sessionM := &model.SessionModel{
		TokenHash:    session.TokenHash,
		UserID:       session.UserID,
		ExpiresAt:    session.ExpiresAt,
		LastActivity: session.LastActivity,
		CreatedAt:    session.CreatedAt,
	}

	if err := repo.db.WithContext(ctx).Omit("User").Create(sessionM).Error; err != nil {
		if isIntegrityViolation(err) {
			return errors.Wrap(domainerrors.ErrSessionCreationFailed, err.Error())
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create session")
	}

	session.CreatedAt = sessionM.CreatedAt

	return nil
}

// FindByTokenHash loads the session for a hashed token.
func (repo *sessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*entity.Session, error) {
	var sessionM model.SessionModel
	if err := repo.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Take(&sessionM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSessionNotFound
		}

		return nil, errors.Wrap(err, "failed to find session")
	}

	return &entity.Session{
		TokenHash:    sessionM.TokenHash,
		UserID:       sessionM.UserID,
		ExpiresAt:    sessionM.ExpiresAt,
		LastActivity: sessionM.LastActivity,
		CreatedAt:    sessionM.CreatedAt,
	}, nil
}

// Renew moves the session expiry forward and records the activity time.
func (repo *sessionRepository) Renew(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	result := repo.db.WithContext(ctx).
		Model(&model.SessionModel{}).
		Where("token_hash = ?", tokenHash).
		Updates(map[string]any{
			"expires_at":    expiresAt,
			"last_activity": time.Now().UTC(),
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to renew session")
	}
	if result.RowsAffected == 0 {
		return repository.ErrSessionNotFound
	}

	return nil
}

// Delete removes the session for a hashed token.
func (repo *sessionRepository) Delete(ctx context.Context, tokenHash string) error {
	result := repo.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&model.SessionModel{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete session")
	}
	if result.RowsAffected == 0 {
		return repository.ErrSessionNotFound
	}

	return nil
}

// DeleteExpired removes sessions that expired at or before now and reports how many.
func (repo *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&model.SessionModel{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete expired sessions")
	}

	return result.RowsAffected, nil
}
