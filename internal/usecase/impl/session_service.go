package impl

import (
	"context"
	"log/slog"
	"time"

	"recipes/config"
	deliverycontext "recipes/internal/delivery/context"
	"recipes/internal/domain/entity"
	domainerrors "recipes/internal/domain/errors"
	"recipes/internal/domain/repository"
	"recipes/internal/domain/service"
	"recipes/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// sessionService implements the SessionUsecase interface.
type sessionService struct {
	sessionRepo  repository.SessionRepository
	tokenService service.SessionTokenService
	ttl          time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// SessionServiceParams holds dependencies for SessionService, injected by Fx.
type SessionServiceParams struct {
	fx.In

	SessionRepo  repository.SessionRepository
	TokenService service.SessionTokenService
	Config       *config.Config
	Logger       *slog.Logger
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(params SessionServiceParams) usecase.SessionUsecase {
	ttl := params.Config.Session.TTL

	return &sessionService{
		sessionRepo:  params.SessionRepo,
		tokenService: params.TokenService,
		ttl:          ttl,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *sessionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// StartSession issues a new token for the user and stores its hash.
func (srv *sessionService) StartSession(ctx context.Context, userID int64) (*usecase.IssuedSession, error) {
	token, err := srv.tokenService.Generate()
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrSessionCreationFailed, err.Error())
	}

	now := srv.now()
	session := &entity.Session{
		TokenHash:    srv.tokenService.Hash(token),
		UserID:       userID,
		ExpiresAt:    now.Add(srv.ttl),
		LastActivity: now,
		CreatedAt:    now,
	}
	if err := srv.sessionRepo.Create(ctx, session); err != nil {
		srv.log(ctx).Error("Failed to store session", slog.Int64("userID", userID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to store session")
	}

	srv.log(ctx).Debug("Session started", slog.Int64("userID", userID), slog.Time("expiresAt", session.ExpiresAt))

	return &usecase.IssuedSession{Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// Authenticate resolves a client token to its session, renewing it past half-life.
func (srv *sessionService) Authenticate(ctx context.Context, token string) (*usecase.AuthenticatedSession, error) {
	if token == "" {
		return nil, domainerrors.ErrUnauthorized.WrapMessage("missing session token")
	}

	tokenHash := srv.tokenService.Hash(token)
	session, err := srv.sessionRepo.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, domainerrors.ErrUnauthorized.WrapMessage("unknown session")
		}

		return nil, errors.Wrap(err, "failed to find session")
	}

	now := srv.now()
	if session.IsExpired(now) {
		if err := srv.sessionRepo.Delete(ctx, tokenHash); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
			srv.log(ctx).Warn("Failed to delete expired session", slog.Any("error", err))
		}

		return nil, domainerrors.ErrUnauthorized.WrapMessage("session expired")
	}

	authenticated := &usecase.AuthenticatedSession{UserID: session.UserID, ExpiresAt: session.ExpiresAt}
	if !session.NeedsRenewal(now, srv.ttl) {
		return authenticated, nil
	}

	expiresAt := now.Add(srv.ttl)
	if err := srv.sessionRepo.Renew(ctx, tokenHash, expiresAt); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, domainerrors.ErrUnauthorized.WrapMessage("session revoked")
		}
		// The session is still valid until its current expiry.
		srv.log(ctx).Warn("Failed to renew session", slog.Int64("userID", session.UserID), slog.Any("error", err))

		return authenticated, nil
	}

	authenticated.ExpiresAt = expiresAt
	authenticated.Renewed = true

	return authenticated, nil
}

// RevokeSession deletes the session behind the token.
func (srv *sessionService) RevokeSession(ctx context.Context, token string) error {
	if token == "" {
		return domainerrors.ErrUnauthorized.WrapMessage("missing session token")
	}

	if err := srv.sessionRepo.Delete(ctx, srv.tokenService.Hash(token)); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return domainerrors.ErrUnauthorized.WrapMessage("unknown session")
		}

		return errors.Wrap(err, "failed to delete session")
	}

	return nil
}

// CleanupExpiredSessions removes all expired sessions from the store.
func (srv *sessionService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	deleted, err := srv.sessionRepo.DeleteExpired(ctx, srv.now())
	if err != nil {
		srv.log(ctx).Error("Failed to cleanup expired sessions", slog.Any("error", err))

		return 0, errors.Wrap(err, "failed to cleanup expired sessions")
	}

	srv.log(ctx).Debug("Cleaned up expired sessions", slog.Int64("deleted_count", deleted))

	return deleted, nil
}
