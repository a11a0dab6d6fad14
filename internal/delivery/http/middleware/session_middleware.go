package middleware

import (
	"log/slog"

	deliverycontext "recipes/internal/delivery/context"
	"recipes/internal/delivery/http/cookie"
	domainerrors "recipes/internal/domain/errors"
	"recipes/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// SessionMiddleware rejects requests that do not carry a live session cookie.
type SessionMiddleware struct {
	sessions usecase.SessionUsecase
	cookies  *cookie.Manager
	logger   *slog.Logger
}

// SessionMiddlewareParams holds dependencies for SessionMiddleware, injected by Fx.
type SessionMiddlewareParams struct {
	fx.In

	Sessions usecase.SessionUsecase
	Cookies  *cookie.Manager
	Logger   *slog.Logger
}

// NewSessionMiddleware creates a new session middleware
func NewSessionMiddleware(params SessionMiddlewareParams) *SessionMiddleware {
	return &SessionMiddleware{
		sessions: params.Sessions,
		cookies:  params.Cookies,
		logger:   params.Logger,
	}
}

// RequireSession authenticates the session cookie and exposes the user ID to the handler.
func (m *SessionMiddleware) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := m.cookies.Read(c)
		if !ok {
			return domainerrors.ErrUnauthorized.WrapMessage("no session cookie")
		}

		ctx := c.Request().Context()
		session, err := m.sessions.Authenticate(ctx, token)
		if err != nil {
			if errors.Is(err, domainerrors.ErrUnauthorized) {
				m.cookies.Clear(c)
			}

			return errors.Wrap(err, "authenticate session")
		}

		if session.Renewed {
			m.cookies.Set(c, token, session.ExpiresAt)
		}

		deliverycontext.SetUserID(c, session.UserID)
		deliverycontext.SetSessionToken(c, token)

		reqLogger := deliverycontext.GetLoggerOrDefault(ctx, m.logger).With(slog.Int64("user_id", session.UserID))
		c.SetRequest(c.Request().WithContext(deliverycontext.WithLogger(ctx, reqLogger)))

		return next(c)
	}
}
