package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"recipes/config"
	deliverycontext "recipes/internal/delivery/context"
	"recipes/internal/delivery/http/cookie"
	domainerrors "recipes/internal/domain/errors"
	mockusecase "recipes/internal/mocks/usecase"
	"recipes/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type sessionMiddlewareFixture struct {
	sessions   *mockusecase.MockSessionUsecase
	middleware *SessionMiddleware
	e          *echo.Echo
}

func newSessionMiddlewareFixture(t *testing.T) *sessionMiddlewareFixture {
	cfg := &config.Config{}
	cfg.ApplyDefaults()

	sessions := mockusecase.NewMockSessionUsecase(t)
	m := NewSessionMiddleware(SessionMiddlewareParams{
		Sessions: sessions,
		Cookies:  cookie.NewManager(cfg),
		Logger:   slog.New(slog.DiscardHandler),
	})

	return &sessionMiddlewareFixture{sessions: sessions, middleware: m, e: echo.New()}
}

func (f *sessionMiddlewareFixture) run(token string, next echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: token})
	}
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)

	return rec, f.middleware.RequireSession(next)(c)
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "session" {
			return ck
		}
	}

	return nil
}

func unreachable(t *testing.T) echo.HandlerFunc {
	return func(echo.Context) error {
		t.Fatal("handler must not run")

		return nil
	}
}

func TestRequireSession_NoCookie(t *testing.T) {
	f := newSessionMiddlewareFixture(t)

	rec, err := f.run("", unreachable(t))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrUnauthorized))
	assert.Nil(t, sessionCookie(rec))
}

func TestRequireSession_RejectedTokenClearsCookie(t *testing.T) {
	f := newSessionMiddlewareFixture(t)
	f.sessions.EXPECT().
		Authenticate(mock.Anything, "stale").
		Return(nil, errors.Wrap(domainerrors.ErrUnauthorized, "session expired"))

	rec, err := f.run("stale", unreachable(t))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrUnauthorized))
	ck := sessionCookie(rec)
	require.NotNil(t, ck)
	assert.Empty(t, ck.Value)
	assert.Equal(t, -1, ck.MaxAge)
}

func TestRequireSession_StoreFailureKeepsCookie(t *testing.T) {
	f := newSessionMiddlewareFixture(t)
	f.sessions.EXPECT().
		Authenticate(mock.Anything, "tok").
		Return(nil, errors.New("store unavailable"))

	rec, err := f.run("tok", unreachable(t))

	require.Error(t, err)
	assert.False(t, errors.Is(err, domainerrors.ErrUnauthorized))
	assert.Nil(t, sessionCookie(rec))
}

func TestRequireSession_Valid(t *testing.T) {
	f := newSessionMiddlewareFixture(t)
	f.sessions.EXPECT().
		Authenticate(mock.Anything, "tok").
		Return(&usecase.AuthenticatedSession{UserID: 7, ExpiresAt: time.Now().Add(time.Hour)}, nil)

	var gotUserID int64
	var gotToken string
	rec, err := f.run("tok", func(c echo.Context) error {
		gotUserID, _ = deliverycontext.GetUserID(c)
		gotToken = deliverycontext.GetSessionToken(c)
		assert.NotNil(t, deliverycontext.GetLogger(c.Request().Context()))

		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7), gotUserID)
	assert.Equal(t, "tok", gotToken)
	assert.Nil(t, sessionCookie(rec), "cookie is only re-issued on renewal")
}

func TestRequireSession_RenewedReissuesCookie(t *testing.T) {
	f := newSessionMiddlewareFixture(t)
	expiresAt := time.Now().Add(30 * 24 * time.Hour)
	f.sessions.EXPECT().
		Authenticate(mock.Anything, "tok").
		Return(&usecase.AuthenticatedSession{UserID: 7, ExpiresAt: expiresAt, Renewed: true}, nil)

	rec, err := f.run("tok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	require.NoError(t, err)
	ck := sessionCookie(rec)
	require.NotNil(t, ck)
	assert.Equal(t, "tok", ck.Value)
	assert.Positive(t, ck.MaxAge)
}
