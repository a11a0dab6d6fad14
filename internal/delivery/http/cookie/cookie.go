// Package cookie reads and writes the session cookie.
package cookie

import (
	"net/http"
	"time"

	"recipes/config"

	"github.com/labstack/echo/v4"
)

// Manager owns the attributes of the session cookie.
type Manager struct {
	name   string
	secure bool
	now    func() time.Time
}

// NewManager builds a Manager from the session configuration.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		name:   cfg.Session.CookieName,
		secure: cfg.Session.Secure,
		now:    time.Now,
	}
}

// Name returns the cookie name.
func (m *Manager) Name() string {
	return m.name
}

// Read returns the session token carried by the request, if any.
func (m *Manager) Read(c echo.Context) (string, bool) {
	ck, err := c.Cookie(m.name)
	if err != nil || ck.Value == "" {
		return "", false
	}

	return ck.Value, true
}

// Set writes the session cookie so that it expires together with the session.
func (m *Manager) Set(c echo.Context, token string, expiresAt time.Time) {
	maxAge := int(expiresAt.Sub(m.now()).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}

	c.SetCookie(m.base(token, maxAge, expiresAt))
}

// Clear instructs the client to drop the session cookie.
func (m *Manager) Clear(c echo.Context) {
	c.SetCookie(m.base("", -1, time.Unix(0, 0)))
}

func (m *Manager) base(value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     m.name,
		Value:    value,
		Path:     "/",
		Expires:  expires.UTC(),
		MaxAge:   maxAge,
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
