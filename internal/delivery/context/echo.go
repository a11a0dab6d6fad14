package context

import (
	"github.com/labstack/echo/v4"
)

func fromEcho[T any](c echo.Context, key ContextKey) (T, bool) {
	v, ok := c.Get(string(key)).(T)

	return v, ok
}

// SetRequestID stores the request ID in echo.Context.
func SetRequestID(c echo.Context, requestID string) {
	c.Set(string(KeyRequestID), requestID)
}

// GetRequestID returns the request ID assigned by the request ID middleware.
func GetRequestID(c echo.Context) string {
	id, _ := fromEcho[string](c, KeyRequestID)

	return id
}

// SetUserID stores the authenticated user's ID.
func SetUserID(c echo.Context, userID int64) {
	c.Set(string(KeyUserID), userID)
}

// GetUserID returns the authenticated user's ID; ok is false outside session-protected routes.
func GetUserID(c echo.Context) (int64, bool) {
	return fromEcho[int64](c, KeyUserID)
}

// SetSessionToken stores the raw session token of the current request.
func SetSessionToken(c echo.Context, token string) {
	c.Set(string(KeySessionToken), token)
}

// GetSessionToken returns the raw session token of the current request.
func GetSessionToken(c echo.Context) string {
	token, _ := fromEcho[string](c, KeySessionToken)

	return token
}
