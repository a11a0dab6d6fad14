package middleware

import (
	"log/slog"
	"net/http"

	deliverycontext "recipes/internal/delivery/context"
	"recipes/internal/delivery/http/response"
	domainerrors "recipes/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ErrorMiddleware renders every failed request as {"error": message}.
type ErrorMiddleware struct {
	logger *slog.Logger
}

// NewErrorMiddleware creates a new error handling middleware
func NewErrorMiddleware(logger *slog.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{
		logger: logger,
	}
}

// HandleHTTPError handles errors as Echo's HTTPErrorHandler
func (m *ErrorMiddleware) HandleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, message, attrs := m.resolve(err)
	if code >= http.StatusInternalServerError {
		attrs = append(attrs,
			slog.Any("error", err),
			slog.String("path", c.Request().URL.Path),
			slog.String("method", c.Request().Method),
		)
		ctx := c.Request().Context()
		deliverycontext.GetLoggerOrDefault(ctx, m.logger).LogAttrs(ctx, slog.LevelError, "Unhandled error", attrs...)
		message = domainerrors.ErrInternalError.Message()
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)

		return
	}
	_ = response.Error(c, code, message)
}

func (m *ErrorMiddleware) resolve(err error) (int, string, []slog.Attr) {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		attrs := []slog.Attr{slog.String("error_code", appErr.ErrorCode())}
		if details := appErr.Details(); details != "" {
			attrs = append(attrs, slog.String("details", details))
		}

		return appErr.HTTPCode(), appErr.Message(), attrs
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := http.StatusText(httpErr.Code)
		if msg, ok := httpErr.Message.(string); ok && msg != "" {
			message = msg
		}

		return httpErr.Code, message, nil
	}

	return http.StatusInternalServerError, "", nil
}
