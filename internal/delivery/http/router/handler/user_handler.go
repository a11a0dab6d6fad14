// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"

	deliverycontext "recipes/internal/delivery/context"
	"recipes/internal/delivery/http/cookie"
	"recipes/internal/delivery/http/response"
	domainerrors "recipes/internal/domain/errors"
	"recipes/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type signupRequest struct {
	Username string  `json:"username" validate:"required"`
	Password string  `json:"password" validate:"required"`
	ImageURL *string `json:"image_url"`
	Bio      *string `json:"bio"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserHandler holds dependencies for account and session handlers.
type UserHandler struct {
	users    usecase.UserUsecase
	sessions usecase.SessionUsecase
	cookies  *cookie.Manager
	logger   *slog.Logger
}

// UserHandlerParams holds dependencies for UserHandler, injected by Fx.
type UserHandlerParams struct {
	fx.In

	Users    usecase.UserUsecase
	Sessions usecase.SessionUsecase
	Cookies  *cookie.Manager
	Logger   *slog.Logger
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(params UserHandlerParams) *UserHandler {
	return &UserHandler{
		users:    params.Users,
		sessions: params.Sessions,
		cookies:  params.Cookies,
		logger:   params.Logger,
	}
}

// Signup creates an account and signs it in.
func (h *UserHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return errors.Wrap(domainerrors.ErrSignupFieldsRequired, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return errors.Wrap(domainerrors.ErrSignupFieldsRequired, err.Error())
	}

	user, err := h.users.Signup(c.Request().Context(), &usecase.SignupInput{
		Username: req.Username,
		Password: req.Password,
		ImageURL: req.ImageURL,
		Bio:      req.Bio,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.startSession(c, user.ID); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, response.NewUser(user))
}

// Login verifies credentials and starts a session.
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return errors.Wrap(domainerrors.ErrInvalidCredentials, err.Error())
	}

	user, err := h.users.Login(c.Request().Context(), &usecase.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.startSession(c, user.ID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, response.NewUser(user))
}

// CheckSession returns the signed-in user.
func (h *UserHandler) CheckSession(c echo.Context) error {
	userID, ok := deliverycontext.GetUserID(c)
	if !ok {
		return errors.WithStack(domainerrors.ErrUnauthorized)
	}

	user, err := h.users.CurrentUser(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.JSON(http.StatusOK, response.NewUser(user))
}

// Logout destroys the current session.
func (h *UserHandler) Logout(c echo.Context) error {
	token := deliverycontext.GetSessionToken(c)
	if err := h.sessions.RevokeSession(c.Request().Context(), token); err != nil {
		if errors.Is(err, domainerrors.ErrUnauthorized) {
			h.cookies.Clear(c)
		}

		return errors.WithStack(err)
	}

	h.cookies.Clear(c)

	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) startSession(c echo.Context, userID int64) error {
	issued, err := h.sessions.StartSession(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	h.cookies.Set(c, issued.Token, issued.ExpiresAt)

	return nil
}
