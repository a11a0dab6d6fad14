// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"recipes/internal/delivery/http/middleware"
	"recipes/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	UserHandler       *handler.UserHandler
	RecipeHandler     *handler.RecipeHandler
	SessionMiddleware *middleware.SessionMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	userHandler       *handler.UserHandler
	recipeHandler     *handler.RecipeHandler
	sessionMiddleware *middleware.SessionMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		userHandler:       params.UserHandler,
		recipeHandler:     params.RecipeHandler,
		sessionMiddleware: params.SessionMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)

	e.POST("/signup", r.userHandler.Signup)
	e.POST("/login", r.userHandler.Login)

	// Session-protected routes
	requireSession := r.sessionMiddleware.RequireSession
	e.GET("/check_session", r.userHandler.CheckSession, requireSession)
	e.DELETE("/logout", r.userHandler.Logout, requireSession)
	e.GET("/recipes", r.recipeHandler.List, requireSession)
	e.POST("/recipes", r.recipeHandler.Create, requireSession)
}
