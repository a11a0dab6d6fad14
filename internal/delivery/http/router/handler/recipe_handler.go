package handler

import (
	"log/slog"
	"net/http"

	deliverycontext "recipes/internal/delivery/context"
	"recipes/internal/delivery/http/response"
	domainerrors "recipes/internal/domain/errors"
	"recipes/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type createRecipeRequest struct {
	Title             string `json:"title" validate:"required"`
	Instructions      string `json:"instructions" validate:"required"`
	MinutesToComplete int    `json:"minutes_to_complete" validate:"required"`
}

// RecipeHandler serves the recipe index.
type RecipeHandler struct {
	recipes usecase.RecipeUsecase
	logger  *slog.Logger
}

// RecipeHandlerParams holds dependencies for RecipeHandler, injected by Fx.
type RecipeHandlerParams struct {
	fx.In

	Recipes usecase.RecipeUsecase
	Logger  *slog.Logger
}

// NewRecipeHandler is the constructor for RecipeHandler, injected by Fx.
func NewRecipeHandler(params RecipeHandlerParams) *RecipeHandler {
	return &RecipeHandler{
		recipes: params.Recipes,
		logger:  params.Logger,
	}
}

// List returns every recipe with its owner.
func (h *RecipeHandler) List(c echo.Context) error {
	recipes, err := h.recipes.ListRecipes(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return c.JSON(http.StatusOK, response.NewRecipes(recipes))
}

// Create adds a recipe owned by the signed-in user.
func (h *RecipeHandler) Create(c echo.Context) error {
	userID, ok := deliverycontext.GetUserID(c)
	if !ok {
		return errors.WithStack(domainerrors.ErrUnauthorized)
	}

	var req createRecipeRequest
	if err := c.Bind(&req); err != nil {
		return errors.Wrap(domainerrors.ErrRecipeFieldsRequired, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return errors.Wrap(domainerrors.ErrRecipeFieldsRequired, err.Error())
	}

	recipe, err := h.recipes.CreateRecipe(c.Request().Context(), &usecase.CreateRecipeInput{
		Title:             req.Title,
		Instructions:      req.Instructions,
		MinutesToComplete: req.MinutesToComplete,
		UserID:            userID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return c.JSON(http.StatusCreated, response.NewRecipe(recipe))
}
