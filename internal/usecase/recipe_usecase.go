package usecase

import (
	"context"

	"recipes/internal/domain/entity"
)

// CreateRecipeInput defines the data required to create a recipe for the signed-in user.
type CreateRecipeInput struct {
	Title             string
	Instructions      string
	MinutesToComplete int
	UserID            int64
}

// RecipeUsecase defines recipe listing and creation.
type RecipeUsecase interface {
	// ListRecipes returns all recipes with their owners, ordered by ID ascending.
	ListRecipes(ctx context.Context) ([]*entity.Recipe, error)

	CreateRecipe(ctx context.Context, input *CreateRecipeInput) (*entity.Recipe, error)
}
