package repository

import (
	"context"

	"recipes/internal/domain/entity"
)

// RecipeRepository defines the operations for recipe persistence.
type RecipeRepository interface {
	// List returns every recipe with its owner loaded, ordered by ID ascending.
	List(ctx context.Context) ([]*entity.Recipe, error)

	// Create persists a new recipe and sets its generated ID and timestamps.
	// Integrity violations are reported as domainerrors.ErrRecipeCreationFailed.
	Create(ctx context.Context, recipe *entity.Recipe) error
}
