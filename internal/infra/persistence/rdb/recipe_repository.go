package rdb

import (
	"context"

	"recipes/internal/domain/entity"
	domainerrors "recipes/internal/domain/errors"
	"recipes/internal/domain/repository"
	"recipes/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type recipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository is the constructor for recipeRepository.
func NewRecipeRepository(db *gorm.DB) repository.RecipeRepository {
	return &recipeRepository{db: db}
}

// List returns every recipe with its owner, oldest first.
func (repo *recipeRepository) List(ctx context.Context) ([]*entity.Recipe, error) {
	var recipeModels []*model.RecipeModel
	if err := repo.db.WithContext(ctx).
		Preload("User").
		Order("id ASC").
		Find(&recipeModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list recipes")
	}

	recipes := make([]*entity.Recipe, 0, len(recipeModels))
	for _, recipeM := range recipeModels {
		recipes = append(recipes, toRecipeDomain(recipeM))
	}

	return recipes, nil
}

// Create persists a new recipe. The owner association is never written.
func (repo *recipeRepository) Create(ctx context.Context, recipe *entity.Recipe) error {
	recipeM := fromRecipeDomain(recipe)

	if err := repo.db.WithContext(ctx).Omit("User").Create(recipeM).Error; err != nil {
		if isIntegrityViolation(err) {
			return errors.Wrap(domainerrors.ErrRecipeCreationFailed, err.Error())
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create recipe")
	}

	recipe.ID = recipeM.ID
	recipe.CreatedAt = recipeM.CreatedAt

	return nil
}

func toRecipeDomain(recipeM *model.RecipeModel) *entity.Recipe {
	return &entity.Recipe{
		ID:                recipeM.ID,
		Title:             recipeM.Title,
		Instructions:      recipeM.Instructions,
		MinutesToComplete: recipeM.MinutesToComplete,
		UserID:            recipeM.UserID,
		User:              toUserDomain(recipeM.User),
		CreatedAt:         recipeM.CreatedAt,
	}
}

func fromRecipeDomain(recipe *entity.Recipe) *model.RecipeModel {
	return &model.RecipeModel{
		ID:                recipe.ID,
		Title:             recipe.Title,
		Instructions:      recipe.Instructions,
		MinutesToComplete: recipe.MinutesToComplete,
		UserID:            recipe.UserID,
		CreatedAt:         recipe.CreatedAt,
	}
}
