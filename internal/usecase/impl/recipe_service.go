package impl

import (
	"context"
	"log/slog"

	deliverycontext "recipes/internal/delivery/context"
	"recipes/internal/domain/entity"
	domainerrors "recipes/internal/domain/errors"
	"recipes/internal/domain/repository"
	"recipes/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type recipeService struct {
	txManager  repository.TransactionManager
	recipeRepo repository.RecipeRepository
	logger     *slog.Logger
}

// RecipeServiceParams holds dependencies for RecipeService, injected by Fx.
type RecipeServiceParams struct {
	fx.In

	TxManager  repository.TransactionManager
	RecipeRepo repository.RecipeRepository
	Logger     *slog.Logger
}

// NewRecipeService is the constructor for recipeService.
func NewRecipeService(params RecipeServiceParams) usecase.RecipeUsecase {
	return &recipeService{
		txManager:  params.TxManager,
		recipeRepo: params.RecipeRepo,
		logger:     params.Logger,
	}
}

func (srv *recipeService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// ListRecipes returns every recipe with its owner, ordered by id.
func (srv *recipeService) ListRecipes(ctx context.Context) ([]*entity.Recipe, error) {
	recipes, err := srv.recipeRepo.List(ctx)
	if err != nil {
		srv.log(ctx).Error("Failed to list recipes", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to list recipes")
	}

	return recipes, nil
}

// CreateRecipe validates the input and stores the recipe with its owner attached.
func (srv *recipeService) CreateRecipe(ctx context.Context, input *usecase.CreateRecipeInput) (*entity.Recipe, error) {
	if input.Title == "" || input.Instructions == "" || input.MinutesToComplete == 0 {
		return nil, errors.Wrap(domainerrors.ErrRecipeFieldsRequired, "recipe rejected")
	}

	recipe := &entity.Recipe{
		Title:             input.Title,
		Instructions:      input.Instructions,
		MinutesToComplete: input.MinutesToComplete,
		UserID:            input.UserID,
	}
	if verr := entity.ValidateNewRecipe(recipe); verr != nil {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed.WithMessage(verr.Message), verr.Error())
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.RecipeRepo().Create(ctx, recipe); err != nil {
			return err
		}

		owner, err := repoFactory.UserRepo().FindByID(ctx, input.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return errors.Wrap(domainerrors.ErrRecipeCreationFailed, "recipe owner not found")
			}

			return errors.Wrap(err, "failed to load recipe owner")
		}
		recipe.User = owner

		return nil
	})
	if err != nil {
		if !errors.Is(err, domainerrors.ErrRecipeCreationFailed) {
			srv.log(ctx).Error("Failed to execute recipe creation transaction", slog.Int64("userID", input.UserID), slog.Any("error", err))
		}

		return nil, errors.Wrap(err, "failed to create recipe")
	}

	srv.log(ctx).Debug("Recipe created", slog.Int64("recipeID", recipe.ID), slog.Int64("userID", input.UserID))

	return recipe, nil
}
