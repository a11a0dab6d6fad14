// Package response shapes the JSON bodies written by the HTTP handlers.
package response

import (
	"recipes/internal/domain/entity"
	domainerrors "recipes/internal/domain/errors"

	"github.com/labstack/echo/v4"
)

// User is the public view of an account. It has no field for the password hash.
type User struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	ImageURL *string `json:"image_url"`
	Bio      *string `json:"bio"`
}

// Recipe is the public view of a recipe together with its owner.
type Recipe struct {
	Title             string `json:"title"`
	Instructions      string `json:"instructions"`
	MinutesToComplete int    `json:"minutes_to_complete"`
	User              *User  `json:"user"`
}

// Health is the body of the liveness check.
type Health struct {
	Status string `json:"status"`
}

// NewUser maps a domain user to its public view.
func NewUser(u *entity.User) *User {
	if u == nil {
		return nil
	}

	return &User{
		ID:       u.ID,
		Username: u.Username,
		ImageURL: u.ImageURL,
		Bio:      u.Bio,
	}
}

// NewRecipe maps a domain recipe to its public view.
func NewRecipe(r *entity.Recipe) *Recipe {
	return &Recipe{
		Title:             r.Title,
		Instructions:      r.Instructions,
		MinutesToComplete: r.MinutesToComplete,
		User:              NewUser(r.User),
	}
}

// NewRecipes maps a list of recipes. The result is never nil so it encodes as [].
func NewRecipes(recipes []*entity.Recipe) []*Recipe {
	out := make([]*Recipe, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, NewRecipe(r))
	}

	return out
}

// Error writes the error body.
func Error(c echo.Context, statusCode int, message string) error {
	return c.JSON(statusCode, domainerrors.ErrorResponse{Error: message})
}
