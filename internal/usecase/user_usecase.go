// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"recipes/internal/domain/entity"
)

// --- Input DTOs ---

// SignupInput defines the data required to register a new user.
type SignupInput struct {
	Username string
	Password string
	ImageURL *string
	Bio      *string
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Username string
	Password string
}

// UserUsecase defines the interface for user-related business operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type UserUsecase interface {
	// Signup creates a user. Missing fields and taken usernames surface as 422 domain errors.
	Signup(ctx context.Context, input *SignupInput) (*entity.User, error)

	// Login verifies credentials. Unknown users and wrong passwords yield the same error.
	Login(ctx context.Context, input *LoginInput) (*entity.User, error)

	// CurrentUser loads the user a session points at; a vanished user is Unauthorized.
	CurrentUser(ctx context.Context, userID int64) (*entity.User, error)
}
