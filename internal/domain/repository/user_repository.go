// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"recipes/internal/domain/entity"
)

// ErrUserNotFound is a domain-specific error returned when a user is not found.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the standard operations for user persistence.
type UserRepository interface {
	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id int64) (*entity.User, error)

	// FindByUsername retrieves a single user by exact username match.
	FindByUsername(ctx context.Context, username string) (*entity.User, error)

	// Create persists a new user and sets its generated ID and timestamps.
	// A username collision is reported as domainerrors.ErrUsernameTaken.
	Create(ctx context.Context, user *entity.User) error
}
