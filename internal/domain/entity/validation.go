package entity

import (
	"fmt"
	"unicode/utf8"
)

// ValidationError describes why a field value was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateNewUser checks the invariants a User must satisfy before it is persisted.
func ValidateNewUser(u *User) *ValidationError {
	if u.Username == "" {
		return &ValidationError{Field: "username", Message: "Username cannot be empty"}
	}
	if utf8.RuneCountInString(u.Username) > MaxUsernameLength {
		return tooLong("username", "Username", MaxUsernameLength)
	}
	if u.PasswordHash == "" {
		return &ValidationError{Field: "password_hash", Message: "Password hash cannot be empty"}
	}
	if u.ImageURL != nil && utf8.RuneCountInString(*u.ImageURL) > MaxProfileFieldLength {
		return tooLong("image_url", "Image URL", MaxProfileFieldLength)
	}
	if u.Bio != nil && utf8.RuneCountInString(*u.Bio) > MaxProfileFieldLength {
		return tooLong("bio", "Bio", MaxProfileFieldLength)
	}

	return nil
}

// ValidateNewRecipe checks the invariants a Recipe must satisfy before it is persisted.
// Lengths are counted in characters, not bytes.
func ValidateNewRecipe(r *Recipe) *ValidationError {
	if r.Title == "" {
		return &ValidationError{Field: "title", Message: "Title cannot be empty"}
	}
	if utf8.RuneCountInString(r.Title) > MaxTitleLength {
		return tooLong("title", "Title", MaxTitleLength)
	}

	n := utf8.RuneCountInString(r.Instructions)
	if n < MinInstructionsLength {
		return &ValidationError{
			Field:   "instructions",
			Message: fmt.Sprintf("Instructions must be at least %d characters long", MinInstructionsLength),
		}
	}
	if n > MaxInstructionsLength {
		return tooLong("instructions", "Instructions", MaxInstructionsLength)
	}

	return nil
}

func tooLong(field, label string, limit int) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf("%s must be at most %d characters long", label, limit)}
}
