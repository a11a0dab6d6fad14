// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import "time"

// Column widths enforced before a User is written.
const (
	MaxUsernameLength     = 50
	MaxProfileFieldLength = 255

	// MaxPasswordBytes is the longest password bcrypt accepts.
	MaxPasswordBytes = 72
)

// User is an account that can sign in and own recipes.
type User struct {
	ID           int64     // Auto-assigned primary key.
	Username     string    // Unique login name.
	PasswordHash string    // bcrypt hash of the password. Never leaves the service layer.
	ImageURL     *string   // Optional avatar URL; nil when not provided.
	Bio          *string   // Optional free-text biography; nil when not provided.
	CreatedAt    time.Time // Timestamp of when the account was created.
}
