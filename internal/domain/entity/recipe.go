package entity

import "time"

// MinInstructionsLength is the minimum number of characters a recipe's instructions must contain.
const MinInstructionsLength = 50

// MaxInstructionsLength matches the width of the instructions column.
const MaxInstructionsLength = 255

// MaxTitleLength matches the width of the title column.
const MaxTitleLength = 100

// Recipe is a set of cooking instructions owned by a User.
type Recipe struct {
	ID                int64
	Title             string
	Instructions      string
	MinutesToComplete int
	UserID            int64
	User              *User // Owner; populated by repository reads that load the association.
	CreatedAt         time.Time
}
