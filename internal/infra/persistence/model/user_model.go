package model

import "time"

// UserModel mirrors the 'users' table.
// It is an exported type so repositories and migrations in other packages can share it.
type UserModel struct {
	ID           int64   `gorm:"primaryKey;autoIncrement"`
	Username     string  `gorm:"type:varchar(50);uniqueIndex;not null"`
	PasswordHash string  `gorm:"type:varchar(128);not null"`
	ImageURL     *string `gorm:"column:image_url;type:varchar(255)"`
	Bio          *string `gorm:"type:varchar(255)"`
	CreatedAt    time.Time

	Recipes []RecipeModel `gorm:"foreignKey:UserID"`
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
