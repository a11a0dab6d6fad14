package model

import "time"

// RecipeModel mirrors the 'recipes' table. UserID references users.id.
type RecipeModel struct {
	ID                int64  `gorm:"primaryKey;autoIncrement"`
	Title             string `gorm:"type:varchar(100);not null"`
	Instructions      string `gorm:"type:varchar(255);not null"`
	MinutesToComplete int    `gorm:"not null"`
	UserID            int64  `gorm:"not null;index"`
	CreatedAt         time.Time

	User *UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (RecipeModel) TableName() string {
	return "recipes"
}
