package model

import "time"

// SessionModel mirrors the 'sessions' table. Only the token hash is stored, never the raw token.
type SessionModel struct {
	TokenHash    string    `gorm:"type:varchar(64);primaryKey"`
	UserID       int64     `gorm:"not null;index"`
	ExpiresAt    time.Time `gorm:"not null;index"`
	LastActivity time.Time `gorm:"not null"`
	CreatedAt    time.Time

	User *UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (SessionModel) TableName() string {
	return "sessions"
}
