package models

import (
	"time"
)

// UserModel represents the database model for User
type UserModel struct {
	ID             string    `gorm:"type:varchar(64);primaryKey"`
	Name           string    `gorm:"type:varchar(255);not null"`
	Email          string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHashed string    `gorm:"type:varchar(255);not null"`
	Role           string    `gorm:"type:varchar(50);not null;default:'external'"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

func (UserModel) TableName() string {
	return "users"
}

// PasswordResetTokenModel represents the database model for PasswordResetToken
type PasswordResetTokenModel struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"type:varchar(64);not null;index"`
	Token     string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null;index"`
	Used      bool      `gorm:"default:false;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (PasswordResetTokenModel) TableName() string {
	return "password_reset_tokens"
}
