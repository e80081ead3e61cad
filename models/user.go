package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a customer account, either provisioned from a JWT subject
// or registered during checkout
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Subject      *string        `gorm:"uniqueIndex" json:"subject,omitempty"` // JWT 'sub' claim, nil for accounts registered at checkout
	Name         string         `gorm:"uniqueIndex;not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `json:"-"`
	Role         string         `gorm:"not null;default:'customer'" json:"role"` // "customer" or "administrator"
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
