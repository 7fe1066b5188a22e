package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered customer or administrator.
// Walk-in customers ordering without an account have no User row;
// their contact details are captured on the order itself.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"not null" json:"name"`
	Phone        string         `gorm:"uniqueIndex;not null" json:"phone"`
	Email        *string        `gorm:"uniqueIndex" json:"email"` // nullable, phone is the primary contact channel
	PasswordHash *string        `json:"-"`                        // nullable for customers created without credentials
	IsAdmin      bool           `gorm:"not null" json:"is_admin"`
	IsActive     bool           `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
