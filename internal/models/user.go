package models

import "time"

// Roles a user account can hold.
const (
	RoleAdmin = "ADMIN"
	RoleStaff = "STAFF"
)

// User represents a staff or admin account.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password  string    `json:"-" gorm:"type:varchar(255)"` // bcrypt hash, never serialized
	Name      string    `json:"name" gorm:"type:varchar(100)" validate:"required"`
	Role      string    `json:"role" gorm:"type:varchar(10)"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
