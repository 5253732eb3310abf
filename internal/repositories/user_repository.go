package repositories

import (
	"chaya/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	ListStaff() ([]models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	CountActiveAdmins() (int64, error)
}
