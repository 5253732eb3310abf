package services

import (
	"errors"
	"fmt"

	"chaya/internal/apperrors"
	"chaya/internal/config"
	"chaya/internal/models"
	"chaya/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// UserService handles staff account administration.
type UserService struct {
	userRepo     repositories.UserRepository
	farmerRepo   repositories.FarmerRepository
	deletePolicy string
}

// NewUserService creates a new UserService. deletePolicy decides what
// happens to farmer rows referencing a deleted user: restrict or detach.
func NewUserService(userRepo repositories.UserRepository, farmerRepo repositories.FarmerRepository, deletePolicy string) *UserService {
	if deletePolicy != config.UserDeleteDetach {
		deletePolicy = config.UserDeleteRestrict
	}
	return &UserService{
		userRepo:     userRepo,
		farmerRepo:   farmerRepo,
		deletePolicy: deletePolicy,
	}
}

// CreateStaff creates a new STAFF account with a hashed password.
func (s *UserService) CreateStaff(email, password, name string) (*models.User, error) {
	if existing, err := s.userRepo.GetByEmail(email); err == nil && existing != nil {
		return nil, &apperrors.DuplicateError{Field: "email"}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hashed),
		Name:     name,
		Role:     models.RoleStaff,
		IsActive: true,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListStaff returns all STAFF accounts ordered by creation time.
func (s *UserService) ListStaff() ([]models.User, error) {
	return s.userRepo.ListStaff()
}

// Delete hard-deletes a user. Under the restrict policy the deletion is
// refused while farmer rows still reference the user; under detach those
// references are nullified first.
func (s *UserService) Delete(id uint) error {
	if _, err := s.userRepo.GetByID(id); err != nil {
		return err
	}

	referencing, err := s.farmerRepo.CountByUser(id)
	if err != nil {
		return err
	}
	if referencing > 0 {
		if s.deletePolicy == config.UserDeleteRestrict {
			return apperrors.ErrUserReferenced
		}
		if err := s.farmerRepo.DetachUser(id); err != nil {
			return err
		}
	}
	return s.userRepo.Delete(id)
}

// ToggleStatus flips IsActive. Deactivating the sole remaining active
// admin is rejected.
func (s *UserService) ToggleStatus(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if user.Role == models.RoleAdmin && user.IsActive {
		activeAdmins, err := s.userRepo.CountActiveAdmins()
		if err != nil {
			return nil, err
		}
		if activeAdmins <= 1 {
			return nil, apperrors.ErrLastAdmin
		}
	}

	user.IsActive = !user.IsActive
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// RequireActive returns the user and fails if the account is deactivated.
func (s *UserService) RequireActive(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrAuthRequired
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}
	return user, nil
}
