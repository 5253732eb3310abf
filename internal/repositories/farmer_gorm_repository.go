package repositories

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"chaya/internal/apperrors"
	"chaya/internal/models"

	"gorm.io/gorm"
)

// GORMFarmerRepository is a GORM implementation of FarmerRepository.
type GORMFarmerRepository struct {
	db *gorm.DB
}

// NewGORMFarmerRepository creates a new instance of GORMFarmerRepository.
func NewGORMFarmerRepository(db *gorm.DB) *GORMFarmerRepository {
	return &GORMFarmerRepository{db: db}
}

// Create persists the farmer aggregate. GORM creates the owned documents,
// bank details and fields in the same transaction as the farmer row.
func (r *GORMFarmerRepository) Create(farmer *models.Farmer) error {
	if err := r.db.Create(farmer).Error; err != nil {
		if isUniqueViolation(err) {
			return &apperrors.DuplicateError{Field: "aadharNumber or surveyNumber"}
		}
		return fmt.Errorf("failed to create farmer: %w", err)
	}
	return nil
}

// GetByIdentifier resolves a numeric id or survey number to the aggregate.
func (r *GORMFarmerRepository) GetByIdentifier(identifier string) (*models.Farmer, error) {
	q := r.db.
		Preload("Documents").
		Preload("BankDetails").
		Preload("Fields", func(db *gorm.DB) *gorm.DB { return db.Order("fields.id ASC") }).
		Preload("CreatedBy").
		Preload("UpdatedBy")

	if id, err := strconv.ParseUint(identifier, 10, 64); err == nil {
		q = q.Where("survey_number = ? OR id = ?", identifier, uint(id))
	} else {
		q = q.Where("survey_number = ?", identifier)
	}

	var farmer models.Farmer
	if err := q.First(&farmer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get farmer %s: %w", identifier, err)
	}
	return &farmer, nil
}

// List returns one page of summaries plus the total matching count. Both
// queries share the same filter so the pair stays consistent short of a
// concurrent write between them.
func (r *GORMFarmerRepository) List(filter ListFilter) ([]FarmerSummary, int64, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	base := r.db.Model(&models.Farmer{})
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		contains := "%" + filter.Search + "%"
		base = base.Where(
			"LOWER(farmers.name) LIKE ? OR LOWER(farmers.survey_number) LIKE ? OR farmers.aadhar_number LIKE ? OR farmers.contact_number LIKE ?",
			like, like, contains, contains,
		)
	}
	if filter.State != "" {
		base = base.Where("farmers.state = ?", filter.State)
	}
	if filter.District != "" {
		base = base.Where("farmers.district = ?", filter.District)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count farmers: %w", err)
	}

	var summaries []FarmerSummary
	err := base.Session(&gorm.Session{}).
		Select("farmers.id, farmers.survey_number, farmers.name, farmers.aadhar_number, farmers.contact_number, farmers.state, farmers.district, farmers.village, farmers.created_at, users.name AS created_by_name").
		Joins("LEFT JOIN users ON users.id = farmers.created_by_id").
		Order("farmers.created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Scan(&summaries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list farmers: %w", err)
	}
	return summaries, total, nil
}

// ListForExport eager-loads farmer aggregates for the export service.
func (r *GORMFarmerRepository) ListForExport(offset, limit int) ([]models.Farmer, error) {
	q := r.db.
		Preload("Documents").
		Preload("BankDetails").
		Preload("Fields", func(db *gorm.DB) *gorm.DB { return db.Order("fields.id ASC") }).
		Preload("CreatedBy").
		Preload("UpdatedBy").
		Order("created_at DESC")
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var farmers []models.Farmer
	if err := q.Find(&farmers).Error; err != nil {
		return nil, fmt.Errorf("failed to load farmers for export: %w", err)
	}
	return farmers, nil
}

// Update saves the farmer row together with its documents and bank details.
// A non-nil replaceFields replaces the whole field set in the same
// transaction.
func (r *GORMFarmerRepository) Update(farmer *models.Farmer, replaceFields []models.Field) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(farmer)
		if res.Error != nil {
			if isUniqueViolation(res.Error) {
				return &apperrors.DuplicateError{Field: "aadharNumber or surveyNumber"}
			}
			return fmt.Errorf("failed to update farmer %d: %w", farmer.ID, res.Error)
		}
		if replaceFields != nil {
			if err := tx.Where("farmer_id = ?", farmer.ID).Delete(&models.Field{}).Error; err != nil {
				return fmt.Errorf("failed to clear fields for farmer %d: %w", farmer.ID, err)
			}
			for i := range replaceFields {
				replaceFields[i].ID = 0
				replaceFields[i].FarmerID = farmer.ID
			}
			if err := tx.Create(&replaceFields).Error; err != nil {
				return fmt.Errorf("failed to recreate fields for farmer %d: %w", farmer.ID, err)
			}
		}
		return nil
	})
}

// Delete removes the aggregate. Owned rows are deleted explicitly so the
// cascade does not depend on driver-level foreign key enforcement.
func (r *GORMFarmerRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("farmer_id = ?", id).Delete(&models.Field{}).Error; err != nil {
			return fmt.Errorf("failed to delete fields for farmer %d: %w", id, err)
		}
		if err := tx.Where("farmer_id = ?", id).Delete(&models.FarmerDocuments{}).Error; err != nil {
			return fmt.Errorf("failed to delete documents for farmer %d: %w", id, err)
		}
		if err := tx.Where("farmer_id = ?", id).Delete(&models.BankDetails{}).Error; err != nil {
			return fmt.Errorf("failed to delete bank details for farmer %d: %w", id, err)
		}
		res := tx.Delete(&models.Farmer{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete farmer %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}

// SurveyNumberExists probes for an existing survey number.
func (r *GORMFarmerRepository) SurveyNumberExists(surveyNumber string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Farmer{}).Where("survey_number = ?", surveyNumber).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check survey number %s: %w", surveyNumber, err)
	}
	return count > 0, nil
}

// Count returns the total number of farmer rows.
func (r *GORMFarmerRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Farmer{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count farmers: %w", err)
	}
	return count, nil
}

// CountByUser counts farmers referencing the user as creator or updater.
func (r *GORMFarmerRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Farmer{}).
		Where("created_by_id = ? OR updated_by_id = ?", userID, userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count farmers for user %d: %w", userID, err)
	}
	return count, nil
}

// DetachUser nullifies creator/updater references to the user.
func (r *GORMFarmerRepository) DetachUser(userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Farmer{}).Where("created_by_id = ?", userID).
			Update("created_by_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach creator references for user %d: %w", userID, err)
		}
		if err := tx.Model(&models.Farmer{}).Where("updated_by_id = ?", userID).
			Update("updated_by_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach updater references for user %d: %w", userID, err)
		}
		return nil
	})
}

// isUniqueViolation detects unique-constraint errors across the postgres
// and sqlite drivers without taking a dependency on driver error types.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(strings.ToUpper(msg), "UNIQUE")
}
