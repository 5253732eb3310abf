package repositories

import (
	"time"

	"chaya/internal/models"
)

// ListFilter narrows and pages the farmer list.
type ListFilter struct {
	Search   string // case-insensitive across name/surveyNumber/aadhar/contact
	State    string // exact match
	District string // exact match
	Page     int
	Limit    int
}

// FarmerSummary is the lightweight projection returned by List; no document
// or bank detail blobs.
type FarmerSummary struct {
	ID            uint      `json:"id"`
	SurveyNumber  string    `json:"surveyNumber"`
	Name          string    `json:"name"`
	AadharNumber  string    `json:"aadharNumber"`
	ContactNumber string    `json:"contactNumber"`
	State         string    `json:"state"`
	District      string    `json:"district"`
	Village       string    `json:"village"`
	CreatedAt     time.Time `json:"createdAt"`
	CreatedByName string    `json:"createdByName"`
}

// FarmerRepository defines the interface for farmer aggregate data access.
type FarmerRepository interface {
	// Create persists the whole aggregate (documents, bank details,
	// fields) in one transaction.
	Create(farmer *models.Farmer) error
	// GetByIdentifier resolves a numeric id or a survey number to the
	// fully-loaded aggregate.
	GetByIdentifier(identifier string) (*models.Farmer, error)
	// List returns one page of summaries plus the total count, both
	// computed by a single repository call.
	List(filter ListFilter) ([]FarmerSummary, int64, error)
	// ListForExport eager-loads aggregates ordered by creation time
	// descending. limit <= 0 means no limit.
	ListForExport(offset, limit int) ([]models.Farmer, error)
	// Update saves the farmer and its owned documents/bank details.
	// When replaceFields is non-nil the field set is deleted and
	// recreated, not merged.
	Update(farmer *models.Farmer, replaceFields []models.Field) error
	Delete(id uint) error
	SurveyNumberExists(surveyNumber string) (bool, error)
	Count() (int64, error)
	// CountByUser counts farmers that reference the user as creator or
	// last updater.
	CountByUser(userID uint) (int64, error)
	// DetachUser nullifies creator/updater references to the user.
	DetachUser(userID uint) error
}
