package services_test

import (
	"context"
	"testing"
	"time"

	"chaya/internal/apperrors"
	"chaya/internal/models"
	"chaya/internal/services"
	"chaya/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func exportFarmers(n int) []models.Farmer {
	farmers := make([]models.Farmer, n)
	for i := range farmers {
		farmers[i] = models.Farmer{
			ID:           uint(i + 1),
			SurveyNumber: "ABCD123456" + string(rune('0'+i)),
			Name:         "Farmer",
			DateOfBirth:  time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC),
		}
	}
	return farmers
}

func TestExportService_ExportCSV(t *testing.T) {
	mockRepo := new(MockFarmerRepository)
	store := storage.NewMemoryStore()
	publisher := new(MockPublisher)
	exportService := services.NewExportService(mockRepo, store, publisher)

	mockRepo.On("ListForExport", 0, 0).Return(exportFarmers(3), nil).Once()
	publisher.On("PublishEvent", "export.completed", mock.Anything).Return(nil).Once()

	result, err := exportService.Export(context.Background(), services.ExportOptions{
		Format: services.FormatCSV,
		Range:  services.RangeAll,
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, result.ExportedCount)
	assert.Contains(t, result.DownloadURL, "exports/farmers_")
	assert.Contains(t, result.DownloadURL, ".csv")
	assert.Equal(t, 1, store.Len())

	mockRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestExportService_RangeMath(t *testing.T) {
	mockRepo := new(MockFarmerRepository)
	store := storage.NewMemoryStore()
	exportService := services.NewExportService(mockRepo, store, nil)

	// CURRENT_PAGE: page 3 at 20 per page reads offset 40, limit 20
	mockRepo.On("ListForExport", 40, 20).Return(exportFarmers(2), nil).Once()
	result, err := exportService.Export(context.Background(), services.ExportOptions{
		Format:    services.FormatCSV,
		Range:     services.RangeCurrentPage,
		PageStart: 3,
		Limit:     20,
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, result.ExportedCount)

	// CUSTOM_RANGE: pages 2..4 at 10 per page reads offset 10, limit 30
	mockRepo.On("ListForExport", 10, 30).Return(exportFarmers(5), nil).Once()
	result, err = exportService.Export(context.Background(), services.ExportOptions{
		Format:    services.FormatCSV,
		Range:     services.RangeCustomRange,
		PageStart: 2,
		PageEnd:   4,
		Limit:     10,
	})
	assert.NoError(t, err)
	assert.Equal(t, 5, result.ExportedCount)

	mockRepo.AssertExpectations(t)
}

func TestExportService_Formats(t *testing.T) {
	extensions := map[string]string{
		services.FormatCSV:   ".csv",
		services.FormatExcel: ".xlsx",
		services.FormatPDF:   ".pdf",
	}
	for format, ext := range extensions {
		mockRepo := new(MockFarmerRepository)
		store := storage.NewMemoryStore()
		exportService := services.NewExportService(mockRepo, store, nil)

		mockRepo.On("ListForExport", 0, 0).Return(exportFarmers(1), nil).Once()

		result, err := exportService.Export(context.Background(), services.ExportOptions{
			Format: format,
			Range:  services.RangeAll,
		})
		assert.NoError(t, err, format)
		assert.Equal(t, 1, result.ExportedCount, format)
		assert.Contains(t, result.DownloadURL, ext, format)
	}
}

func TestExportService_InvalidOptions(t *testing.T) {
	exportService := services.NewExportService(new(MockFarmerRepository), storage.NewMemoryStore(), nil)

	_, err := exportService.Export(context.Background(), services.ExportOptions{
		Format: "XML",
		Range:  services.RangeAll,
	})
	var validationErr *apperrors.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestExportService_RepositoryFailure(t *testing.T) {
	mockRepo := new(MockFarmerRepository)
	exportService := services.NewExportService(mockRepo, storage.NewMemoryStore(), nil)

	mockRepo.On("ListForExport", 0, 0).Return(nil, assert.AnError).Once()

	_, err := exportService.Export(context.Background(), services.ExportOptions{
		Format: services.FormatCSV,
		Range:  services.RangeAll,
	})
	var exportErr *apperrors.ExportError
	assert.ErrorAs(t, err, &exportErr)
}
