package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"chaya/internal/apperrors"
	"chaya/internal/export"
	"chaya/internal/models"
	"chaya/internal/repositories"
	"chaya/internal/storage"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

// Export formats and ranges.
const (
	FormatCSV   = "CSV"
	FormatExcel = "EXCEL"
	FormatPDF   = "PDF"

	RangeAll         = "ALL"
	RangeCurrentPage = "CURRENT_PAGE"
	RangeCustomRange = "CUSTOM_RANGE"
)

const (
	// exportDocURLTTL is the lifetime of the document links embedded in
	// export artifacts.
	exportDocURLTTL = 7 * 24 * time.Hour
	// exportArtifactTTL is the lifetime of the download link returned to
	// the caller.
	exportArtifactTTL = 24 * time.Hour
)

// EventExportCompleted is published after a successful export.
const EventExportCompleted = "export.completed"

// ExportOptions selects the format and the slice of farmers to export.
type ExportOptions struct {
	Format    string `json:"format" validate:"required,oneof=CSV EXCEL PDF"`
	Range     string `json:"range" validate:"required,oneof=ALL CURRENT_PAGE CUSTOM_RANGE"`
	PageStart int    `json:"pageStart" validate:"omitempty,min=1"`
	PageEnd   int    `json:"pageEnd" validate:"omitempty,min=1"`
	Limit     int    `json:"limit" validate:"omitempty,min=1"`
}

// ExportResult is the successful export response.
type ExportResult struct {
	DownloadURL   string `json:"downloadUrl"`
	ExportedCount int    `json:"exportedCount"`
}

// ExportService bulk-reads farmer aggregates, resolves signed document
// URLs, encodes the result and stores it as a download artifact.
type ExportService struct {
	farmerRepo repositories.FarmerRepository
	store      storage.DocumentStore
	publisher  EventPublisher
	validate   *validator.Validate
}

// NewExportService creates a new ExportService. publisher may be nil.
func NewExportService(farmerRepo repositories.FarmerRepository, store storage.DocumentStore, publisher EventPublisher) *ExportService {
	return &ExportService{
		farmerRepo: farmerRepo,
		store:      store,
		publisher:  publisher,
		validate:   validator.New(),
	}
}

// Export runs the full pipeline. Any stage failure surfaces as a single
// ExportError and leaves no artifact reachable.
func (s *ExportService) Export(ctx context.Context, opts ExportOptions) (*ExportResult, error) {
	if err := s.validate.Struct(opts); err != nil {
		return nil, &apperrors.ValidationError{Fields: []apperrors.FieldError{
			{Field: "options", Message: "format must be CSV, EXCEL or PDF and range must be ALL, CURRENT_PAGE or CUSTOM_RANGE"},
		}}
	}

	offset, limit := resolveRange(opts)
	farmers, err := s.farmerRepo.ListForExport(offset, limit)
	if err != nil {
		return nil, &apperrors.ExportError{Err: err}
	}

	rows, err := s.buildRows(ctx, farmers)
	if err != nil {
		return nil, &apperrors.ExportError{Err: err}
	}

	var (
		artifact []byte
		ext      string
		mimeType string
	)
	switch opts.Format {
	case FormatPDF:
		artifact, err = export.PDF(rows)
		ext, mimeType = "pdf", "application/pdf"
	case FormatExcel:
		artifact, err = export.Excel(rows)
		ext, mimeType = "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		artifact, err = export.CSV(rows)
		ext, mimeType = "csv", "text/csv"
	}
	if err != nil {
		return nil, &apperrors.ExportError{Err: err}
	}

	name := fmt.Sprintf("farmers_%d.%s", time.Now().UnixMilli(), ext)
	path := storage.ObjectPath(storage.ExportPrefix, name)
	if err := s.store.Upload(ctx, path, bytes.NewReader(artifact), int64(len(artifact)), mimeType); err != nil {
		return nil, &apperrors.ExportError{Err: err}
	}

	downloadURL, err := s.store.SignedURL(ctx, path, exportArtifactTTL)
	if err != nil {
		return nil, &apperrors.ExportError{Err: err}
	}

	if s.publisher != nil {
		if pubErr := s.publisher.PublishEvent(EventExportCompleted, map[string]interface{}{
			"artifact":      path,
			"format":        opts.Format,
			"exportedCount": len(farmers),
		}); pubErr != nil {
			log.Printf("failed to publish %s event: %v", EventExportCompleted, pubErr)
		}
	}

	return &ExportResult{
		DownloadURL:   downloadURL,
		ExportedCount: len(farmers),
	}, nil
}

// resolveRange turns the range options into offset/limit. ALL exports
// everything; page math matches the list endpoint's pagination.
func resolveRange(opts ExportOptions) (offset, limit int) {
	pageSize := opts.Limit
	if pageSize < 1 {
		pageSize = 10
	}
	switch opts.Range {
	case RangeCurrentPage:
		return (opts.PageStart - 1) * pageSize, pageSize
	case RangeCustomRange:
		return (opts.PageStart - 1) * pageSize, (opts.PageEnd - opts.PageStart + 1) * pageSize
	default:
		return 0, 0
	}
}

// buildRows flattens the aggregates and signs every document URL for seven
// days, fanning the signing out per farmer.
func (s *ExportService) buildRows(ctx context.Context, farmers []models.Farmer) ([]export.Row, error) {
	rows := make([]export.Row, len(farmers))
	g, gctx := errgroup.WithContext(ctx)

	for i, farmer := range farmers {
		i, farmer := i, farmer
		g.Go(func() error {
			row, err := s.buildRow(gctx, farmer)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ExportService) buildRow(ctx context.Context, farmer models.Farmer) (export.Row, error) {
	sign := func(category, filename string) (string, error) {
		if filename == "" {
			return "", nil
		}
		return s.store.SignedURL(ctx, storage.ObjectPath(category, filename), exportDocURLTTL)
	}

	profileURL, err := sign(storage.CategoryProfilePic, farmer.Documents.ProfilePicURL)
	if err != nil {
		return export.Row{}, err
	}
	aadharURL, err := sign(storage.CategoryAadharDoc, farmer.Documents.AadharDocURL)
	if err != nil {
		return export.Row{}, err
	}
	bankURL, err := sign(storage.CategoryBankDoc, farmer.Documents.BankDocURL)
	if err != nil {
		return export.Row{}, err
	}

	fields := make([]export.FieldRow, 0, len(farmer.Fields))
	for _, field := range farmer.Fields {
		landURL, err := sign(storage.CategoryLandDoc, field.LandDocumentURL)
		if err != nil {
			return export.Row{}, err
		}
		location := fmt.Sprintf("lat=%g lng=%g accuracy=%g", field.Location.Lat, field.Location.Lng, field.Location.Accuracy)
		fields = append(fields, export.FieldRow{
			AreaHa:        field.AreaHa,
			YieldEstimate: field.YieldEstimate,
			Location:      location,
			LandDocURL:    landURL,
		})
	}

	row := export.Row{
		SurveyNumber:  farmer.SurveyNumber,
		Name:          farmer.Name,
		Gender:        farmer.Gender,
		Community:     farmer.Community,
		AadharNumber:  farmer.AadharNumber,
		ContactNumber: farmer.ContactNumber,
		State:         farmer.State,
		District:      farmer.District,
		Mandal:        farmer.Mandal,
		Village:       farmer.Village,
		Panchayath:    farmer.Panchayath,
		DateOfBirth:   farmer.DateOfBirth.Format("2006-01-02"),
		Age:           farmer.Age,
		ProfilePicURL: profileURL,
		AadharDocURL:  aadharURL,
		BankDocURL:    bankURL,
		Bank: export.BankRow{
			IFSC:          farmer.BankDetails.IFSCCode,
			AccountNumber: farmer.BankDetails.AccountNumber,
			BankName:      farmer.BankDetails.BankName,
			BranchName:    farmer.BankDetails.BranchName,
		},
		Fields:    fields,
		CreatedAt: farmer.CreatedAt.Format(time.RFC3339),
		UpdatedAt: farmer.UpdatedAt.Format(time.RFC3339),
	}
	if farmer.CreatedBy != nil {
		row.CreatedBy = farmer.CreatedBy.Name
	}
	if farmer.UpdatedBy != nil {
		row.UpdatedBy = farmer.UpdatedBy.Name
	}
	return row, nil
}
