package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"chaya/internal/apperrors"
	"chaya/internal/models"
	"chaya/internal/repositories"
	"chaya/internal/storage"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

const (
	// maxFileSize caps every uploaded document at 5MB.
	maxFileSize = 5 * 1024 * 1024
	// surveyNumberAttempts bounds the generate-check-retry loop; the
	// unique index on survey_number is the real safety net.
	surveyNumberAttempts = 10
	// getSignedURLTTL is the lifetime of signed URLs on Get responses.
	getSignedURLTTL = time.Hour
	// documentURLTTL is the lifetime of single-document signed URLs.
	documentURLTTL = 30 * time.Minute
)

var (
	ifscPattern = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)

	allowedFileTypes = map[string]bool{
		"image/jpeg":      true,
		"image/png":       true,
		"application/pdf": true,
	}
)

// DocumentUpload is one uploaded file as received by a handler.
type DocumentUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     []byte
}

// CreateFarmerFiles holds the documents required to create a farmer.
// FieldDocs is index-aligned with the fields array of the payload.
type CreateFarmerFiles struct {
	ProfilePic *DocumentUpload
	AadharDoc  *DocumentUpload
	BankDoc    *DocumentUpload
	FieldDocs  []*DocumentUpload
}

// UpdateFarmerFiles holds optional replacement documents for an update.
// FieldDocs keys are indexes into the supplied fields array.
type UpdateFarmerFiles struct {
	ProfilePic *DocumentUpload
	AadharDoc  *DocumentUpload
	BankDoc    *DocumentUpload
	FieldDocs  map[int]*DocumentUpload
}

// LocationInput is the GPS fix supplied per field.
type LocationInput struct {
	Lat       float64  `json:"lat" validate:"min=-90,max=90"`
	Lng       float64  `json:"lng" validate:"min=-180,max=180"`
	Accuracy  float64  `json:"accuracy" validate:"gte=0"`
	Altitude  *float64 `json:"altitude"`
	Timestamp int64    `json:"timestamp"`
}

// FieldInput is one land field of the payload. LandDocumentURL is only
// meaningful on update, where it carries the filename to keep when no
// replacement file is supplied for that index.
type FieldInput struct {
	AreaHa          float64       `json:"areaHa" validate:"gte=0"`
	YieldEstimate   float64       `json:"yieldEstimate" validate:"gte=0"`
	Location        LocationInput `json:"location"`
	LandDocumentURL string        `json:"landDocumentUrl"`
}

// BankDetailsInput carries the bank fields of the payload.
type BankDetailsInput struct {
	IFSCCode      string `json:"ifscCode" validate:"required,ifsc"`
	AccountNumber string `json:"accountNumber" validate:"required,min=8"`
	BranchName    string `json:"branchName"`
	BankAddress   string `json:"bankAddress"`
	BankName      string `json:"bankName"`
	BankCode      string `json:"bankCode"`
}

// CreateFarmerInput is the full create payload.
type CreateFarmerInput struct {
	FarmerName    string           `json:"farmerName" validate:"required"`
	Relationship  string           `json:"relationship" validate:"required,oneof=SO DO WO"`
	Gender        string           `json:"gender" validate:"required,oneof=MALE FEMALE OTHER"`
	Community     string           `json:"community"`
	AadharNumber  string           `json:"aadharNumber" validate:"required,len=12,numeric"`
	ContactNumber string           `json:"contactNumber" validate:"required,len=10,numeric"`
	State         string           `json:"state"`
	District      string           `json:"district"`
	Mandal        string           `json:"mandal"`
	Village       string           `json:"village"`
	Panchayath    string           `json:"panchayath"`
	DateOfBirth   string           `json:"dateOfBirth" validate:"required"`
	Age           int              `json:"age" validate:"gte=0"`
	BankDetails   BankDetailsInput `json:"bankDetails"`
	Fields        []FieldInput     `json:"fields" validate:"min=1,dive"`
}

// UpdateFarmerInput is a partial payload: nil means "leave unchanged".
type UpdateFarmerInput struct {
	FarmerName    *string           `json:"farmerName"`
	Relationship  *string           `json:"relationship" validate:"omitempty,oneof=SO DO WO"`
	Gender        *string           `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	Community     *string           `json:"community"`
	AadharNumber  *string           `json:"aadharNumber" validate:"omitempty,len=12,numeric"`
	ContactNumber *string           `json:"contactNumber" validate:"omitempty,len=10,numeric"`
	State         *string           `json:"state"`
	District      *string           `json:"district"`
	Mandal        *string           `json:"mandal"`
	Village       *string           `json:"village"`
	Panchayath    *string           `json:"panchayath"`
	DateOfBirth   *string           `json:"dateOfBirth"`
	Age           *int              `json:"age" validate:"omitempty,gte=0"`
	BankDetails   *BankDetailsInput `json:"bankDetails"`
	Fields        []FieldInput      `json:"fields" validate:"omitempty,min=1,dive"`
}

// SignedDocuments decorates the stored filenames with signed URLs.
type SignedDocuments struct {
	models.FarmerDocuments
	ProfilePicSignedURL string `json:"profilePicSignedUrl,omitempty"`
	AadharDocSignedURL  string `json:"aadharDocSignedUrl,omitempty"`
	BankDocSignedURL    string `json:"bankDocSignedUrl,omitempty"`
}

// SignedField decorates a field with a signed land-document URL.
type SignedField struct {
	models.Field
	LandDocumentSignedURL string `json:"landDocumentSignedUrl,omitempty"`
}

// FarmerDetail is the Get response: the aggregate with signed URLs.
type FarmerDetail struct {
	models.Farmer
	Documents SignedDocuments `json:"documents"`
	Fields    []SignedField   `json:"fields"`
}

// Pagination is the list envelope metadata.
type Pagination struct {
	Total       int64 `json:"total"`
	Pages       int   `json:"pages"`
	CurrentPage int   `json:"currentPage"`
	Limit       int   `json:"limit"`
}

// FarmerPage is one page of list results.
type FarmerPage struct {
	Farmers    []repositories.FarmerSummary `json:"farmers"`
	Pagination Pagination                   `json:"pagination"`
}

// Published event types.
const (
	EventFarmerCreated = "farmer.created"
	EventFarmerUpdated = "farmer.updated"
	EventFarmerDeleted = "farmer.deleted"
)

// FarmerService handles the farmer record lifecycle: validation, document
// uploads, the aggregate write path and signed URL resolution.
type FarmerService struct {
	farmerRepo repositories.FarmerRepository
	store      storage.DocumentStore
	publisher  EventPublisher
	validate   *validator.Validate
}

// NewFarmerService creates a new FarmerService. publisher may be nil when
// no broker is configured.
func NewFarmerService(farmerRepo repositories.FarmerRepository, store storage.DocumentStore, publisher EventPublisher) *FarmerService {
	v := validator.New()
	_ = v.RegisterValidation("ifsc", func(fl validator.FieldLevel) bool {
		return ifscPattern.MatchString(fl.Field().String())
	})
	return &FarmerService{
		farmerRepo: farmerRepo,
		store:      store,
		publisher:  publisher,
		validate:   v,
	}
}

// Create validates the payload and documents, uploads everything, and only
// then persists the aggregate in one transaction. Nothing is written to
// the database before every upload has succeeded; a failed upload triggers
// compensating deletion of objects uploaded before it.
func (s *FarmerService) Create(ctx context.Context, input CreateFarmerInput, files CreateFarmerFiles, callerID uint) (*models.Farmer, error) {
	if err := s.validateStruct(input); err != nil {
		return nil, err
	}
	dob, err := parseDateOfBirth(input.DateOfBirth)
	if err != nil {
		return nil, err
	}

	if err := requireFile(files.ProfilePic, "profilePic"); err != nil {
		return nil, err
	}
	if err := requireFile(files.AadharDoc, "aadharDoc"); err != nil {
		return nil, err
	}
	if err := requireFile(files.BankDoc, "bankDoc"); err != nil {
		return nil, err
	}
	if len(files.FieldDocs) != len(input.Fields) {
		return nil, &apperrors.FileError{Detail: fmt.Sprintf("expected %d field documents, got %d", len(input.Fields), len(files.FieldDocs))}
	}
	for i, doc := range files.FieldDocs {
		if err := requireFile(doc, fmt.Sprintf("fieldDoc_%d", i)); err != nil {
			return nil, err
		}
	}

	surveyNumber, err := s.generateSurveyNumber()
	if err != nil {
		return nil, err
	}

	jobs := []struct {
		category string
		upload   *DocumentUpload
	}{
		{storage.CategoryProfilePic, files.ProfilePic},
		{storage.CategoryAadharDoc, files.AadharDoc},
		{storage.CategoryBankDoc, files.BankDoc},
	}
	for _, doc := range files.FieldDocs {
		jobs = append(jobs, struct {
			category string
			upload   *DocumentUpload
		}{storage.CategoryLandDoc, doc})
	}

	names := make([]string, len(jobs))
	for i, job := range jobs {
		names[i] = objectName(surveyNumber, job.upload.Filename)
	}

	var (
		mu       sync.Mutex
		uploaded []string
	)
	g, gctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		path := storage.ObjectPath(job.category, names[i])
		upload := job.upload
		g.Go(func() error {
			err := s.store.Upload(gctx, path, bytes.NewReader(upload.Content), upload.Size, upload.ContentType)
			if err != nil {
				return &apperrors.StorageError{Op: "upload", Err: err}
			}
			mu.Lock()
			uploaded = append(uploaded, path)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.removeBestEffort(ctx, uploaded)
		return nil, err
	}

	farmer := &models.Farmer{
		SurveyNumber:  surveyNumber,
		Name:          input.FarmerName,
		Relationship:  input.Relationship,
		Gender:        input.Gender,
		Community:     input.Community,
		AadharNumber:  input.AadharNumber,
		ContactNumber: input.ContactNumber,
		State:         input.State,
		District:      input.District,
		Mandal:        input.Mandal,
		Village:       input.Village,
		Panchayath:    input.Panchayath,
		DateOfBirth:   dob,
		Age:           input.Age,
		Documents: models.FarmerDocuments{
			ProfilePicURL: names[0],
			AadharDocURL:  names[1],
			BankDocURL:    names[2],
		},
		BankDetails: models.BankDetails{
			AccountNumber: input.BankDetails.AccountNumber,
			IFSCCode:      input.BankDetails.IFSCCode,
			BranchName:    input.BankDetails.BranchName,
			Address:       input.BankDetails.BankAddress,
			BankName:      input.BankDetails.BankName,
			BankCode:      input.BankDetails.BankCode,
		},
		CreatedByID: &callerID,
		UpdatedByID: &callerID,
	}
	for i, fi := range input.Fields {
		farmer.Fields = append(farmer.Fields, models.Field{
			AreaHa:        fi.AreaHa,
			YieldEstimate: fi.YieldEstimate,
			Location: models.Location{
				Lat:       fi.Location.Lat,
				Lng:       fi.Location.Lng,
				Accuracy:  fi.Location.Accuracy,
				Altitude:  fi.Location.Altitude,
				Timestamp: fi.Location.Timestamp,
			},
			LandDocumentURL: names[3+i],
		})
	}

	if err := s.farmerRepo.Create(farmer); err != nil {
		// The aggregate never made it to the database, so the objects
		// just uploaded would be orphans.
		s.removeBestEffort(ctx, uploaded)
		return nil, err
	}

	s.publish(EventFarmerCreated, map[string]interface{}{
		"farmerId":     farmer.ID,
		"surveyNumber": farmer.SurveyNumber,
	})
	return farmer, nil
}

// List returns one page of farmer summaries plus pagination metadata.
func (s *FarmerService) List(filter repositories.ListFilter) (*FarmerPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 10
	}

	summaries, total, err := s.farmerRepo.List(filter)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []repositories.FarmerSummary{}
	}
	return &FarmerPage{
		Farmers: summaries,
		Pagination: Pagination{
			Total:       total,
			Pages:       int(math.Ceil(float64(total) / float64(filter.Limit))),
			CurrentPage: filter.Page,
			Limit:       filter.Limit,
		},
	}, nil
}

// Get resolves an id or survey number to the aggregate with 1-hour signed
// URLs for every document.
func (s *FarmerService) Get(ctx context.Context, identifier string) (*FarmerDetail, error) {
	farmer, err := s.farmerRepo.GetByIdentifier(identifier)
	if err != nil {
		return nil, err
	}

	detail := &FarmerDetail{
		Farmer:    *farmer,
		Documents: SignedDocuments{FarmerDocuments: farmer.Documents},
	}

	sign := func(category, filename string) (string, error) {
		if filename == "" {
			return "", nil
		}
		url, err := s.store.SignedURL(ctx, storage.ObjectPath(category, filename), getSignedURLTTL)
		if err != nil {
			return "", &apperrors.StorageError{Op: "sign", Err: err}
		}
		return url, nil
	}

	if detail.Documents.ProfilePicSignedURL, err = sign(storage.CategoryProfilePic, farmer.Documents.ProfilePicURL); err != nil {
		return nil, err
	}
	if detail.Documents.AadharDocSignedURL, err = sign(storage.CategoryAadharDoc, farmer.Documents.AadharDocURL); err != nil {
		return nil, err
	}
	if detail.Documents.BankDocSignedURL, err = sign(storage.CategoryBankDoc, farmer.Documents.BankDocURL); err != nil {
		return nil, err
	}
	for _, field := range farmer.Fields {
		url, err := sign(storage.CategoryLandDoc, field.LandDocumentURL)
		if err != nil {
			return nil, err
		}
		detail.Fields = append(detail.Fields, SignedField{Field: field, LandDocumentSignedURL: url})
	}
	return detail, nil
}

// Update applies a partial payload. Replacement files delete the old
// object best-effort before uploading; a supplied fields array replaces
// the whole field set. The survey number never changes.
func (s *FarmerService) Update(ctx context.Context, identifier string, input UpdateFarmerInput, files UpdateFarmerFiles, callerID uint) (*models.Farmer, error) {
	farmer, err := s.farmerRepo.GetByIdentifier(identifier)
	if err != nil {
		return nil, err
	}
	if err := s.validateStruct(input); err != nil {
		return nil, err
	}

	// Validate every supplied file before touching stored objects.
	for slot, doc := range map[string]*DocumentUpload{
		"profilePic": files.ProfilePic,
		"aadharDoc":  files.AadharDoc,
		"bankDoc":    files.BankDoc,
	} {
		if doc != nil {
			if err := checkFile(doc, slot); err != nil {
				return nil, err
			}
		}
	}
	for i, doc := range files.FieldDocs {
		if doc != nil {
			if err := checkFile(doc, fmt.Sprintf("fieldDoc_%d", i)); err != nil {
				return nil, err
			}
		}
		if input.Fields == nil || i < 0 || i >= len(input.Fields) {
			return nil, &apperrors.FileError{Detail: fmt.Sprintf("fieldDoc_%d has no matching field entry", i)}
		}
	}

	applyString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	applyString(&farmer.Name, input.FarmerName)
	applyString(&farmer.Relationship, input.Relationship)
	applyString(&farmer.Gender, input.Gender)
	applyString(&farmer.Community, input.Community)
	applyString(&farmer.AadharNumber, input.AadharNumber)
	applyString(&farmer.ContactNumber, input.ContactNumber)
	applyString(&farmer.State, input.State)
	applyString(&farmer.District, input.District)
	applyString(&farmer.Mandal, input.Mandal)
	applyString(&farmer.Village, input.Village)
	applyString(&farmer.Panchayath, input.Panchayath)
	if input.DateOfBirth != nil {
		dob, err := parseDateOfBirth(*input.DateOfBirth)
		if err != nil {
			return nil, err
		}
		farmer.DateOfBirth = dob
	}
	if input.Age != nil {
		farmer.Age = *input.Age
	}
	if input.BankDetails != nil {
		farmer.BankDetails.AccountNumber = input.BankDetails.AccountNumber
		farmer.BankDetails.IFSCCode = input.BankDetails.IFSCCode
		farmer.BankDetails.BranchName = input.BankDetails.BranchName
		farmer.BankDetails.Address = input.BankDetails.BankAddress
		farmer.BankDetails.BankName = input.BankDetails.BankName
		farmer.BankDetails.BankCode = input.BankDetails.BankCode
	}

	// Replace document slots concurrently. Old objects go first,
	// best-effort; upload failures abort the update.
	g, gctx := errgroup.WithContext(ctx)
	replaceSlot := func(dst *string, category string, doc *DocumentUpload) {
		if doc == nil {
			return
		}
		oldName := *dst
		newName := objectName(farmer.SurveyNumber, doc.Filename)
		g.Go(func() error {
			if oldName != "" {
				if err := s.store.Remove(gctx, storage.ObjectPath(category, oldName)); err != nil {
					log.Printf("failed to delete old %s object %s: %v", category, oldName, err)
				}
			}
			if err := s.store.Upload(gctx, storage.ObjectPath(category, newName), bytes.NewReader(doc.Content), doc.Size, doc.ContentType); err != nil {
				return &apperrors.StorageError{Op: "upload", Err: err}
			}
			return nil
		})
		*dst = newName
	}
	replaceSlot(&farmer.Documents.ProfilePicURL, storage.CategoryProfilePic, files.ProfilePic)
	replaceSlot(&farmer.Documents.AadharDocURL, storage.CategoryAadharDoc, files.AadharDoc)
	replaceSlot(&farmer.Documents.BankDocURL, storage.CategoryBankDoc, files.BankDoc)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// A supplied fields array replaces the whole set; per-index files
	// replace the land document carried in the payload.
	var newFields []models.Field
	if input.Fields != nil {
		newFields = make([]models.Field, len(input.Fields))
		fg, fctx := errgroup.WithContext(ctx)
		for i, fi := range input.Fields {
			landName := fi.LandDocumentURL
			if doc := files.FieldDocs[i]; doc != nil {
				oldName := fi.LandDocumentURL
				landName = objectName(farmer.SurveyNumber, doc.Filename)
				upload := doc
				newName := landName
				fg.Go(func() error {
					if oldName != "" {
						if err := s.store.Remove(fctx, storage.ObjectPath(storage.CategoryLandDoc, oldName)); err != nil {
							log.Printf("failed to delete old land document %s: %v", oldName, err)
						}
					}
					if err := s.store.Upload(fctx, storage.ObjectPath(storage.CategoryLandDoc, newName), bytes.NewReader(upload.Content), upload.Size, upload.ContentType); err != nil {
						return &apperrors.StorageError{Op: "upload", Err: err}
					}
					return nil
				})
			}
			newFields[i] = models.Field{
				AreaHa:        fi.AreaHa,
				YieldEstimate: fi.YieldEstimate,
				Location: models.Location{
					Lat:       fi.Location.Lat,
					Lng:       fi.Location.Lng,
					Accuracy:  fi.Location.Accuracy,
					Altitude:  fi.Location.Altitude,
					Timestamp: fi.Location.Timestamp,
				},
				LandDocumentURL: landName,
			}
		}
		if err := fg.Wait(); err != nil {
			return nil, err
		}
	}

	farmer.UpdatedByID = &callerID
	farmer.Fields = nil
	farmer.CreatedBy = nil
	farmer.UpdatedBy = nil
	if err := s.farmerRepo.Update(farmer, newFields); err != nil {
		return nil, err
	}

	s.publish(EventFarmerUpdated, map[string]interface{}{
		"farmerId":     farmer.ID,
		"surveyNumber": farmer.SurveyNumber,
	})
	return farmer, nil
}

// Delete removes stored documents best-effort, then deletes the aggregate.
func (s *FarmerService) Delete(ctx context.Context, identifier string) error {
	farmer, err := s.farmerRepo.GetByIdentifier(identifier)
	if err != nil {
		return err
	}

	var paths []string
	appendPath := func(category, filename string) {
		if filename != "" {
			paths = append(paths, storage.ObjectPath(category, filename))
		}
	}
	appendPath(storage.CategoryProfilePic, farmer.Documents.ProfilePicURL)
	appendPath(storage.CategoryAadharDoc, farmer.Documents.AadharDocURL)
	appendPath(storage.CategoryBankDoc, farmer.Documents.BankDocURL)
	for _, field := range farmer.Fields {
		appendPath(storage.CategoryLandDoc, field.LandDocumentURL)
	}
	s.removeBestEffort(ctx, paths)

	if err := s.farmerRepo.Delete(farmer.ID); err != nil {
		return err
	}

	s.publish(EventFarmerDeleted, map[string]interface{}{
		"farmerId":     farmer.ID,
		"surveyNumber": farmer.SurveyNumber,
	})
	return nil
}

// DocumentURL resolves one document slot to a 30-minute signed URL.
// docType is one of profile-pic, aadhar, bank, land; land uses fieldIndex.
func (s *FarmerService) DocumentURL(ctx context.Context, identifier, docType string, fieldIndex int) (string, error) {
	farmer, err := s.farmerRepo.GetByIdentifier(identifier)
	if err != nil {
		return "", err
	}

	var category, filename string
	switch docType {
	case "profile-pic":
		category, filename = storage.CategoryProfilePic, farmer.Documents.ProfilePicURL
	case "aadhar":
		category, filename = storage.CategoryAadharDoc, farmer.Documents.AadharDocURL
	case "bank":
		category, filename = storage.CategoryBankDoc, farmer.Documents.BankDocURL
	case "land":
		if fieldIndex < 0 || fieldIndex >= len(farmer.Fields) {
			return "", apperrors.ErrNotFound
		}
		category, filename = storage.CategoryLandDoc, farmer.Fields[fieldIndex].LandDocumentURL
	default:
		return "", &apperrors.ValidationError{Fields: []apperrors.FieldError{
			{Field: "type", Message: "invalid document type"},
		}}
	}
	if filename == "" {
		return "", apperrors.ErrNotFound
	}

	url, err := s.store.SignedURL(ctx, storage.ObjectPath(category, filename), documentURLTTL)
	if err != nil {
		return "", &apperrors.StorageError{Op: "sign", Err: err}
	}
	return url, nil
}

// generateSurveyNumber allocates a unique survey number by generating and
// probing, bounded by surveyNumberAttempts.
func (s *FarmerService) generateSurveyNumber() (string, error) {
	for i := 0; i < surveyNumberAttempts; i++ {
		candidate := randomSurveyNumber()
		exists, err := s.farmerRepo.SurveyNumberExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique survey number after %d attempts", surveyNumberAttempts)
}

// randomSurveyNumber produces a 4-letter 7-digit code.
func randomSurveyNumber() string {
	var b strings.Builder
	for i := 0; i < 4; i++ {
		b.WriteByte(byte('A' + rand.Intn(26)))
	}
	fmt.Fprintf(&b, "%07d", rand.Intn(10000000))
	return b.String()
}

// objectName synthesizes a stored filename traceable to the owning farmer.
func objectName(surveyNumber, originalName string) string {
	return fmt.Sprintf("%s_%d%s", surveyNumber, time.Now().UnixNano(), filepath.Ext(originalName))
}

func (s *FarmerService) removeBestEffort(ctx context.Context, paths []string) {
	if len(paths) == 0 {
		return
	}
	if err := s.store.Remove(ctx, paths...); err != nil {
		log.Printf("failed to remove stored objects %v: %v", paths, err)
	}
}

func (s *FarmerService) publish(eventType string, payload map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(eventType, payload); err != nil {
		log.Printf("failed to publish %s event: %v", eventType, err)
	}
}

// validateStruct runs the validator and converts its output to the
// itemized ValidationError taxonomy.
func (s *FarmerService) validateStruct(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := make([]apperrors.FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		path := e.Namespace()
		if i := strings.Index(path, "."); i >= 0 {
			path = path[i+1:]
		}
		fields = append(fields, apperrors.FieldError{
			Field:   path,
			Message: fmt.Sprintf("failed on the '%s' rule", e.Tag()),
		})
	}
	return &apperrors.ValidationError{Fields: fields}
}

func parseDateOfBirth(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &apperrors.ValidationError{Fields: []apperrors.FieldError{
		{Field: "dateOfBirth", Message: "must be a date in YYYY-MM-DD format"},
	}}
}

// requireFile checks presence plus size/type constraints.
func requireFile(doc *DocumentUpload, slot string) error {
	if doc == nil {
		return &apperrors.FileError{Detail: fmt.Sprintf("%s document is required", slot)}
	}
	return checkFile(doc, slot)
}

// checkFile enforces the 5MB cap and the jpeg/png/pdf allow-list.
func checkFile(doc *DocumentUpload, slot string) error {
	if doc.Size > maxFileSize {
		return &apperrors.FileError{Detail: fmt.Sprintf("%s file size must be less than 5MB", slot)}
	}
	contentType := doc.ContentType
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	if !allowedFileTypes[strings.TrimSpace(strings.ToLower(contentType))] {
		return &apperrors.FileError{Detail: fmt.Sprintf("%s file must be JPG, PNG, or PDF", slot)}
	}
	return nil
}
