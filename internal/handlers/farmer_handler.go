package handlers

import (
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"strconv"
	"strings"

	"chaya/internal/apperrors"
	"chaya/internal/middleware"
	"chaya/internal/repositories"
	"chaya/internal/services"

	"github.com/gofiber/fiber/v2"
)

// FarmerHandler handles HTTP requests for farmer records.
type FarmerHandler struct {
	farmerService *services.FarmerService
}

// NewFarmerHandler creates a new FarmerHandler.
func NewFarmerHandler(farmerService *services.FarmerService) *FarmerHandler {
	return &FarmerHandler{farmerService: farmerService}
}

// RegisterRoutes registers the read and create routes, available to any
// authenticated user.
func (h *FarmerHandler) RegisterRoutes(router fiber.Router) {
	farmerRoutes := router.Group("/farmers")
	farmerRoutes.Get("/", h.HandleList)
	farmerRoutes.Get("/:identifier", h.HandleGet)
	farmerRoutes.Post("/", h.HandleCreate)
}

// RegisterAdminRoutes registers the mutation routes that are restricted to
// admins.
func (h *FarmerHandler) RegisterAdminRoutes(router fiber.Router) {
	farmerRoutes := router.Group("/farmers")
	farmerRoutes.Put("/:identifier", h.HandleUpdate)
	farmerRoutes.Delete("/:identifier", h.HandleDelete)
}

// HandleCreate creates a farmer record from a multipart form carrying the
// scalar fields, the fields JSON array and the document uploads.
func (h *FarmerHandler) HandleCreate(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		log.Printf("Error parsing create farmer form: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(apperrors.Response{
			Error: "expected a multipart form",
		})
	}

	input := services.CreateFarmerInput{
		FarmerName:    c.FormValue("farmerName"),
		Relationship:  c.FormValue("relationship"),
		Gender:        c.FormValue("gender"),
		Community:     c.FormValue("community"),
		AadharNumber:  c.FormValue("aadharNumber"),
		ContactNumber: c.FormValue("contactNumber"),
		State:         c.FormValue("state"),
		District:      c.FormValue("district"),
		Mandal:        c.FormValue("mandal"),
		Village:       c.FormValue("village"),
		Panchayath:    c.FormValue("panchayath"),
		DateOfBirth:   c.FormValue("dateOfBirth"),
		BankDetails: services.BankDetailsInput{
			IFSCCode:      c.FormValue("ifscCode"),
			AccountNumber: c.FormValue("accountNumber"),
			BranchName:    c.FormValue("branchName"),
			BankAddress:   c.FormValue("bankAddress"),
			BankName:      c.FormValue("bankName"),
			BankCode:      c.FormValue("bankCode"),
		},
	}
	if age := c.FormValue("age"); age != "" {
		n, err := strconv.Atoi(age)
		if err != nil {
			return handleError(c, &apperrors.ValidationError{Fields: []apperrors.FieldError{
				{Field: "age", Message: "must be a number"},
			}})
		}
		input.Age = n
	}
	if raw := c.FormValue("fields"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input.Fields); err != nil {
			return handleError(c, &apperrors.ValidationError{Fields: []apperrors.FieldError{
				{Field: "fields", Message: "must be a JSON array"},
			}})
		}
	}

	files := services.CreateFarmerFiles{
		FieldDocs: make([]*services.DocumentUpload, len(input.Fields)),
	}
	if files.ProfilePic, err = readUpload(form, "profilePic"); err != nil {
		return handleError(c, err)
	}
	if files.AadharDoc, err = readUpload(form, "aadharDoc"); err != nil {
		return handleError(c, err)
	}
	if files.BankDoc, err = readUpload(form, "bankDoc"); err != nil {
		return handleError(c, err)
	}
	for i := range input.Fields {
		doc, err := readUpload(form, "fieldDoc_"+strconv.Itoa(i))
		if err != nil {
			return handleError(c, err)
		}
		files.FieldDocs[i] = doc
	}

	farmer, err := h.farmerService.Create(c.Context(), input, files, middleware.CallerID(c))
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Farmer created successfully",
		"farmer":  farmer,
	})
}

// HandleList returns one page of farmer summaries.
func (h *FarmerHandler) HandleList(c *fiber.Ctx) error {
	filter := repositories.ListFilter{
		Search:   c.Query("search"),
		State:    c.Query("state"),
		District: c.Query("district"),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 10),
	}
	page, err := h.farmerService.List(filter)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(page)
}

// HandleGet returns a single farmer with signed document URLs. The
// identifier is a survey number or a numeric ID.
func (h *FarmerHandler) HandleGet(c *fiber.Ctx) error {
	detail, err := h.farmerService.Get(c.Context(), c.Params("identifier"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"farmer": detail})
}

// HandleUpdate applies a partial update from a multipart form. Only the
// supplied form values and files are touched.
func (h *FarmerHandler) HandleUpdate(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		log.Printf("Error parsing update farmer form: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(apperrors.Response{
			Error: "expected a multipart form",
		})
	}

	input := services.UpdateFarmerInput{
		FarmerName:    formString(form, "farmerName"),
		Relationship:  formString(form, "relationship"),
		Gender:        formString(form, "gender"),
		Community:     formString(form, "community"),
		AadharNumber:  formString(form, "aadharNumber"),
		ContactNumber: formString(form, "contactNumber"),
		State:         formString(form, "state"),
		District:      formString(form, "district"),
		Mandal:        formString(form, "mandal"),
		Village:       formString(form, "village"),
		Panchayath:    formString(form, "panchayath"),
		DateOfBirth:   formString(form, "dateOfBirth"),
	}
	if raw := formString(form, "age"); raw != nil {
		n, err := strconv.Atoi(*raw)
		if err != nil {
			return handleError(c, &apperrors.ValidationError{Fields: []apperrors.FieldError{
				{Field: "age", Message: "must be a number"},
			}})
		}
		input.Age = &n
	}
	if bank := formBankDetails(form); bank != nil {
		input.BankDetails = bank
	}
	if raw := formString(form, "fields"); raw != nil {
		if err := json.Unmarshal([]byte(*raw), &input.Fields); err != nil {
			return handleError(c, &apperrors.ValidationError{Fields: []apperrors.FieldError{
				{Field: "fields", Message: "must be a JSON array"},
			}})
		}
	}

	files := services.UpdateFarmerFiles{
		FieldDocs: make(map[int]*services.DocumentUpload),
	}
	if files.ProfilePic, err = readUpload(form, "profilePic"); err != nil {
		return handleError(c, err)
	}
	if files.AadharDoc, err = readUpload(form, "aadharDoc"); err != nil {
		return handleError(c, err)
	}
	if files.BankDoc, err = readUpload(form, "bankDoc"); err != nil {
		return handleError(c, err)
	}
	for key := range form.File {
		if !strings.HasPrefix(key, "fieldDoc_") {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimPrefix(key, "fieldDoc_"))
		if err != nil {
			continue
		}
		doc, err := readUpload(form, key)
		if err != nil {
			return handleError(c, err)
		}
		files.FieldDocs[idx] = doc
	}

	farmer, err := h.farmerService.Update(c.Context(), c.Params("identifier"), input, files, middleware.CallerID(c))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Farmer updated successfully",
		"farmer":  farmer,
	})
}

// HandleDelete removes a farmer record and its stored documents.
func (h *FarmerHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.farmerService.Delete(c.Context(), c.Params("identifier")); err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Farmer deleted successfully"})
}

// readUpload loads the named file part into memory. A missing part is not
// an error here; required documents are enforced by the service.
func readUpload(form *multipart.Form, key string) (*services.DocumentUpload, error) {
	headers := form.File[key]
	if len(headers) == 0 {
		return nil, nil
	}
	header := headers[0]
	f, err := header.Open()
	if err != nil {
		return nil, &apperrors.FileError{Detail: "could not read uploaded file " + header.Filename}
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, &apperrors.FileError{Detail: "could not read uploaded file " + header.Filename}
	}
	return &services.DocumentUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     content,
	}, nil
}

// formString returns the first value for key, or nil when the form did not
// carry the key at all. Distinguishing absent from empty is what makes
// partial updates possible.
func formString(form *multipart.Form, key string) *string {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

func formBankDetails(form *multipart.Form) *services.BankDetailsInput {
	keys := []string{"ifscCode", "accountNumber", "branchName", "bankAddress", "bankName", "bankCode"}
	present := false
	for _, key := range keys {
		if _, ok := form.Value[key]; ok {
			present = true
			break
		}
	}
	if !present {
		return nil
	}
	bank := &services.BankDetailsInput{
		IFSCCode:      firstValue(form, "ifscCode"),
		AccountNumber: firstValue(form, "accountNumber"),
		BranchName:    firstValue(form, "branchName"),
		BankAddress:   firstValue(form, "bankAddress"),
		BankName:      firstValue(form, "bankName"),
		BankCode:      firstValue(form, "bankCode"),
	}
	return bank
}

func firstValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}
