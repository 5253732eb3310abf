package handlers

import (
	"log"

	"chaya/internal/apperrors"
	"chaya/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ExportHandler handles HTTP requests for data exports.
type ExportHandler struct {
	exportService *services.ExportService
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(exportService *services.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// RegisterRoutes registers the export route. The caller is expected to
// mount it behind the admin middleware.
func (h *ExportHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/export/farmers", h.HandleExport)
}

// ExportRequest represents the request body for an export.
type ExportRequest struct {
	Options services.ExportOptions `json:"options"`
}

// HandleExport builds an export artifact and returns its signed URL.
func (h *ExportHandler) HandleExport(c *fiber.Ctx) error {
	var req ExportRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing export request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(apperrors.Response{
			Error: "invalid request body",
		})
	}

	result, err := h.exportService.Export(c.Context(), req.Options)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(result)
}
