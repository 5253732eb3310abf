package handlers

import (
	"chaya/internal/services"

	"github.com/gofiber/fiber/v2"
)

// DocumentHandler handles HTTP requests for single-document signed URLs.
type DocumentHandler struct {
	farmerService *services.FarmerService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(farmerService *services.FarmerService) *DocumentHandler {
	return &DocumentHandler{farmerService: farmerService}
}

// RegisterRoutes registers the document URL route.
func (h *DocumentHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/documents/:type/:identifier/url", h.HandleDocumentURL)
}

// HandleDocumentURL returns a short-lived signed URL for one stored
// document. For land documents the fieldIndex query selects the field.
func (h *DocumentHandler) HandleDocumentURL(c *fiber.Ctx) error {
	url, err := h.farmerService.DocumentURL(
		c.Context(),
		c.Params("identifier"),
		c.Params("type"),
		c.QueryInt("fieldIndex", 0),
	)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}
