package handlers

import (
	"log"

	"chaya/internal/apperrors"

	"github.com/gofiber/fiber/v2"
)

// handleError maps a service error to its HTTP response. Server-side
// failures are logged with the request route for correlation.
func handleError(c *fiber.Ctx, err error) error {
	status, body := apperrors.ToHTTP(err)
	if status >= fiber.StatusInternalServerError {
		log.Printf("Error handling %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(body)
}
