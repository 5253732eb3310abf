package handlers

import (
	"log"
	"strconv"

	"chaya/internal/apperrors"
	"chaya/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// UserHandler handles HTTP requests for staff user administration.
type UserHandler struct {
	userService *services.UserService
	validate    *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the user administration routes. The caller is
// expected to mount these behind the admin middleware.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/", h.HandleListStaff)
	userRoutes.Post("/", h.HandleCreateStaff)
	userRoutes.Delete("/:id", h.HandleDeleteStaff)
	userRoutes.Patch("/:id/toggle-status", h.HandleToggleStatus)
}

// CreateStaffRequest represents the request body for staff creation.
type CreateStaffRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

// HandleListStaff lists all staff accounts.
func (h *UserHandler) HandleListStaff(c *fiber.Ctx) error {
	users, err := h.userService.ListStaff()
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"users": users})
}

// HandleCreateStaff creates a new staff account.
func (h *UserHandler) HandleCreateStaff(c *fiber.Ctx) error {
	var req CreateStaffRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create staff request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(apperrors.Response{
			Error: "invalid request body",
		})
	}

	if err := h.validate.Struct(req); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		fields := make([]apperrors.FieldError, 0, len(validationErrors))
		for _, e := range validationErrors {
			fields = append(fields, apperrors.FieldError{
				Field:   e.Field(),
				Message: "failed on the '" + e.Tag() + "' rule",
			})
		}
		return handleError(c, &apperrors.ValidationError{Fields: fields})
	}

	user, err := h.userService.CreateStaff(req.Email, req.Password, req.Name)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"user":    user,
	})
}

// HandleDeleteStaff deletes a staff account.
func (h *UserHandler) HandleDeleteStaff(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(apperrors.Response{
			Error: "invalid user id",
		})
	}
	if err := h.userService.Delete(uint(id)); err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

// HandleToggleStatus flips a user's active flag.
func (h *UserHandler) HandleToggleStatus(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(apperrors.Response{
			Error: "invalid user id",
		})
	}
	user, err := h.userService.ToggleStatus(uint(id))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "User status updated",
		"user":    user,
	})
}
