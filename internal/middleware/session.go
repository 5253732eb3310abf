package middleware

import (
	"chaya/internal/apperrors"
	"chaya/internal/models"
	"chaya/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Locals keys for the caller identity injected by SessionRequired. The
// identity lives in request-scoped locals, never in client-settable
// headers, so downstream handlers cannot be spoofed.
const (
	LocalsUserID   = "user_id"
	LocalsUserRole = "user_role"
)

// SessionRequired validates the session cookie and injects the caller
// identity for downstream handlers. Missing or expired sessions get 401.
func SessionRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(services.SessionCookieName)
		if raw == "" {
			return unauthorized(c)
		}
		session, err := authService.ValidateSession(raw)
		if err != nil {
			return unauthorized(c)
		}
		c.Locals(LocalsUserID, session.UserID)
		c.Locals(LocalsUserRole, session.Role)
		return c.Next()
	}
}

// AdminRequired rejects callers whose role is not ADMIN. It must run after
// SessionRequired.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CallerRole(c) != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(apperrors.Response{
				Error: apperrors.ErrForbidden.Error(),
			})
		}
		return c.Next()
	}
}

// ActiveRequired rejects callers whose account has been deactivated since
// their session was issued. It must run after SessionRequired.
func ActiveRequired(userService *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := userService.RequireActive(CallerID(c)); err != nil {
			status, body := apperrors.ToHTTP(err)
			return c.Status(status).JSON(body)
		}
		return c.Next()
	}
}

// CallerID returns the authenticated caller's user ID.
func CallerID(c *fiber.Ctx) uint {
	if id, ok := c.Locals(LocalsUserID).(uint); ok {
		return id
	}
	return 0
}

// CallerRole returns the authenticated caller's role.
func CallerRole(c *fiber.Ctx) string {
	if role, ok := c.Locals(LocalsUserRole).(string); ok {
		return role
	}
	return ""
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(apperrors.Response{
		Error: apperrors.ErrAuthRequired.Error(),
	})
}
