package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/quickdesk/quickdesk/pkg/util"
)

// RequireAgent ensures the caller may triage and resolve tickets.
func RequireAgent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !user.CanManageTickets() {
			return apperrors.NewPermissionDenied("agent role required")
		}
		return c.Next()
	}
}

// RequireAdmin ensures the caller holds the admin role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !user.CanAdministrate() {
			return apperrors.NewPermissionDenied("admin role required")
		}
		return c.Next()
	}
}
