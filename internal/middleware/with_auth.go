package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-lms-api/internal/utils"
)

// Auth role requirements accepted by WithAuth.
const (
	AuthRoleAny     = "any"
	AuthRoleStaff   = "staff"
	AuthRoleStudent = RoleStudent
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	Role        string
	RequireUser bool
}

// WithAuth wraps a single route handler with identity and role guards. Staff covers
// teachers and admins, the roles allowed to grade.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := strings.ToLower(strings.TrimSpace(opts.Role))
	if role == "" {
		role = AuthRoleAny
	}

	requireUser := opts.RequireUser || role != AuthRoleAny

	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id")
		if requireUser && userID == nil {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		if role == AuthRoleAny {
			return handler(c)
		}

		currentRole := normalizeRoleValue(c.Locals("user_role"))
		allowed := false
		switch role {
		case AuthRoleStaff:
			allowed = IsStaffRole(currentRole)
		default:
			allowed = currentRole == role
		}
		if !allowed {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", fiber.Map{"required": role})
		}

		return handler(c)
	}
}

// IsStaffRole reports whether role may grade and manage assignments.
func IsStaffRole(role string) bool {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleTeacher, RoleAdmin:
		return true
	default:
		return false
	}
}
