package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestRequireStaff(t *testing.T) {
	cases := []struct {
		name   string
		userID interface{}
		role   interface{}
		want   int
	}{
		{"admin", uint(1), "admin", fiber.StatusOK},
		{"teacher with padding", uint(2), " Teacher ", fiber.StatusOK},
		{"student", uint(3), "student", fiber.StatusForbidden},
		{"unknown role", uint(4), "parent", fiber.StatusForbidden},
		{"no role", uint(5), nil, fiber.StatusForbidden},
		{"anonymous", nil, "admin", fiber.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(func(c *fiber.Ctx) error {
				if tc.userID != nil {
					c.Locals("user_id", tc.userID)
				}
				if tc.role != nil {
					c.Locals("user_role", tc.role)
				}
				return c.Next()
			})
			app.Use(RequireStaff())
			app.Get("/activity", func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/activity", nil))
			require.NoError(t, err)
			require.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

type stringerRole string

func (r stringerRole) String() string { return string(r) }

func TestNormalizeRoleValue(t *testing.T) {
	require.Equal(t, "teacher", normalizeRoleValue(" TEACHER "))
	require.Equal(t, "admin", normalizeRoleValue(stringerRole("Admin")))
	require.Equal(t, "7", normalizeRoleValue(7))
	require.Equal(t, "", normalizeRoleValue(nil))
}
