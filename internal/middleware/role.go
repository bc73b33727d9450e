package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/student-task-portal/internal/model"
)

// Authorize returns a gate that lets the request through only when the
// caller's role is in roles, answering 403 with msg otherwise.  It must
// run after TokenAuth; a request without an identity is rejected with 401.
func Authorize(msg string, roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
			}
			if !allowed[id.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": msg})
			}
			return next(c)
		}
	}
}

// RequireRole is Authorize with the generic message.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return Authorize("Insufficient permissions", roles...)
}

func AdminOnly() echo.MiddlewareFunc   { return RequireRole(model.RoleAdmin) }
func StudentOnly() echo.MiddlewareFunc { return RequireRole(model.RoleStudent) }
func AnyRole() echo.MiddlewareFunc     { return RequireRole(model.RoleAdmin, model.RoleStudent) }
