package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/student-task-portal/internal/model"
	"github.com/iliyamo/student-task-portal/internal/service"
)

// TokenResolver turns a bearer token into the identity of its owner.
type TokenResolver interface {
	ResolveToken(ctx context.Context, raw string) (*model.Identity, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header.  It returns "" when the header is missing or malformed.
func BearerToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

// TokenAuth rejects requests without a usable session token and attaches
// the caller identity to the context otherwise.
//
//	no token                    401 Access token required
//	bad signature / malformed   403 Invalid token
//	expired or revoked session  401 Invalid or expired token
//	owner gone                  401 User not found
func TokenAuth(resolver TokenResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := BearerToken(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Access token required"})
			}
			id, err := resolver.ResolveToken(c.Request().Context(), raw)
			switch {
			case err == nil:
			case errors.Is(err, service.ErrTokenInvalid):
				return c.JSON(http.StatusForbidden, echo.Map{"error": "Invalid token"})
			case errors.Is(err, service.ErrSessionInvalid):
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid or expired token"})
			case errors.Is(err, service.ErrUserNotFound):
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "User not found"})
			default:
				return err
			}
			SetIdentity(c, id, raw)
			return next(c)
		}
	}
}
