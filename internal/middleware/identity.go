package middleware

// identity.go holds the context keys shared by the auth, role, rate limit
// and logging middleware.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/student-task-portal/internal/model"
)

const (
	ctxIdentity = "identity"
	ctxToken    = "token"
	ctxUserID   = "user_id"
)

// SetIdentity attaches the resolved caller and its raw token to c.
func SetIdentity(c echo.Context, id *model.Identity, token string) {
	c.Set(ctxIdentity, id)
	c.Set(ctxToken, token)
	c.Set(ctxUserID, strconv.FormatUint(id.ID, 10))
}

// IdentityFrom returns the caller attached by TokenAuth.
func IdentityFrom(c echo.Context) (*model.Identity, bool) {
	id, ok := c.Get(ctxIdentity).(*model.Identity)
	return id, ok && id != nil
}

// TokenFrom returns the bearer token accepted by TokenAuth.
func TokenFrom(c echo.Context) string {
	s, _ := c.Get(ctxToken).(string)
	return s
}

// userID returns the caller id as a string, or "guest".
func userID(c echo.Context) string {
	if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
		return s
	}
	return "guest"
}
