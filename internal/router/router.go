// Package router registers the HTTP routes of the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/student-task-portal/internal/handler"
	"github.com/iliyamo/student-task-portal/internal/metrics"
	"github.com/iliyamo/student-task-portal/internal/middleware"
)

// APIPrefix is prepended to every route.
const APIPrefix = "/api"

// RegisterRoutes registers the unauthenticated routes: health and, when
// enabled, the Prometheus scrape endpoint.  It returns the /api group the
// other registrars hang off.
func RegisterRoutes(e *echo.Echo, withMetrics bool) *echo.Group {
	api := e.Group(APIPrefix)
	api.GET("/health", handler.Health)
	if withMetrics {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	}
	return api
}

// RegisterAuth registers /auth.  Login and student registration are
// public; everything else needs a session, and register-admin an admin.
func RegisterAuth(api *echo.Group, a *handler.AuthHandler, tokens middleware.TokenResolver) {
	g := api.Group("/auth")
	g.POST("/login", a.Login)
	g.POST("/register-student", a.RegisterStudent)

	auth := middleware.TokenAuth(tokens)
	g.POST("/logout", a.Logout, auth)
	g.GET("/profile", a.Profile, auth)
	g.PUT("/profile", a.UpdateProfile, auth)
	g.PUT("/change-password", a.ChangePassword, auth)
	g.POST("/register-admin", a.RegisterAdmin, auth, middleware.AdminOnly())
}
