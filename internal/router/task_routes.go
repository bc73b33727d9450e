package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/student-task-portal/internal/handler"
	"github.com/iliyamo/student-task-portal/internal/middleware"
	"github.com/iliyamo/student-task-portal/internal/model"
)

// RegisterTasks registers the CRUD routes of one task kind under
// /<plural>.  The rate limiter runs first, then token auth, then the
// role gate of each route.
func RegisterTasks(api *echo.Group, h *handler.TaskHandler, tokens middleware.TokenResolver, limiter echo.MiddlewareFunc) {
	kind := h.Tasks.Kind()
	g := api.Group("/"+kind.Plural(), limiter, middleware.TokenAuth(tokens))

	// ---- reads: both roles, visibility applied by the service ----
	g.GET("", h.List, middleware.AnyRole())
	g.GET("/:id", h.Get, middleware.AnyRole())

	// ---- writes: admins only ----
	g.POST("", h.Create, middleware.AdminOnly())
	g.PUT("/:id", h.Update, middleware.Authorize(handler.UpdateDeniedMessage(kind), model.RoleAdmin))
	g.DELETE("/:id", h.Delete, middleware.AdminOnly())
}
