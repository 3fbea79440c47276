package router

import (
	"github.com/labstack/echo/v4"

	"github.com/pawhaven/pet-adoption-api/internal/handler"
	"github.com/pawhaven/pet-adoption-api/internal/middleware"
	"github.com/pawhaven/pet-adoption-api/internal/model"
)

// RegisterUsers registers the user management endpoints. Listing and
// deleting are admin only; reading, updating and changing the password
// are allowed to the account owner as well, enforced in the handlers.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler, jwtSecret string) {
	g := e.Group("/api/users", middleware.JWTAuth(jwtSecret))

	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.PUT("/:id/password", h.ChangePassword)

	admin := e.Group(
		"/api/users",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	admin.GET("", h.List)
	admin.DELETE("/:id", h.Delete)
}
