package router

import (
	"github.com/labstack/echo/v4"

	"github.com/pawhaven/pet-adoption-api/internal/handler"
	"github.com/pawhaven/pet-adoption-api/internal/middleware"
	"github.com/pawhaven/pet-adoption-api/internal/model"
)

// RegisterPets registers the pet catalog endpoints. Browsing is public;
// every mutation requires a valid JWT with the admin role. When cacheMW
// is non-nil it is applied to the public read endpoints so repeated
// catalog queries are served from Redis.
func RegisterPets(e *echo.Echo, h *handler.PetHandler, jwtSecret string, cacheMW echo.MiddlewareFunc) {
	pub := e.Group("/api/pets")
	if cacheMW != nil {
		pub.Use(cacheMW)
	}
	pub.GET("", h.List)
	pub.GET("/:id", h.Get)

	admin := e.Group(
		"/api/pets",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	admin.POST("", h.Create)
	admin.PUT("/:id", h.Update)
	admin.DELETE("/:id", h.Delete)
	// Manual status override outside the adoption lifecycle.
	admin.PUT("/:id/status", h.SetStatus)
}
