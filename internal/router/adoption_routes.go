package router

import (
	"github.com/labstack/echo/v4"

	"github.com/pawhaven/pet-adoption-api/internal/handler"
	"github.com/pawhaven/pet-adoption-api/internal/middleware"
	"github.com/pawhaven/pet-adoption-api/internal/model"
)

// RegisterAdoptions registers the adoption request lifecycle endpoints.
// Every route requires a valid JWT; finer-grained ownership and role
// checks live in the policy package and are enforced per handler, so
// only the strictly admin endpoints carry RequireRole here.
func RegisterAdoptions(e *echo.Echo, h *handler.AdoptionHandler, jwtSecret string) {
	g := e.Group("/api/adoptions", middleware.JWTAuth(jwtSecret))

	g.POST("", h.Create)
	g.GET("", h.List)
	// History must precede /:id so "history" is not parsed as an id.
	g.GET("/history", h.History)
	g.GET("/:id", h.Get)
	// Approve, reject or cancel. Role and ownership rules depend on
	// the requested status, so authorization happens in the handler.
	g.PUT("/:id/status", h.UpdateStatus)

	admin := e.Group(
		"/api/adoptions",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	admin.GET("/pet/:petId", h.ByPet)
	admin.DELETE("/:id", h.Delete)
}
