// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/pawhaven/pet-adoption-api/internal/handler"
	"github.com/pawhaven/pet-adoption-api/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication:
// the health check used by load balancers, the welcome banner at the
// root and static serving of uploaded pet photos.
func RegisterRoutes(e *echo.Echo, uploadDir, photoBaseURL string) {
	e.GET("/healthz", handler.Health)
	e.GET("/", handler.Welcome)
	// Photos are written to uploadDir and referenced by URL under
	// photoBaseURL in catalog responses.
	e.Static(photoBaseURL, uploadDir)
}

// RegisterAuth registers the authentication endpoints. Register, login
// and refresh live under /api/auth and require no session; /api/auth/me
// and /api/auth/logout require a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token: the presented token is
	// revoked and a new pair is issued.
	g.POST("/refresh", a.Refresh)

	auth := e.Group("/api/auth", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	// Logout revokes every refresh token the caller holds.
	auth.GET("/logout", a.Logout)
}
