// Package router wires HTTP routes to their handlers and attaches the
// authentication and role middleware each group needs.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ssaraswat/campus-services/internal/handler"
	"github.com/ssaraswat/campus-services/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints.  Register, login
// and refresh live under /v1/auth and need no session; /v1/me requires a
// valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole("STUDENT", "ADMIN"))
	auth.GET("/me", a.Me)

	// Logout is also reachable outside /v1/auth so clients holding only a
	// refresh token can end their session.
	e.POST("/v1/logout", a.Logout)
}
