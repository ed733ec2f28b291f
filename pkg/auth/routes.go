package auth

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers the auth routes and returns the middleware the
// rest of the API is guarded with.
func RegisterRoutes(e *echo.Echo, authService *Service, adminUserID string) *Middleware {
	authMiddleware := NewMiddleware(authService, adminUserID)

	h := &handler{}

	g := e.Group("/auth")
	g.GET("/me", h.me, authMiddleware.Authenticate)

	return authMiddleware
}
