// Package testutils provides test-only API endpoints and test helpers.
// The routes are only registered when ENVIRONMENT=test.
package testutils

import (
	"github.com/labstack/echo/v4"
	"github.com/prog-daiki/codeDot-backend/pkg/auth"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers test-only routes.
// These endpoints should ONLY be registered in test environments.
func RegisterRoutes(e *echo.Echo, db *bun.DB, authService *auth.Service, adminUserID string) {
	h := &handler{
		db:          db,
		authService: authService,
		adminUserID: adminUserID,
	}

	test := e.Group("/test")
	test.POST("/tokens", h.createToken)
	test.DELETE("/data", h.deleteAllData)
}
