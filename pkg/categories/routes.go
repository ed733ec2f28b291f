package categories

import (
	"github.com/labstack/echo/v4"
	"github.com/prog-daiki/codeDot-backend/pkg/auth"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers category routes. The group is expected
// to already authenticate; listing is open to any user, everything else
// requires the admin.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) {
	h := &handler{
		categoryService: NewService(db),
	}

	admin := []echo.MiddlewareFunc{authMiddleware.RequireAdmin}

	g.GET("", h.list)
	g.POST("", h.create, admin...)
	g.PUT("/:id", h.update, admin...)
	g.DELETE("/:id", h.delete, admin...)
}
