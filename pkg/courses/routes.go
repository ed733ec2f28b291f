package courses

import (
	"github.com/labstack/echo/v4"
	"github.com/prog-daiki/codeDot-backend/pkg/auth"
	"github.com/prog-daiki/codeDot-backend/pkg/cache"
	"github.com/prog-daiki/codeDot-backend/pkg/categories"
	"github.com/prog-daiki/codeDot-backend/pkg/videoassets"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers course routes on a group that already
// authenticates the caller.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware, host videoassets.Host, c cache.Cache) {
	h := &handler{
		courseService:   NewService(db, videoassets.NewService(db, host), c),
		categoryService: categories.NewService(db),
	}

	g.GET("/publish", h.listPublished)
	g.GET("/publish/:id", h.retrievePublished)

	admin := authMiddleware.RequireAdmin
	g.GET("", h.listAdmin, admin)
	g.POST("", h.create, admin)
	g.GET("/:id", h.retrieve, admin)
	g.DELETE("/:id", h.delete, admin)
	g.PUT("/:id/title", h.updateTitle, admin)
	g.PUT("/:id/description", h.updateDescription, admin)
	g.PUT("/:id/thumbnail", h.updateThumbnail, admin)
	g.PUT("/:id/price", h.updatePrice, admin)
	g.PUT("/:id/category", h.updateCategory, admin)
	g.PUT("/:id/source_url", h.updateSourceURL, admin)
	g.PUT("/:id/publish", h.publish, admin)
	g.PUT("/:id/unpublish", h.unpublish, admin)
}
