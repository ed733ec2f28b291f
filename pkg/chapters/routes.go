package chapters

import (
	"github.com/labstack/echo/v4"
	"github.com/prog-daiki/codeDot-backend/pkg/auth"
	"github.com/prog-daiki/codeDot-backend/pkg/cache"
	"github.com/prog-daiki/codeDot-backend/pkg/courses"
	"github.com/prog-daiki/codeDot-backend/pkg/videoassets"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers chapter routes under
// /courses/:course_id/chapters. Every route requires the admin.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware, host videoassets.Host, c cache.Cache) {
	assets := videoassets.NewService(db, host)
	h := &handler{
		chapterService: NewService(db, courses.NewService(db, assets, c), assets),
	}

	admin := authMiddleware.RequireAdmin
	g.GET("", h.list, admin)
	g.POST("", h.create, admin)
	g.PUT("/reorder", h.reorder, admin)
	g.GET("/:id", h.retrieve, admin)
	g.DELETE("/:id", h.delete, admin)
	g.PUT("/:id/title", h.updateTitle, admin)
	g.PUT("/:id/description", h.updateDescription, admin)
	g.PUT("/:id/video", h.updateVideo, admin)
	g.PUT("/:id/publish", h.publish, admin)
	g.PUT("/:id/unpublish", h.unpublish, admin)
}
