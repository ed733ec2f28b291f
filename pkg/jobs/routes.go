package jobs

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers the admin view over the background
// job queue. The group is expected to already require an admin.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{
		jobService: NewService(db),
	}

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
}
