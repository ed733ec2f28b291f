package joblogs

import (
	"github.com/labstack/echo/v4"
	"github.com/prog-daiki/codeDot-backend/pkg/jobs"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers the job log views on the admin jobs group.
func RegisterRoutes(jobsGroup *echo.Group, db *bun.DB) {
	h := &handler{
		jobLogService: NewService(db),
		jobService:    jobs.NewService(db),
	}

	jobsGroup.GET("/:id/logs", h.listForJob)
	jobsGroup.GET("/assets/:asset_id/logs", h.listForAsset)
}
