package joblogs

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/errcodes"
	"github.com/prog-daiki/codeDot-backend/pkg/jobs"
	"github.com/prog-daiki/codeDot-backend/pkg/models"
)

type handler struct {
	jobLogService *Service
	jobService    *jobs.Service
}

// AssetHistory is everything the queue knows about one video asset's
// cleanup.
type AssetHistory struct {
	AssetID string           `json:"asset_id"`
	Pending bool             `json:"pending"`
	Jobs    []*models.Job    `json:"jobs"`
	Logs    []*models.JobLog `json:"logs"`
}

func (h *handler) listForJob(c echo.Context) error {
	ctx := c.Request().Context()

	jobID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Job")
	}

	job, err := h.jobService.RetrieveJob(ctx, jobs.RetrieveJobOptions{ID: &jobID})
	if err != nil {
		return errors.WithStack(err)
	}

	params := ListJobLogsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	logs, err := h.jobLogService.ListJobLogs(ctx, ListJobLogsOptions{
		JobID:   &jobID,
		AfterID: params.AfterID,
		Levels:  params.Level,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Job  *models.Job      `json:"job"`
		Logs []*models.JobLog `json:"logs"`
	}{job, logs}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

// listForAsset answers "why is this video still on the host": every cleanup
// job queued for the asset and the lines they logged.
func (h *handler) listForAsset(c echo.Context) error {
	ctx := c.Request().Context()
	assetID := c.Param("asset_id")

	params := ListAssetLogsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	assetJobs, err := h.jobService.ListJobs(ctx, jobs.ListJobsOptions{AssetID: &assetID})
	if err != nil {
		return errors.WithStack(err)
	}
	if len(assetJobs) == 0 {
		return errcodes.NotFound("Asset cleanup")
	}

	logs, err := h.jobLogService.ListJobLogs(ctx, ListJobLogsOptions{
		AssetID: &assetID,
		AfterID: params.AfterID,
		Levels:  params.Level,
		Limit:   &params.Limit,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	history := &AssetHistory{AssetID: assetID, Jobs: assetJobs, Logs: logs}
	for _, job := range assetJobs {
		if job.Status == models.JobStatusPending || job.Status == models.JobStatusInProgress {
			history.Pending = true
		}
	}

	return errors.WithStack(c.JSON(http.StatusOK, history))
}
