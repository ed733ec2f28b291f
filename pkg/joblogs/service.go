package joblogs

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/models"
	"github.com/uptrace/bun"
)

// ListJobLogsOptions filters log lines. JobID and AssetID may be combined;
// at least one of them should be set.
type ListJobLogsOptions struct {
	JobID   *int
	AssetID *string
	AfterID *int
	Levels  []string
	Limit   *int
}

type Service struct {
	db bun.IDB
}

func NewService(db bun.IDB) *Service {
	return &Service{db}
}

func (svc *Service) CreateJobLog(ctx context.Context, jobLog *models.JobLog) error {
	if jobLog.CreatedAt.IsZero() {
		jobLog.CreatedAt = time.Now()
	}

	_, err := svc.db.
		NewInsert().
		Model(jobLog).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

// ListJobLogs returns log lines oldest first. AfterID lets an admin poll
// for lines that were written since the last call.
func (svc *Service) ListJobLogs(ctx context.Context, opts ListJobLogsOptions) ([]*models.JobLog, error) {
	logs := []*models.JobLog{}

	q := svc.db.
		NewSelect().
		Model(&logs).
		Order("jl.id ASC")

	if opts.JobID != nil {
		q = q.Where("jl.job_id = ?", *opts.JobID)
	}
	if opts.AssetID != nil {
		q = q.Where("jl.asset_id = ?", *opts.AssetID)
	}
	if opts.AfterID != nil {
		q = q.Where("jl.id > ?", *opts.AfterID)
	}
	if len(opts.Levels) > 0 {
		q = q.Where("jl.level IN (?)", bun.In(opts.Levels))
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	return logs, nil
}
