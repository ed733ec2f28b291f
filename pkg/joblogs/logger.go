package joblogs

import (
	"context"
	"runtime/debug"

	"github.com/prog-daiki/codeDot-backend/pkg/models"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
)

const maxDataValueLen = 1024

// JobLogger writes to the process log and keeps a copy on the job, tagged
// with the video asset the job is about.
type JobLogger struct {
	jobID   int
	assetID *string
	service *Service
	log     logger.Logger
	ctx     context.Context
}

func (svc *Service) NewJobLogger(ctx context.Context, job *models.Job, log logger.Logger) *JobLogger {
	l := &JobLogger{
		jobID:   job.ID,
		service: svc,
		log:     log,
		ctx:     ctx,
	}
	if data, ok := job.DataParsed.(*models.JobAssetCleanupData); ok && data.AssetID != "" {
		assetID := data.AssetID
		l.assetID = &assetID
	}
	return l
}

func (l *JobLogger) Info(msg string, data logger.Data) {
	l.log.Info(msg, data)
	l.persist(models.JobLogLevelInfo, msg, data, nil)
}

// Warn records a failed attempt that will be retried.
func (l *JobLogger) Warn(msg string, err error, data logger.Data) {
	l.log.Err(err).Warn(msg, data)
	l.persist(models.JobLogLevelWarn, msg, withError(data, err), nil)
}

// Error records a failure that needs an admin, with the stack it happened on.
func (l *JobLogger) Error(msg string, err error, data logger.Data) {
	l.log.Err(err).Error(msg, data)
	stack := string(debug.Stack())
	l.persist(models.JobLogLevelError, msg, withError(data, err), &stack)
}

func withError(data logger.Data, err error) logger.Data {
	out := logger.Data{}
	for k, v := range data {
		out[k] = v
	}
	if err != nil {
		out["error"] = err.Error()
	}
	return out
}

func (l *JobLogger) persist(level, msg string, data logger.Data, stackTrace *string) {
	var dataStr *string
	if len(data) > 0 {
		truncated := make(logger.Data, len(data))
		for k, v := range data {
			if s, ok := v.(string); ok && len(s) > maxDataValueLen {
				truncated[k] = truncateMiddle(s, maxDataValueLen)
			} else {
				truncated[k] = v
			}
		}
		if b, err := json.Marshal(truncated); err == nil {
			s := string(b)
			dataStr = &s
		}
	}

	jobLog := &models.JobLog{
		JobID:      l.jobID,
		AssetID:    l.assetID,
		Level:      level,
		Message:    msg,
		Data:       dataStr,
		StackTrace: stackTrace,
	}

	// Best effort.
	if err := l.service.CreateJobLog(l.ctx, jobLog); err != nil {
		l.log.Err(err).Warn("failed to persist job log")
	}
}

func truncateMiddle(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	half := (maxLen - 5) / 2
	return s[:half] + " ... " + s[len(s)-half:]
}
