package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	JobLogLevelInfo  = "info"
	JobLogLevelWarn  = "warn"
	JobLogLevelError = "error"
)

// JobLog is one line of a job's history, kept so an admin can see why a
// cleanup job is still retrying.
type JobLog struct {
	bun.BaseModel `bun:"table:job_logs,alias:jl"`

	ID         int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	JobID      int       `bun:",notnull" json:"job_id"`
	AssetID    *string   `json:"asset_id,omitempty"`
	Level      string    `bun:",notnull" json:"level"`
	Message    string    `bun:",notnull" json:"message"`
	Data       *string   `json:"data,omitempty"`
	StackTrace *string   `json:"stack_trace,omitempty"`
}
