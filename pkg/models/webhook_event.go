package models

import (
	"time"

	"github.com/uptrace/bun"
)

// WebhookEvent records every processed payment event so that redeliveries
// are acknowledged without running their side effects again.
type WebhookEvent struct {
	bun.BaseModel `bun:"table:webhook_events,alias:we"`

	EventID     string    `bun:",pk" json:"event_id"`
	Type        string    `bun:",notnull" json:"type"`
	ProcessedAt time.Time `bun:",notnull" json:"processed_at"`
}
