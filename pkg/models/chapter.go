package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Chapter struct {
	bun.BaseModel `bun:"table:chapters,alias:ch"`

	ID          string    `bun:",pk" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CourseID    string    `bun:",notnull" json:"course_id"`
	Title       string    `bun:",notnull" json:"title"`
	Description *string   `json:"description"`
	VideoURL    *string   `json:"video_url"`
	Position    int       `bun:",notnull" json:"position"` // 1-based, dense within a course
	PublishFlag bool      `bun:",notnull" json:"publish_flag"`

	// Relations
	Course  *Course  `bun:"rel:belongs-to,join:course_id=id" json:"-"`
	MuxData *MuxData `bun:"rel:has-one,join:id=chapter_id" json:"mux_data,omitempty"`
}
