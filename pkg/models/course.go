package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Course struct {
	bun.BaseModel `bun:"table:courses,alias:c"`

	ID          string    `bun:",pk" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Title       string    `bun:",notnull" json:"title"`
	Description *string   `json:"description"`
	ImageURL    *string   `json:"image_url"`
	Price       *int      `json:"price"`
	SourceURL   *string   `json:"source_url"`
	PublishFlag bool      `bun:",notnull" json:"publish_flag"`
	CategoryID  *string   `json:"category_id"`

	// Relations
	Category *Category `bun:"rel:belongs-to,join:category_id=id" json:"category,omitempty"`
	Chapters []*Chapter `bun:"rel:has-many,join:id=course_id" json:"chapters,omitempty"`
}

// IsFree reports whether the course has an explicit price of zero. A course
// without a price is not free, it is unpriced.
func (c *Course) IsFree() bool {
	return c.Price != nil && *c.Price == 0
}
