package models

import "github.com/uptrace/bun"

// MuxData links a chapter to its externally hosted video asset.
type MuxData struct {
	bun.BaseModel `bun:"table:mux_data,alias:md"`

	ID         string  `bun:",pk" json:"id"`
	AssetID    string  `bun:",notnull" json:"asset_id"`
	PlaybackID *string `json:"playback_id"`
	ChapterID  string  `bun:",notnull" json:"chapter_id"`
}
