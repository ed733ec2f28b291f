package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		statements := []string{
			`
			CREATE TABLE categories (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL
			)
			`,
			`
			CREATE TABLE courses (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				title TEXT NOT NULL,
				description TEXT,
				image_url TEXT,
				price INTEGER,
				source_url TEXT,
				publish_flag BOOLEAN NOT NULL DEFAULT FALSE,
				category_id TEXT REFERENCES categories(id) ON DELETE SET NULL
			)
			`,
			`CREATE INDEX ix_courses_category_id ON courses(category_id)`,
			`CREATE INDEX ix_courses_created_at ON courses(created_at)`,
			`
			CREATE TABLE chapters (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
				title TEXT NOT NULL,
				description TEXT,
				video_url TEXT,
				position INTEGER NOT NULL,
				publish_flag BOOLEAN NOT NULL DEFAULT FALSE
			)
			`,
			`CREATE INDEX ix_chapters_course_position ON chapters(course_id, position)`,
			`
			CREATE TABLE mux_data (
				id TEXT PRIMARY KEY,
				asset_id TEXT NOT NULL,
				playback_id TEXT,
				chapter_id TEXT NOT NULL REFERENCES chapters(id) ON DELETE CASCADE
			)
			`,
			// One video asset per chapter.
			`CREATE UNIQUE INDEX ux_mux_data_chapter_id ON mux_data(chapter_id)`,
			`
			CREATE TABLE purchases (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				course_id TEXT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
				user_id TEXT NOT NULL
			)
			`,
			`CREATE UNIQUE INDEX ux_purchases_course_user ON purchases(course_id, user_id)`,
			`CREATE INDEX ix_purchases_user_id ON purchases(user_id)`,
			`
			CREATE TABLE payment_customers (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id TEXT NOT NULL,
				external_customer_id TEXT NOT NULL
			)
			`,
			`CREATE UNIQUE INDEX ux_payment_customers_user_id ON payment_customers(user_id)`,
		}

		for _, stmt := range statements {
			if _, err := db.Exec(stmt); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		for _, table := range []string{"payment_customers", "purchases", "mux_data", "chapters", "courses", "categories"} {
			if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
