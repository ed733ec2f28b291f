package chapters

import (
	"context"
	"database/sql"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/courses"
	"github.com/prog-daiki/codeDot-backend/pkg/errcodes"
	"github.com/prog-daiki/codeDot-backend/pkg/models"
	"github.com/prog-daiki/codeDot-backend/pkg/videoassets"
	"github.com/uptrace/bun"
)

type RetrieveChapterOptions struct {
	CourseID string
	ID       string
}

type UpdateChapterOptions struct {
	Columns []string
}

type Service struct {
	db      bun.IDB
	courses *courses.Service
	assets  *videoassets.Service
}

func NewService(db bun.IDB, courseService *courses.Service, assets *videoassets.Service) *Service {
	return &Service{db: db, courses: courseService, assets: assets}
}

// WithTx returns a copy of the service whose queries, including the ones it
// delegates to courses and video assets, run on tx.
func (svc *Service) WithTx(tx bun.IDB) *Service {
	return &Service{
		db:      tx,
		courses: svc.courses.WithTx(tx),
		assets:  svc.assets.WithTx(tx),
	}
}

func (svc *Service) ensureCourse(ctx context.Context, courseID string) error {
	_, err := svc.courses.RetrieveCourse(ctx, courses.RetrieveCourseOptions{ID: &courseID})
	return err
}

// ListChapters returns the course's chapters ordered by position.
func (svc *Service) ListChapters(ctx context.Context, courseID string) ([]*models.Chapter, error) {
	if err := svc.ensureCourse(ctx, courseID); err != nil {
		return nil, err
	}

	chapters := []*models.Chapter{}
	err := svc.db.
		NewSelect().
		Model(&chapters).
		Relation("MuxData").
		Where("ch.course_id = ?", courseID).
		Order("ch.position ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return chapters, nil
}

// RetrieveChapter loads a chapter of a course. A missing course is reported
// before a missing chapter.
func (svc *Service) RetrieveChapter(ctx context.Context, opts RetrieveChapterOptions) (*models.Chapter, error) {
	if err := svc.ensureCourse(ctx, opts.CourseID); err != nil {
		return nil, err
	}

	chapter := &models.Chapter{}
	err := svc.db.
		NewSelect().
		Model(chapter).
		Relation("MuxData").
		Where("ch.id = ?", opts.ID).
		Where("ch.course_id = ?", opts.CourseID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Chapter")
		}
		return nil, errors.WithStack(err)
	}
	return chapter, nil
}

// CreateChapter appends a draft chapter to the end of the course.
func (svc *Service) CreateChapter(ctx context.Context, courseID, title string) (*models.Chapter, error) {
	var chapter *models.Chapter
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := svc.WithTx(tx).ensureCourse(ctx, courseID); err != nil {
			return err
		}

		var last sql.NullInt64
		err := tx.
			NewSelect().
			Model((*models.Chapter)(nil)).
			ColumnExpr("MAX(ch.position)").
			Where("ch.course_id = ?", courseID).
			Scan(ctx, &last)
		if err != nil {
			return errors.WithStack(err)
		}

		now := time.Now()
		chapter = &models.Chapter{
			ID:        uuid.NewString(),
			CreatedAt: now,
			UpdatedAt: now,
			CourseID:  courseID,
			Title:     title,
			Position:  int(last.Int64) + 1,
		}
		_, err = tx.
			NewInsert().
			Model(chapter).
			Returning("*").
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}
	return chapter, nil
}

func (svc *Service) UpdateChapter(ctx context.Context, chapter *models.Chapter, opts UpdateChapterOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	chapter.UpdatedAt = time.Now()
	columns := append(slices.Clip(opts.Columns), "updated_at")

	res, err := svc.db.
		NewUpdate().
		Model(chapter).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errcodes.NotFound("Chapter")
	}
	return nil
}
