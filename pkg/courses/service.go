package courses

import (
	"context"
	"database/sql"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/cache"
	"github.com/prog-daiki/codeDot-backend/pkg/errcodes"
	"github.com/prog-daiki/codeDot-backend/pkg/models"
	"github.com/prog-daiki/codeDot-backend/pkg/videoassets"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

type RetrieveCourseOptions struct {
	ID *string
}

type UpdateCourseOptions struct {
	Columns []string
}

type ListPublishedCoursesOptions struct {
	UserID     string
	Title      *string
	CategoryID *string
}

// AdminCourse is a course as the admin sees it, with its purchase count.
type AdminCourse struct {
	*models.Course
	PurchasedNumber int `json:"purchased_number"`
}

// PublishedCourse is a course as a learner sees it.
type PublishedCourse struct {
	*models.Course
	Purchased bool `json:"purchased"`
}

type Service struct {
	db     bun.IDB
	assets *videoassets.Service
	cache  cache.Cache
}

func NewService(db bun.IDB, assets *videoassets.Service, c cache.Cache) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{db: db, assets: assets, cache: c}
}

// WithTx returns a copy of the service whose queries run on tx.
func (svc *Service) WithTx(tx bun.IDB) *Service {
	return &Service{db: tx, assets: svc.assets, cache: svc.cache}
}

func (svc *Service) CreateCourse(ctx context.Context, course *models.Course) error {
	now := time.Now()
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = course.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(course).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (svc *Service) RetrieveCourse(ctx context.Context, opts RetrieveCourseOptions) (*models.Course, error) {
	course := &models.Course{}

	q := svc.db.
		NewSelect().
		Model(course).
		Relation("Category")

	if opts.ID != nil {
		q = q.Where("c.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Course")
		}
		return nil, errors.WithStack(err)
	}

	return course, nil
}

func (svc *Service) UpdateCourse(ctx context.Context, course *models.Course, opts UpdateCourseOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	course.UpdatedAt = time.Now()
	columns := append(slices.Clip(opts.Columns), "updated_at")

	res, err := svc.db.
		NewUpdate().
		Model(course).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errcodes.NotFound("Course")
	}

	return nil
}

// ListAdminCourses returns every course, newest first, with its category,
// chapters and purchase count.
func (svc *Service) ListAdminCourses(ctx context.Context) ([]*AdminCourse, error) {
	courses := []*models.Course{}

	err := svc.db.
		NewSelect().
		Model(&courses).
		Relation("Category").
		Relation("Chapters", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("ch.position ASC")
		}).
		Order("c.created_at DESC", "c.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var counts []struct {
		CourseID string `bun:"course_id"`
		Count    int    `bun:"count"`
	}
	err = svc.db.
		NewSelect().
		Model((*models.Purchase)(nil)).
		Column("p.course_id").
		ColumnExpr("COUNT(*) AS count").
		Group("p.course_id").
		Scan(ctx, &counts)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	byCourse := make(map[string]int, len(counts))
	for _, c := range counts {
		byCourse[c.CourseID] = c.Count
	}

	out := make([]*AdminCourse, 0, len(courses))
	for _, c := range courses {
		out = append(out, &AdminCourse{Course: c, PurchasedNumber: byCourse[c.ID]})
	}
	return out, nil
}

// ListPublishedCourses returns published courses that have at least one
// published chapter, newest first.
func (svc *Service) ListPublishedCourses(ctx context.Context, opts ListPublishedCoursesOptions) ([]*PublishedCourse, error) {
	key := cache.Key("published", opts.UserID, deref(opts.Title), deref(opts.CategoryID))
	return cache.Fetch(ctx, svc.cache, key, func() ([]*PublishedCourse, error) {
		return svc.listPublishedCourses(ctx, opts)
	})
}

func (svc *Service) listPublishedCourses(ctx context.Context, opts ListPublishedCoursesOptions) ([]*PublishedCourse, error) {
	courses := []*models.Course{}

	q := svc.db.
		NewSelect().
		Model(&courses).
		Relation("Category").
		Relation("Chapters", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("ch.publish_flag = ?", true).Order("ch.position ASC")
		}).
		Where("c.publish_flag = ?", true).
		Where("EXISTS (SELECT 1 FROM chapters AS pch WHERE pch.course_id = c.id AND pch.publish_flag = ?)", true).
		Order("c.created_at DESC", "c.id ASC")

	if opts.Title != nil && *opts.Title != "" {
		q = q.Where("LOWER(c.title) LIKE ? ESCAPE '!'", "%"+escapeLike(strings.ToLower(*opts.Title))+"%")
	}
	if opts.CategoryID != nil && *opts.CategoryID != "" {
		q = q.Where("c.category_id = ?", *opts.CategoryID)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, errors.WithStack(err)
	}

	purchased, err := svc.purchasedSet(ctx, opts.UserID, courses)
	if err != nil {
		return nil, err
	}

	out := make([]*PublishedCourse, 0, len(courses))
	for _, c := range courses {
		out = append(out, &PublishedCourse{Course: c, Purchased: purchased[c.ID]})
	}
	return out, nil
}

// RetrievePublishedCourse returns one published course with its published
// chapters and their video assets. Unpublished courses and courses without a
// published chapter are reported as not found.
func (svc *Service) RetrievePublishedCourse(ctx context.Context, id, userID string) (*PublishedCourse, error) {
	key := cache.Key("published-detail", id, userID)
	return cache.Fetch(ctx, svc.cache, key, func() (*PublishedCourse, error) {
		return svc.retrievePublishedCourse(ctx, id, userID)
	})
}

func (svc *Service) retrievePublishedCourse(ctx context.Context, id, userID string) (*PublishedCourse, error) {
	course := &models.Course{}

	err := svc.db.
		NewSelect().
		Model(course).
		Relation("Category").
		Relation("Chapters", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("ch.publish_flag = ?", true).Order("ch.position ASC")
		}).
		Relation("Chapters.MuxData").
		Where("c.id = ?", id).
		Where("c.publish_flag = ?", true).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Course")
		}
		return nil, errors.WithStack(err)
	}
	if len(course.Chapters) == 0 {
		return nil, errcodes.NotFound("Course")
	}

	purchased, err := svc.purchasedSet(ctx, userID, []*models.Course{course})
	if err != nil {
		return nil, err
	}
	return &PublishedCourse{Course: course, Purchased: purchased[course.ID]}, nil
}

func (svc *Service) purchasedSet(ctx context.Context, userID string, courses []*models.Course) (map[string]bool, error) {
	set := map[string]bool{}
	if userID == "" || len(courses) == 0 {
		return set, nil
	}

	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}

	var courseIDs []string
	err := svc.db.
		NewSelect().
		Model((*models.Purchase)(nil)).
		Column("p.course_id").
		Where("p.user_id = ?", userID).
		Where("p.course_id IN (?)", bun.In(ids)).
		Scan(ctx, &courseIDs)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	for _, id := range courseIDs {
		set[id] = true
	}
	return set, nil
}

// Publish flips the course to published once CanPublish allows it.
func (svc *Service) Publish(ctx context.Context, id string) (*models.Course, error) {
	var course *models.Course
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		txSvc := svc.WithTx(tx)
		var err error
		course, err = txSvc.RetrieveCourse(ctx, RetrieveCourseOptions{ID: &id})
		if err != nil {
			return err
		}

		chapters, err := txSvc.listPublishedChapters(ctx, id)
		if err != nil {
			return err
		}
		if err := CanPublish(course, chapters); err != nil {
			return err
		}

		course.PublishFlag = true
		return txSvc.UpdateCourse(ctx, course, UpdateCourseOptions{Columns: []string{"publish_flag"}})
	})
	if err != nil {
		return nil, err
	}
	return course, nil
}

func (svc *Service) Unpublish(ctx context.Context, id string) (*models.Course, error) {
	course, err := svc.RetrieveCourse(ctx, RetrieveCourseOptions{ID: &id})
	if err != nil {
		return nil, err
	}

	course.PublishFlag = false
	if err := svc.UpdateCourse(ctx, course, UpdateCourseOptions{Columns: []string{"publish_flag"}}); err != nil {
		return nil, err
	}
	return course, nil
}

// ReconcilePublishState unpublishes the course when it no longer satisfies
// CanPublish. It is meant to run inside the transaction that changed the
// course's chapters and reports whether the course was unpublished.
func (svc *Service) ReconcilePublishState(ctx context.Context, id string) (bool, error) {
	course, err := svc.RetrieveCourse(ctx, RetrieveCourseOptions{ID: &id})
	if err != nil {
		return false, err
	}
	if !course.PublishFlag {
		return false, nil
	}

	chapters, err := svc.listPublishedChapters(ctx, id)
	if err != nil {
		return false, err
	}
	if CanPublish(course, chapters) == nil {
		return false, nil
	}

	course.PublishFlag = false
	if err := svc.UpdateCourse(ctx, course, UpdateCourseOptions{Columns: []string{"publish_flag"}}); err != nil {
		return false, err
	}
	logger.FromContext(ctx).Info("course unpublished, no published chapters left", logger.Data{"course_id": id})
	return true, nil
}

// DeleteCourse removes the course together with its chapters, video assets
// and purchases. External assets are deleted first; the ones that fail are
// queued for retry in the same transaction that removes the rows.
func (svc *Service) DeleteCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := svc.RetrieveCourse(ctx, RetrieveCourseOptions{ID: &id})
	if err != nil {
		return nil, err
	}

	muxData, err := svc.assets.ListMuxDataForCourse(ctx, id)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	assetIDs := make([]string, 0, len(muxData))
	for _, md := range muxData {
		assetIDs = append(assetIDs, md.AssetID)
	}
	failed := svc.assets.DeleteAssets(ctx, assetIDs)

	err = svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		txAssets := svc.assets.WithTx(tx)
		if err := txAssets.EnqueueCleanup(ctx, failed, "course "+id+" deleted"); err != nil {
			return err
		}
		if err := txAssets.DeleteMuxDataForCourse(ctx, id); err != nil {
			return err
		}

		for _, model := range []interface{}{(*models.Chapter)(nil), (*models.Purchase)(nil)} {
			_, err := tx.NewDelete().Model(model).Where("course_id = ?", id).Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		_, err := tx.NewDelete().Model((*models.Course)(nil)).Where("id = ?", id).Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	return course, nil
}

func (svc *Service) listPublishedChapters(ctx context.Context, courseID string) ([]*models.Chapter, error) {
	chapters := []*models.Chapter{}
	err := svc.db.
		NewSelect().
		Model(&chapters).
		Where("ch.course_id = ?", courseID).
		Where("ch.publish_flag = ?", true).
		Scan(ctx)
	return chapters, errors.WithStack(err)
}

func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
