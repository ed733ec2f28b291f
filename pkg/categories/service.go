package categories

import (
	"context"
	"database/sql"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/errcodes"
	"github.com/prog-daiki/codeDot-backend/pkg/models"
	"github.com/uptrace/bun"
)

type RetrieveCategoryOptions struct {
	ID *string
}

type UpdateCategoryOptions struct {
	Columns []string
}

type Service struct {
	db bun.IDB
}

func NewService(db bun.IDB) *Service {
	return &Service{db}
}

// WithTx returns a copy of the service whose queries run on tx.
func (svc *Service) WithTx(tx bun.IDB) *Service {
	return &Service{tx}
}

func (svc *Service) CreateCategory(ctx context.Context, category *models.Category) error {
	now := time.Now()
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = now
	}
	category.UpdatedAt = category.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(category).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (svc *Service) RetrieveCategory(ctx context.Context, opts RetrieveCategoryOptions) (*models.Category, error) {
	category := &models.Category{}

	q := svc.db.
		NewSelect().
		Model(category)

	if opts.ID != nil {
		q = q.Where("cat.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Category")
		}
		return nil, errors.WithStack(err)
	}

	return category, nil
}

// ListCategories returns every category ordered by name.
func (svc *Service) ListCategories(ctx context.Context) ([]*models.Category, error) {
	categories := []*models.Category{}

	err := svc.db.
		NewSelect().
		Model(&categories).
		Order("cat.name ASC", "cat.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return categories, nil
}

func (svc *Service) UpdateCategory(ctx context.Context, category *models.Category, opts UpdateCategoryOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	category.UpdatedAt = time.Now()
	columns := append(slices.Clip(opts.Columns), "updated_at")

	res, err := svc.db.
		NewUpdate().
		Model(category).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errcodes.NotFound("Category")
	}

	return nil
}

// DeleteCategory removes a category. Courses that referenced it lose their
// category, and a published course without a category is taken offline.
func (svc *Service) DeleteCategory(ctx context.Context, id string) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := svc.WithTx(tx).RetrieveCategory(ctx, RetrieveCategoryOptions{ID: &id}); err != nil {
			return err
		}

		_, err := tx.
			NewUpdate().
			Model((*models.Course)(nil)).
			Set("category_id = NULL").
			Set("publish_flag = ?", false).
			Set("updated_at = ?", time.Now()).
			Where("category_id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.
			NewDelete().
			Model((*models.Category)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return errors.WithStack(err)
	})
}
