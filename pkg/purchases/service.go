package purchases

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/errcodes"
	"github.com/prog-daiki/codeDot-backend/pkg/models"
	"github.com/uptrace/bun"
)

type Service struct {
	db bun.IDB
}

func NewService(db bun.IDB) *Service {
	return &Service{db: db}
}

// WithTx returns a copy of the service whose queries run on tx.
func (svc *Service) WithTx(tx bun.IDB) *Service {
	return &Service{db: tx}
}

// Exists reports whether userID already owns the course.
func (svc *Service) Exists(ctx context.Context, courseID, userID string) (bool, error) {
	exists, err := svc.db.
		NewSelect().
		Model((*models.Purchase)(nil)).
		Where("p.course_id = ?", courseID).
		Where("p.user_id = ?", userID).
		Exists(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return exists, nil
}

// CreatePurchase records that userID owns the course. A purchase that already
// exists is left untouched, in which case created is false.
func (svc *Service) CreatePurchase(ctx context.Context, courseID, userID string) (purchase *models.Purchase, created bool, err error) {
	now := time.Now()
	purchase = &models.Purchase{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		CourseID:  courseID,
		UserID:    userID,
	}

	res, err := svc.db.
		NewInsert().
		Model(purchase).
		On("CONFLICT (course_id, user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, false, errors.WithStack(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, errors.WithStack(err)
	}
	if n > 0 {
		return purchase, true, nil
	}

	existing := &models.Purchase{}
	err = svc.db.
		NewSelect().
		Model(existing).
		Where("p.course_id = ?", courseID).
		Where("p.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, false, errors.WithStack(err)
	}
	return existing, false, nil
}

// ListPurchasedCourses returns the courses userID owns with their category
// and published chapters, most recently purchased first.
func (svc *Service) ListPurchasedCourses(ctx context.Context, userID string) ([]*models.Course, error) {
	courses := []*models.Course{}

	err := svc.db.
		NewSelect().
		Model(&courses).
		Relation("Category").
		Relation("Chapters", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("ch.publish_flag = ?", true).Order("ch.position ASC")
		}).
		Join("JOIN purchases AS p ON p.course_id = c.id").
		Where("p.user_id = ?", userID).
		Order("p.created_at DESC", "c.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return courses, nil
}

func (svc *Service) retrieveCourse(ctx context.Context, id string) (*models.Course, error) {
	course := &models.Course{}
	err := svc.db.
		NewSelect().
		Model(course).
		Where("c.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Course")
		}
		return nil, errors.WithStack(err)
	}
	return course, nil
}

// retrieveCustomerID returns the payment customer mapped to userID, or an
// empty string when there is none yet.
func (svc *Service) retrieveCustomerID(ctx context.Context, userID string) (string, error) {
	customer := &models.PaymentCustomer{}
	err := svc.db.
		NewSelect().
		Model(customer).
		Where("pc.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", errors.WithStack(err)
	}
	return customer.ExternalCustomerID, nil
}

// saveCustomerID stores the mapping unless a concurrent request stored one
// first, and returns whichever mapping won.
func (svc *Service) saveCustomerID(ctx context.Context, userID, externalID string) (string, error) {
	now := time.Now()
	_, err := svc.db.
		NewInsert().
		Model(&models.PaymentCustomer{
			ID:                 uuid.NewString(),
			CreatedAt:          now,
			UpdatedAt:          now,
			UserID:             userID,
			ExternalCustomerID: externalID,
		}).
		On("CONFLICT (user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return svc.retrieveCustomerID(ctx, userID)
}
