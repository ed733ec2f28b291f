package purchases

import (
	"context"
	"database/sql"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/config"
	"github.com/prog-daiki/codeDot-backend/pkg/errcodes"
	"github.com/prog-daiki/codeDot-backend/pkg/models"
	"github.com/prog-daiki/codeDot-backend/pkg/payments"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// Metadata keys attached to checkout sessions and read back by the webhook.
const (
	MetadataCourseID = "courseId"
	MetadataUserID   = "userId"
)

type CheckoutOptions struct {
	CourseID string
	UserID   string
	Email    string
}

type CheckoutResult struct {
	URL string `json:"url"`
}

// Checkout runs the purchase workflow against the payment processor. It never
// records a purchase; paid purchases are only created once the processor
// confirms the payment through the webhook.
type Checkout struct {
	db        bun.IDB
	purchases *Service
	processor payments.Processor
	publicURL string
	currency  string
}

func NewCheckout(db bun.IDB, processor payments.Processor, cfg *config.Config) *Checkout {
	return &Checkout{
		db:        db,
		purchases: NewService(db),
		processor: processor,
		publicURL: strings.TrimRight(cfg.PublicAppURL, "/"),
		currency:  cfg.StripeCurrency,
	}
}

// Checkout creates a payment session for the course and returns the URL the
// user is redirected to.
func (co *Checkout) Checkout(ctx context.Context, opts CheckoutOptions) (*CheckoutResult, error) {
	log := logger.FromContext(ctx)

	course, err := co.purchases.retrieveCourse(ctx, opts.CourseID)
	if err != nil {
		return nil, err
	}

	owned, err := co.purchases.Exists(ctx, opts.CourseID, opts.UserID)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, errcodes.AlreadyExists("Purchase")
	}

	if course.IsFree() {
		return nil, errcodes.CourseFree()
	}
	if course.Price == nil {
		return nil, errcodes.RequiredFieldsEmpty("Course")
	}

	customerID, err := co.ensureCustomer(ctx, opts.UserID, opts.Email)
	if err != nil {
		return nil, err
	}

	session, err := co.processor.CreateCheckoutSession(ctx, payments.CheckoutSessionParams{
		CustomerID:  customerID,
		Currency:    co.currency,
		ProductName: course.Title,
		Description: deref(course.Description),
		UnitAmount:  *course.Price,
		SuccessURL:  co.courseURL(course.ID, "success"),
		CancelURL:   co.courseURL(course.ID, "canceled"),
		Metadata: map[string]string{
			MetadataCourseID: course.ID,
			MetadataUserID:   opts.UserID,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create checkout session")
	}

	log.Info("checkout session created", logger.Data{
		"course_id":  course.ID,
		"user_id":    opts.UserID,
		"session_id": session.ID,
	})
	return &CheckoutResult{URL: session.URL}, nil
}

// CheckoutFree grants a free course without a payment session.
func (co *Checkout) CheckoutFree(ctx context.Context, courseID, userID string) (*models.Purchase, error) {
	var purchase *models.Purchase
	err := co.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		txSvc := co.purchases.WithTx(tx)

		course, err := txSvc.retrieveCourse(ctx, courseID)
		if err != nil {
			return err
		}
		if !course.IsFree() {
			return errcodes.CourseNotFree()
		}

		var created bool
		purchase, created, err = txSvc.CreatePurchase(ctx, courseID, userID)
		if err != nil {
			return err
		}
		if !created {
			return errcodes.AlreadyExists("Purchase")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// ensureCustomer returns the processor customer for userID, creating and
// storing one on first checkout.
func (co *Checkout) ensureCustomer(ctx context.Context, userID, email string) (string, error) {
	id, err := co.purchases.retrieveCustomerID(ctx, userID)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	customer, err := co.processor.CreateCustomer(ctx, payments.CustomerParams{Email: email, UserID: userID})
	if err != nil {
		return "", errors.Wrap(err, "failed to create payment customer")
	}
	return co.purchases.saveCustomerID(ctx, userID, customer.ID)
}

func (co *Checkout) courseURL(courseID, flag string) string {
	return co.publicURL + "/courses/" + url.PathEscape(courseID) + "?" + flag + "=1"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
