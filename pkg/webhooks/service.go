package webhooks

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/config"
	"github.com/prog-daiki/codeDot-backend/pkg/errcodes"
	"github.com/prog-daiki/codeDot-backend/pkg/models"
	"github.com/prog-daiki/codeDot-backend/pkg/payments"
	"github.com/prog-daiki/codeDot-backend/pkg/purchases"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

type Service struct {
	db        bun.IDB
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

func NewService(db bun.IDB, cfg *config.Config) *Service {
	return &Service{
		db:        db,
		secret:    cfg.StripeWebhookSecret,
		tolerance: cfg.StripeWebhookTolerance,
		now:       time.Now,
	}
}

// Verify checks the signature header against the raw payload and returns the
// decoded event.
func (svc *Service) Verify(ctx context.Context, payload []byte, header string) (*payments.Event, error) {
	if svc.secret == "" {
		logger.FromContext(ctx).Error("webhook secret is not configured")
		return nil, errcodes.WebhookSignatureInvalid()
	}

	event, err := payments.ConstructEvent(payload, header, svc.secret, svc.tolerance, svc.now())
	if err != nil {
		logger.FromContext(ctx).Err(err).Warn("rejected webhook delivery")
		return nil, errcodes.WebhookSignatureInvalid()
	}
	return event, nil
}

// Process applies a verified event exactly once. The event id is recorded in
// the same transaction as its side effects, so a redelivered event is
// acknowledged without running them again and a failed one is retried in
// full on the next delivery.
func (svc *Service) Process(ctx context.Context, event *payments.Event) (duplicate bool, err error) {
	log := logger.FromContext(ctx).Root(logger.Data{"event_id": event.ID, "event_type": event.Type})

	err = svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.
			NewInsert().
			Model(&models.WebhookEvent{
				EventID:     event.ID,
				Type:        event.Type,
				ProcessedAt: time.Now(),
			}).
			On("CONFLICT (event_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			duplicate = true
			return nil
		}

		switch event.Type {
		case payments.EventCheckoutSessionCompleted:
			return svc.completeCheckout(ctx, tx, event, log)
		default:
			log.Info("ignoring webhook event type")
			return nil
		}
	})
	if err != nil {
		return false, err
	}
	if duplicate {
		log.Info("webhook event already processed")
	}
	return duplicate, nil
}

func (svc *Service) completeCheckout(ctx context.Context, tx bun.Tx, event *payments.Event, log logger.Logger) error {
	session, err := event.CheckoutSession()
	if err != nil {
		return errcodes.WebhookProcessingError("Checkout session could not be decoded.")
	}

	courseID := session.Metadata[purchases.MetadataCourseID]
	userID := session.Metadata[purchases.MetadataUserID]
	if courseID == "" || userID == "" {
		return errcodes.WebhookProcessingError("Checkout session is missing metadata.")
	}

	exists, err := tx.
		NewSelect().
		Model((*models.Course)(nil)).
		Where("c.id = ?", courseID).
		Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if !exists {
		return errcodes.WebhookProcessingError("Checkout session references an unknown course.")
	}

	purchase, created, err := purchases.NewService(tx).CreatePurchase(ctx, courseID, userID)
	if err != nil {
		return err
	}

	log.Info("purchase completed", logger.Data{
		"purchase_id": purchase.ID,
		"course_id":   courseID,
		"user_id":     userID,
		"created":     created,
	})
	return nil
}
