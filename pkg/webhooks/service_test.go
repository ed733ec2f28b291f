package webhooks

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/config"
	"github.com/prog-daiki/codeDot-backend/pkg/errcodes"
	"github.com/prog-daiki/codeDot-backend/pkg/models"
	"github.com/prog-daiki/codeDot-backend/pkg/payments"
	"github.com/prog-daiki/codeDot-backend/pkg/testutils"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type fixture struct {
	db  *bun.DB
	cfg *config.Config
	h   *handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutils.NewTestDB(t)
	cfg := config.NewForTest()
	return &fixture{db: db, cfg: cfg, h: &handler{webhookService: NewService(db, cfg)}}
}

func (f *fixture) course(t *testing.T) string {
	t.Helper()
	now := time.Now()
	course := &models.Course{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now, Title: "Intro"}
	_, err := f.db.NewInsert().Model(course).Exec(context.Background())
	require.NoError(t, err)
	return course.ID
}

func (f *fixture) deliver(t *testing.T, payload []byte, header string) (int, error) {
	t.Helper()
	c, rr := testutils.NewContext(t, http.MethodPost, "/webhook", string(payload), nil)
	if header != "" {
		c.Request().Header.Set(payments.SignatureHeader, header)
	}
	err := f.h.receive(c)
	return rr.Code, err
}

func (f *fixture) purchases(t *testing.T) []*models.Purchase {
	t.Helper()
	out := []*models.Purchase{}
	require.NoError(t, f.db.NewSelect().Model(&out).Scan(context.Background()))
	return out
}

func completedEvent(t *testing.T, eventID string, metadata map[string]string) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"id":   eventID,
		"type": payments.EventCheckoutSessionCompleted,
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":       "cs_1",
				"metadata": metadata,
			},
		},
	})
	require.NoError(t, err)
	return payload
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var codeErr *errcodes.Error
	require.True(t, errors.As(err, &codeErr), "expected %s, got %v", code, err)
	assert.Equal(t, code, codeErr.Code)
}

func TestReceive_CompletedCheckoutCreatesOnePurchase(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	courseID := f.course(t)

	payload := completedEvent(t, "evt_1", map[string]string{"courseId": courseID, "userId": "u1"})
	header := payments.SignPayload(payload, f.cfg.StripeWebhookSecret, time.Now())

	code, err := f.deliver(t, payload, header)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)

	got := f.purchases(t)
	require.Len(t, got, 1)
	assert.Equal(t, courseID, got[0].CourseID)
	assert.Equal(t, "u1", got[0].UserID)

	// Redelivery of the identical event is acknowledged without a second row.
	code, err = f.deliver(t, payload, header)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, f.purchases(t), 1)
}

func TestReceive_DistinctEventsForSamePurchase(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	courseID := f.course(t)
	metadata := map[string]string{"courseId": courseID, "userId": "u1"}

	for _, id := range []string{"evt_1", "evt_2"} {
		payload := completedEvent(t, id, metadata)
		_, err := f.deliver(t, payload, payments.SignPayload(payload, f.cfg.StripeWebhookSecret, time.Now()))
		require.NoError(t, err)
	}
	assert.Len(t, f.purchases(t), 1)
}

func TestReceive_InvalidSignature(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	courseID := f.course(t)
	payload := completedEvent(t, "evt_1", map[string]string{"courseId": courseID, "userId": "u1"})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong secret", payments.SignPayload(payload, "whsec_other", time.Now())},
		{"too old", payments.SignPayload(payload, f.cfg.StripeWebhookSecret, time.Now().Add(-time.Hour))},
		{"garbage", "nonsense"},
	}
	for _, tt := range tests {
		_, err := f.deliver(t, payload, tt.header)
		requireCode(t, err, errcodes.CodeWebhookSignatureInvalid)
	}
	assert.Empty(t, f.purchases(t))
}

func TestReceive_MissingMetadataRollsBack(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	courseID := f.course(t)

	payload := completedEvent(t, "evt_1", map[string]string{"courseId": courseID})
	header := payments.SignPayload(payload, f.cfg.StripeWebhookSecret, time.Now())
	_, err := f.deliver(t, payload, header)
	requireCode(t, err, errcodes.CodeWebhookProcessing)

	// Nothing was recorded, so the redelivery is processed from scratch.
	n, err := f.db.NewSelect().Model((*models.WebhookEvent)(nil)).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	payload = completedEvent(t, "evt_2", map[string]string{"courseId": "missing", "userId": "u1"})
	_, err = f.deliver(t, payload, payments.SignPayload(payload, f.cfg.StripeWebhookSecret, time.Now()))
	requireCode(t, err, errcodes.CodeWebhookProcessing)
	assert.Empty(t, f.purchases(t))
}

func TestReceive_IgnoresOtherEventTypes(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	payload := []byte(`{"id":"evt_9","type":"customer.created","data":{"object":{"id":"cus_1"}}}`)
	code, err := f.deliver(t, payload, payments.SignPayload(payload, f.cfg.StripeWebhookSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, f.purchases(t))
}

func TestReceive_OversizedBody(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	payload := []byte(`{"id":"evt_1","type":"x","pad":"` + strings.Repeat("a", maxPayloadBytes) + `"}`)
	_, err := f.deliver(t, payload, payments.SignPayload(payload, f.cfg.StripeWebhookSecret, time.Now()))
	requireCode(t, err, errcodes.CodeWebhookSignatureInvalid)
}
