package webhooks

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/errcodes"
	"github.com/prog-daiki/codeDot-backend/pkg/payments"
)

// maxPayloadBytes bounds the webhook body. Provider events are far smaller.
const maxPayloadBytes = 1 << 20

type handler struct {
	webhookService *Service
}

type receivedResponse struct {
	Received bool `json:"received"`
}

func (h *handler) receive(c echo.Context) error {
	ctx := c.Request().Context()

	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxPayloadBytes+1))
	if err != nil {
		return errors.WithStack(err)
	}
	if len(payload) > maxPayloadBytes {
		return errcodes.WebhookSignatureInvalid()
	}

	event, err := h.webhookService.Verify(ctx, payload, c.Request().Header.Get(payments.SignatureHeader))
	if err != nil {
		return errors.WithStack(err)
	}

	if _, err := h.webhookService.Process(ctx, event); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, receivedResponse{Received: true}))
}
