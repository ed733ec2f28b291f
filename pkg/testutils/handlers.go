package testutils

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/auth"
	"github.com/prog-daiki/codeDot-backend/pkg/models"
	"github.com/uptrace/bun"
)

type handler struct {
	db          *bun.DB
	authService *auth.Service
	adminUserID string
}

type createTokenRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Admin  bool   `json:"admin"`
}

type createTokenResponse struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

// createToken issues a session token the way the identity provider would.
// POST /test/tokens.
func (h *handler) createToken(c echo.Context) error {
	var req createTokenRequest
	if err := c.Bind(&req); err != nil {
		return errors.WithStack(err)
	}

	userID := req.UserID
	if req.Admin {
		userID = h.adminUserID
	}
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required unless admin is set")
	}

	token, err := h.authService.GenerateToken(userID, req.Email)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, createTokenResponse{
		UserID: userID,
		Token:  token,
	}))
}

// deleteAllData wipes every table so end-to-end suites start clean.
// DELETE /test/data.
func (h *handler) deleteAllData(c echo.Context) error {
	ctx := c.Request().Context()

	err := h.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		tables := []interface{}{
			(*models.WebhookEvent)(nil),
			(*models.JobLog)(nil),
			(*models.Job)(nil),
			(*models.Purchase)(nil),
			(*models.PaymentCustomer)(nil),
			(*models.MuxData)(nil),
			(*models.Chapter)(nil),
			(*models.Course)(nil),
			(*models.Category)(nil),
		}
		for _, model := range tables {
			if _, err := tx.NewDelete().Model(model).Where("1 = 1").Exec(ctx); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
