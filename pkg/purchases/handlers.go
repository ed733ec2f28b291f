package purchases

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/auth"
	"github.com/prog-daiki/codeDot-backend/pkg/errcodes"
)

type handler struct {
	purchaseService *Service
	checkout        *Checkout
}

func (h *handler) listPurchased(c echo.Context) error {
	ctx := c.Request().Context()
	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	courses, err := h.purchaseService.ListPurchasedCourses(ctx, user.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, courses))
}

func (h *handler) checkoutPaid(c echo.Context) error {
	ctx := c.Request().Context()
	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	result, err := h.checkout.Checkout(ctx, CheckoutOptions{
		CourseID: c.Param("id"),
		UserID:   user.ID,
		Email:    user.Email,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, result))
}

func (h *handler) checkoutFree(c echo.Context) error {
	ctx := c.Request().Context()
	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	purchase, err := h.checkout.CheckoutFree(ctx, c.Param("id"), user.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, purchase))
}
