package purchases

import (
	"github.com/labstack/echo/v4"
	"github.com/prog-daiki/codeDot-backend/pkg/config"
	"github.com/prog-daiki/codeDot-backend/pkg/payments"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers the purchase routes on the /courses
// group, which must already authenticate the user.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, processor payments.Processor, cfg *config.Config) {
	h := &handler{
		purchaseService: NewService(db),
		checkout:        NewCheckout(db, processor, cfg),
	}

	g.GET("/purchased", h.listPurchased)
	g.POST("/:id/checkout", h.checkoutPaid)
	g.POST("/:id/checkout/free", h.checkoutFree)
}
