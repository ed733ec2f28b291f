package webhooks

import (
	"github.com/labstack/echo/v4"
	"github.com/prog-daiki/codeDot-backend/pkg/config"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers POST /webhook. The route is not
// authenticated; deliveries are trusted only after signature verification.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, cfg *config.Config) {
	h := &handler{webhookService: NewService(db, cfg)}

	g.POST("", h.receive)
}
