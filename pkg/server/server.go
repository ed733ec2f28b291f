package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/auth"
	"github.com/prog-daiki/codeDot-backend/pkg/binder"
	"github.com/prog-daiki/codeDot-backend/pkg/cache"
	"github.com/prog-daiki/codeDot-backend/pkg/categories"
	"github.com/prog-daiki/codeDot-backend/pkg/chapters"
	"github.com/prog-daiki/codeDot-backend/pkg/config"
	"github.com/prog-daiki/codeDot-backend/pkg/courses"
	"github.com/prog-daiki/codeDot-backend/pkg/errcodes"
	"github.com/prog-daiki/codeDot-backend/pkg/joblogs"
	"github.com/prog-daiki/codeDot-backend/pkg/jobs"
	"github.com/prog-daiki/codeDot-backend/pkg/purchases"
	"github.com/prog-daiki/codeDot-backend/pkg/testutils"
	"github.com/prog-daiki/codeDot-backend/pkg/webhooks"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB, deps *Dependencies) (*http.Server, error) {
	e, err := newEcho(cfg, db, deps)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func newEcho(cfg *config.Config, db *bun.DB, deps *Dependencies) (*echo.Echo, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORSAllowOrigins,
		AllowCredentials: true,
	}))

	health.RegisterRoutes(e)

	authService := auth.NewService(cfg.JWTSecret)
	authMiddleware := auth.RegisterRoutes(e, authService, cfg.AdminUserID)

	registerRoutes(e, db, cfg, deps, authMiddleware)

	if cfg.IsTest() {
		testutils.RegisterRoutes(e, db, authService, cfg.AdminUserID)
	}

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	return e, nil
}

// registerRoutes wires every domain group. Writes that can change what the
// published catalog shows drop the catalog cache.
func registerRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config, deps *Dependencies, authMiddleware *auth.Middleware) {
	invalidate := cache.InvalidateOnWrite(deps.Cache)

	// Courses, purchases and checkout
	coursesGroup := e.Group("/courses", authMiddleware.Authenticate, invalidate)
	courses.RegisterRoutesWithGroup(coursesGroup, db, authMiddleware, deps.Host, deps.Cache)
	purchases.RegisterRoutesWithGroup(coursesGroup, db, deps.Processor, cfg)

	// Chapters
	chaptersGroup := e.Group("/courses/:course_id/chapters", authMiddleware.Authenticate, invalidate)
	chapters.RegisterRoutesWithGroup(chaptersGroup, db, authMiddleware, deps.Host, deps.Cache)

	// Categories
	categoriesGroup := e.Group("/categories", authMiddleware.Authenticate, invalidate)
	categories.RegisterRoutesWithGroup(categoriesGroup, db, authMiddleware)

	// Background jobs
	jobsGroup := e.Group("/jobs", authMiddleware.Authenticate, authMiddleware.RequireAdmin)
	jobs.RegisterRoutesWithGroup(jobsGroup, db)
	joblogs.RegisterRoutes(jobsGroup, db)

	// Payment webhooks
	webhookGroup := e.Group("/webhook", invalidate)
	webhooks.RegisterRoutesWithGroup(webhookGroup, db, cfg)
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
