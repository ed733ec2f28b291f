package cache

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
)

// InvalidateOnWrite drops cached catalog reads after every successful
// non-GET request.
func InvalidateOnWrite(c Cache) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ec echo.Context) error {
			err := next(ec)
			method := ec.Request().Method
			if err != nil || method == http.MethodGet || method == http.MethodHead {
				return err
			}
			if status := ec.Response().Status; status >= 400 {
				return nil
			}
			ctx := ec.Request().Context()
			if ierr := c.Invalidate(ctx); ierr != nil {
				logger.FromEchoContext(ec).Err(ierr).Warn("cache invalidation failed")
			}
			return nil
		}
	}
}
