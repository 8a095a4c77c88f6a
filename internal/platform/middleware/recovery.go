package middleware

import (
	"fmt"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ShubhamKarampure/HealthyTray/internal/platform/apperr"
)

const panicStackSize = 8 << 10

// Recovery turns a handler panic into a store error so it is rendered by
// ErrorHandler like any other 500.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				stack := make([]byte, panicStackSize)
				stack = stack[:runtime.Stack(stack, false)]

				rid, _ := c.Get("request_id").(string)
				uid, _ := c.Get("user_id").(string)
				role, _ := c.Get("role").(string)

				logger.Error().
					Str("request_id", rid).
					Str("user_id", uid).
					Str("role", role).
					Str("method", c.Request().Method).
					Str("route", c.Path()).
					Interface("panic", r).
					Bytes("stack", stack).
					Msg("panic recovered")

				err = apperr.Store("internal server error", fmt.Errorf("panic: %v", r))
			}()
			return next(c)
		}
	}
}
