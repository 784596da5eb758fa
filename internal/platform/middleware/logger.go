package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tcg/scenario-sheets/internal/platform/auth"
)

// withRequest adds the fields that identify a request in every log line.
func withRequest(evt *zerolog.Event, c echo.Context) *zerolog.Event {
	req := c.Request()
	rid, _ := c.Get("request_id").(string)
	return evt.
		Str("request_id", rid).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("sheet", c.QueryParam("sheet")).
		Str("user_id", auth.UserIDFromContext(req.Context()))
}

// Logger writes one line per request once the handler chain returns.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}
			withRequest(evt, c).
				Int("status", c.Response().Status).
				Int64("bytes_in", c.Request().ContentLength).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")
			return err
		}
	}
}
