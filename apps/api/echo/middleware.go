package echoapi

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

var requestIDConfig = middleware.RequestIDConfig{
	Skipper:   middleware.DefaultSkipper,
	Generator: func() string { return uuid.New().String() },
}

// metricsMiddleware records every request once its error, if any, has been rendered.
func metricsMiddleware(m *metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			if err := next(ctx); err != nil {
				ctx.Error(err)
			}

			path := ctx.Path()
			if path == "" {
				path = "unmatched"
			}
			m.observeRequest(ctx.Request().Method, path, ctx.Response().Status, time.Since(start).Seconds())
			return nil
		}
	}
}
