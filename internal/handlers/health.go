package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthCheck reports liveness and database reachability. The ping error is
// logged, never returned to the caller.
func HealthCheck(service string, db Pinger, logger *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logger.Error("health check: database unreachable", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status":   "unavailable",
				"service":  service,
				"database": "unavailable",
			})
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status":   "healthy",
			"service":  service,
			"database": "ok",
		})
	}
}
