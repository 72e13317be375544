package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health reports liveness plus a database ping.  Registered outside the
// authenticated groups so load balancers can poll it.
func Health(db *sql.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		dbStatus := "up"
		status := http.StatusOK
		if err := db.PingContext(ctx); err != nil {
			dbStatus = "down"
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, echo.Map{
			"success": status == http.StatusOK,
			"data": echo.Map{
				"status":   "ok",
				"database": dbStatus,
				"time":     time.Now().UTC(),
			},
		})
	}
}
