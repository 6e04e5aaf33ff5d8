package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// ExpirationSweeper reverts stale pending purchases.
type ExpirationSweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

type AdminHandler struct {
	sweeper ExpirationSweeper
	now     func() time.Time
}

func NewAdminHandler(sweeper ExpirationSweeper, now func() time.Time) *AdminHandler {
	if now == nil {
		now = time.Now
	}
	return &AdminHandler{sweeper: sweeper, now: now}
}

// Sweep runs one expiration pass synchronously and reports how many
// purchases were reverted.
func (h *AdminHandler) Sweep(c echo.Context) error {
	n, err := h.sweeper.SweepExpired(c.Request().Context(), h.now().UTC())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int{"expired": n})
}
