package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HandleHealthz reports process liveness. The service holds no state and no
// connections, so alive means serving.
func (h *Handlers) HandleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
