package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/adbmx/crm/internal/core/ports"
)

type DashboardHandler struct {
	service ports.DashboardService
}

func NewDashboardHandler(service ports.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary returns the headline counters and the latest activity.
//
// @Summary      Dashboard
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dashboardResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/dashboard [get]
func (h *DashboardHandler) Summary(c echo.Context) error {
	d, err := h.service.Summary(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dashboardResponse{Stats: d.Stats, RecentActivity: d.RecentActivity})
}
