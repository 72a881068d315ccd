package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Status handles GET /api. It needs no credential.
//
// @Summary      API status
// @Tags         status
// @Produce      json
// @Success      200  {object}  statusResponse
// @Router       /api [get]
func Status(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{
		Message:   "¡Backend AdBMX funcionando correctamente!",
		Status:    "OK",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
