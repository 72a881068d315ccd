package handler

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/adbmx/crm/internal/api/middleware"
	"github.com/adbmx/crm/internal/core/domain"
	"github.com/adbmx/crm/internal/core/ports"
)

// ctxActor returns the caller identity injected by the Auth middleware.
// A missing identity means the route was registered without Auth.
func ctxActor(c echo.Context) (ports.Actor, error) {
	claims, ok := middleware.Claims(c)
	if !ok {
		return ports.Actor{}, domain.ErrAuthRequired
	}
	return ports.Actor{UserID: claims.UserID, Role: claims.Role}, nil
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uint, error) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: id %q no es válido", domain.ErrValidation, raw)
	}
	return uint(id), nil
}

// bindAndValidate decodes the request body into req and validates it.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: cuerpo de la solicitud inválido", domain.ErrValidation)
	}
	return c.Validate(req)
}
