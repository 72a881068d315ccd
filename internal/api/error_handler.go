package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/adbmx/crm/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

const (
	msgInvalidCredentials = "Credenciales inválidas"
	msgAccountDisabled    = "Usuario desactivado"
	msgInternal           = "Error interno del servidor"
)

// ErrorOptions tunes how errors are rendered.
type ErrorOptions struct {
	// RevealDisabled tells clients that an account is disabled instead of
	// reporting invalid credentials.
	RevealDisabled bool
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"success": false, "error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger, opts ErrorOptions) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, opts, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Success: false, Error: msg})
	}
}

func resolveError(err error, opts ErrorOptions, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Debug().Err(he.Internal).Str("path", c.Path()).Msg("request rejected")
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, validationMessage(err)
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgInvalidCredentials
	case errors.Is(err, domain.ErrAccountDisabled):
		if opts.RevealDisabled {
			return http.StatusUnauthorized, msgAccountDisabled
		}
		return http.StatusUnauthorized, msgInvalidCredentials
	case errors.Is(err, domain.ErrAuthRequired):
		return http.StatusUnauthorized, "Token de acceso requerido"
	case errors.Is(err, domain.ErrAuthInvalid):
		return http.StatusUnauthorized, "Token inválido o expirado"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "Demasiados intentos, intenta más tarde"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "Acceso denegado"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "Recurso no encontrado"
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "El email ya está registrado"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, msgInternal
}

// validationMessage strips the sentinel prefix and keeps the detail.
func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": ")
	if msg == "" || msg == domain.ErrValidation.Error() {
		return "Datos inválidos"
	}
	return msg
}
