package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/adbmx/crm/internal/api/metrics"
	"github.com/adbmx/crm/internal/core/domain"
	"github.com/adbmx/crm/internal/core/ports"
)

// maxLoginBody caps how much of the login body is buffered to read the email.
const maxLoginBody = 64 << 10

// LoginThrottle limits login attempts per client IP and email pair.
// Limiter failures let the request through. A successful login clears the
// counter of that pair only, so logging into one account never resets the
// attempts made against another.
//
// The client IP comes from the Echo IPExtractor; routers must configure one
// that ignores forwarding headers unless a trusted proxy sets them.
func LoginThrottle(limiter ports.AttemptLimiter, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			ip := c.RealIP()
			key := ip + "|" + loginEmail(c.Request())

			allowed, err := limiter.Allow(ctx, key)
			if err != nil {
				metrics.LoginThrottleErrorsTotal.Inc()
				log.Warn().Err(err).Str("ip", ip).Msg("login limiter unavailable")
				return next(c)
			}
			if !allowed {
				metrics.LoginAttemptsTotal.WithLabelValues("throttled").Inc()
				return domain.ErrTooManyAttempts
			}

			if err := next(c); err != nil {
				return err
			}
			if c.Response().Status == http.StatusOK {
				if err := limiter.Reset(ctx, key); err != nil {
					log.Warn().Err(err).Str("ip", ip).Msg("login limiter reset failed")
				}
			}
			return nil
		}
	}
}

// loginEmail peeks at the JSON body for the email and puts the body back
// for the handler. Unreadable bodies yield an empty email.
func loginEmail(req *http.Request) string {
	if req.Body == nil {
		return ""
	}
	rest := req.Body
	raw, err := io.ReadAll(io.LimitReader(rest, maxLoginBody))
	req.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(raw), rest), rest}
	if err != nil {
		return ""
	}

	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return ""
	}
	return body.Email
}
