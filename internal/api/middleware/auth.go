package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/adbmx/crm/internal/api/metrics"
	"github.com/adbmx/crm/internal/core/domain"
	"github.com/adbmx/crm/internal/core/ports"
)

// ClaimsKey is the echo.Context key holding the verified *domain.Claims.
const ClaimsKey = "claims"

type claimsCtxKey struct{}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *domain.Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey{}, claims)
}

// ClaimsFromContext returns the claims stored by Auth, if any.
func ClaimsFromContext(ctx context.Context) (*domain.Claims, bool) {
	claims, ok := ctx.Value(claimsCtxKey{}).(*domain.Claims)
	return claims, ok && claims != nil
}

// Claims returns the claims stored on the echo context by Auth.
func Claims(c echo.Context) (*domain.Claims, bool) {
	claims, ok := c.Get(ClaimsKey).(*domain.Claims)
	return claims, ok && claims != nil
}

// Auth validates the bearer credential and injects its claims into both the
// echo context and the request context. It performs no I/O.
func Auth(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				metrics.TokenVerificationsTotal.WithLabelValues("missing").Inc()
				return domain.ErrAuthRequired
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
				return domain.ErrAuthInvalid
			}
			metrics.TokenVerificationsTotal.WithLabelValues("valid").Inc()

			c.Set(ClaimsKey, claims)
			req := c.Request()
			c.SetRequest(req.WithContext(WithClaims(req.Context(), claims)))

			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
