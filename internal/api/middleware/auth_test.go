package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/adbmx/crm/internal/core/domain"
	"github.com/adbmx/crm/internal/core/service"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func runAuth(t *testing.T, header string) (called bool, err error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/clientes", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	handler := Auth(service.NewTokenManager("secret", time.Hour))(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	err = handler(c)
	return called, err
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	tokens := service.NewTokenManager("secret", time.Hour)
	signed, err := tokens.Issue(&domain.User{ID: 3, Email: "ana@adbmx.com", Role: domain.RoleSalesperson})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(tokens)(func(c echo.Context) error {
		called = true
		claims, ok := Claims(c)
		if !ok {
			t.Fatalf("claims not set on echo context")
		}
		if claims.UserID != 3 || claims.Email != "ana@adbmx.com" || claims.Role != domain.RoleSalesperson {
			t.Fatalf("unexpected claims: %+v", claims)
		}
		fromCtx, ok := ClaimsFromContext(c.Request().Context())
		if !ok || fromCtx.UserID != 3 {
			t.Fatalf("claims not set on request context")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_LowercaseScheme(t *testing.T) {
	token, err := service.NewTokenManager("secret", time.Hour).Issue(&domain.User{ID: 1})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if called, err := runAuth(t, "bearer "+token); err != nil || !called {
		t.Fatalf("expected lowercase scheme to be accepted, err=%v", err)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	called, err := runAuth(t, "")
	if called {
		t.Fatalf("should not reach next")
	}
	if err != domain.ErrAuthRequired {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	for _, header := range []string{"Token abc", "Bearer", "Bearer    ", "abc"} {
		called, err := runAuth(t, header)
		if called {
			t.Fatalf("%q: should not reach next", header)
		}
		if err != domain.ErrAuthRequired {
			t.Fatalf("%q: expected ErrAuthRequired, got %v", header, err)
		}
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	called, err := runAuth(t, "Bearer not-a-token")
	if called {
		t.Fatalf("should not reach next")
	}
	if err != domain.ErrAuthInvalid {
		t.Fatalf("expected ErrAuthInvalid, got %v", err)
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	expired := signToken(t, "secret", jwt.MapClaims{
		"id":  1,
		"rol": domain.RoleAdmin,
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	called, err := runAuth(t, "Bearer "+expired)
	if called {
		t.Fatalf("should not reach next")
	}
	if err != domain.ErrAuthInvalid {
		t.Fatalf("expected ErrAuthInvalid, got %v", err)
	}
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	forged := signToken(t, "another-secret", jwt.MapClaims{
		"id":  1,
		"rol": domain.RoleAdmin,
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	called, err := runAuth(t, "Bearer "+forged)
	if called {
		t.Fatalf("should not reach next")
	}
	if err != domain.ErrAuthInvalid {
		t.Fatalf("expected ErrAuthInvalid, got %v", err)
	}
}
