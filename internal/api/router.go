package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/adbmx/crm/docs"
	"github.com/adbmx/crm/internal/api/handler"
	"github.com/adbmx/crm/internal/api/middleware"
	"github.com/adbmx/crm/internal/core/domain"
	"github.com/adbmx/crm/internal/core/ports"
)

// Deps holds everything the HTTP layer needs. Limiter, Checks and the
// metrics registry are optional.
type Deps struct {
	Log    zerolog.Logger
	Tokens ports.TokenVerifier

	Auth          ports.AuthService
	Users         ports.UserService
	Dashboard     ports.DashboardService
	Clients       ports.EntityService[domain.Client]
	Contacts      ports.EntityService[domain.Contact]
	Opportunities ports.EntityService[domain.Opportunity]
	Tasks         ports.EntityService[domain.Task]

	// Limiter enables the login throttle when set.
	Limiter ports.AttemptLimiter
	// Checks are the readiness checks served on /health/ready.
	Checks map[string]handler.CheckFunc

	CORSOrigins []string
	Errors      ErrorOptions

	// Registerer receives the HTTP metrics and Gatherer is served on
	// /metrics. A fresh registry backs both when Registerer is nil.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	// Forwarding headers are client controlled; the peer address is the only
	// trusted source for the client IP.
	e.IPExtractor = echo.ExtractIPDirect()
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log, deps.Errors)

	registerer, gatherer := deps.Registerer, deps.Gatherer
	if registerer == nil {
		reg := prometheus.NewRegistry()
		registerer, gatherer = reg, reg
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: allowedOrigins(deps.CORSOrigins),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "adbmx_crm",
		Registerer: registerer,
	}))

	// --- Operational routes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Public API ---
	authHandler := handler.NewAuthHandler(deps.Auth)

	e.GET("/api", handler.Status)
	login := []echo.MiddlewareFunc{}
	if deps.Limiter != nil {
		login = append(login, middleware.LoginThrottle(deps.Limiter, deps.Log))
	}
	e.POST("/api/auth/login", authHandler.Login, login...)

	// --- Authenticated API ---
	api := e.Group("/api", middleware.Auth(deps.Tokens))

	api.GET("/auth/verify", authHandler.Verify)
	api.GET("/dashboard", handler.NewDashboardHandler(deps.Dashboard).Summary)

	handler.NewClientHandler(deps.Clients).Register(api.Group("/clientes"))
	handler.NewContactHandler(deps.Contacts).Register(api.Group("/contactos"))
	handler.NewOpportunityHandler(deps.Opportunities).Register(api.Group("/oportunidades"))
	handler.NewTaskHandler(deps.Tasks).Register(api.Group("/tareas"))

	userHandler := handler.NewUserHandler(deps.Users)
	users := api.Group("/usuarios", middleware.RBAC(domain.RoleAdmin))
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create)
	users.PATCH("/:id/activo", userHandler.SetActive)

	return e
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
