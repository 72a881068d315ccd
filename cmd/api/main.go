// @title        AdBMX CRM API
// @version      1.0
// @description  Authentication, session and CRM endpoints of the AdBMX backend.
// @BasePath     /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/adbmx/crm/internal/api"
	"github.com/adbmx/crm/internal/api/handler"
	"github.com/adbmx/crm/internal/api/metrics"
	"github.com/adbmx/crm/internal/core/domain"
	"github.com/adbmx/crm/internal/core/ports"
	"github.com/adbmx/crm/internal/core/service"
	"github.com/adbmx/crm/internal/infrastructure/config"
	"github.com/adbmx/crm/internal/infrastructure/db/gormdb"
	"github.com/adbmx/crm/internal/infrastructure/db/redis"
	"github.com/adbmx/crm/internal/infrastructure/queue"
	"github.com/adbmx/crm/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		l := logger.Init(logger.Options{})
		l.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "adbmx-crm",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.UsesDefaultSecret() {
		log.Warn().Msg("JWT_SECRET not set, signing sessions with the built-in development secret")
	}

	// --- Storage ---
	db, err := gormdb.Open(ctx, gormdb.Config{Driver: cfg.DB.Driver, DSN: cfg.DB.DSN})
	if err != nil {
		return err
	}
	defer gormdb.Close(db)
	if err := gormdb.Migrate(db); err != nil {
		return err
	}
	log.Info().Str("driver", cfg.DB.Driver).Msg("database ready")

	checks := map[string]handler.CheckFunc{
		"database": func(ctx context.Context) error { return gormdb.Ping(ctx, db) },
	}

	var limiter ports.AttemptLimiter
	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		limiter = redis.NewLoginLimiter(rdb, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow)
		checks["redis"] = func(ctx context.Context) error { return redis.Ping(ctx, rdb) }
		log.Info().Str("addr", cfg.Redis.Addr).Msg("login throttle enabled")
	}

	// --- Activity log ---
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Activity.Workers, gormdb.NewActivityRepository(db), log)
	dispatcher.Observe(metrics.QueueObserver())
	dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()

	// --- Services ---
	tokens := service.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiresIn)
	auth := service.NewAuthService(gormdb.NewUserRepository(db), tokens, log)

	created, err := auth.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
	if err != nil {
		return err
	}
	if created {
		log.Info().Str("email", cfg.Admin.Email).Msg("administrator account created")
	}

	e := api.NewRouter(api.Deps{
		Log:           log,
		Tokens:        tokens,
		Auth:          auth,
		Users:         auth,
		Dashboard:     service.NewDashboardService(gormdb.NewDashboardRepository(db), gormdb.NewActivityRepository(db), log),
		Clients:       service.NewEntityService[domain.Client]("cliente", gormdb.NewClientRepository(db), dispatcher, log, service.WithDeleteRoles(domain.RoleAdmin)),
		Contacts:      service.NewEntityService[domain.Contact]("contacto", gormdb.NewContactRepository(db), dispatcher, log),
		Opportunities: service.NewEntityService[domain.Opportunity]("oportunidad", gormdb.NewOpportunityRepository(db), dispatcher, log),
		Tasks:         service.NewEntityService[domain.Task]("tarea", gormdb.NewTaskRepository(db), dispatcher, log),
		Limiter:       limiter,
		Checks:        checks,
		CORSOrigins:   cfg.AllowedOrigins(),
		Errors:        api.ErrorOptions{RevealDisabled: cfg.Auth.RevealDisabled},
		Registerer:    prometheus.DefaultRegisterer,
		Gatherer:      prometheus.DefaultGatherer,
	})

	// --- Serve ---
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
