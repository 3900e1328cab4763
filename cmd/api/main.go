// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the RecipeHub identity API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire services, mailer and metrics.
//  7. Start the session janitor and the HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/resend/resend-go/v2"

	"github.com/taibuivan/recipehub/internal/api"
	"github.com/taibuivan/recipehub/internal/platform/config"
	"github.com/taibuivan/recipehub/internal/platform/constants"
	"github.com/taibuivan/recipehub/internal/platform/mail"
	"github.com/taibuivan/recipehub/internal/platform/migration"
	pgstore "github.com/taibuivan/recipehub/internal/platform/postgres"
	redisstore "github.com/taibuivan/recipehub/internal/platform/redis"
	"github.com/taibuivan/recipehub/internal/platform/sec"
	"github.com/taibuivan/recipehub/internal/users/account"
	"github.com/taibuivan/recipehub/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. A 30s deadline catches misconfiguration
	// quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing_redis_client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Security Primitives ────────────────────────────────────────────
	tokenService, err := sec.LoadTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, cfg.JWTIssuer)
	must(log, err, "initialize token service")

	// Token ids and single-use tokens share one entropy source.
	tokenService.WithRandom(rand.Reader)

	// ── 7. Mail ───────────────────────────────────────────────────────────
	var mailer mail.Sender = mail.NewLogSender(log)
	if cfg.ResendAPIKey != "" {
		resendSender, err := mail.NewResendSender(resend.NewClient(cfg.ResendAPIKey), cfg.MailFromName, cfg.MailFromAddress, log)
		must(log, err, "initialize resend sender")
		mailer = resendSender
	} else {
		log.Warn("mail_delivery_disabled", slog.String("reason", "RESEND_API_KEY is empty; emails are logged"))
	}

	// ── 8. Metrics ────────────────────────────────────────────────────────
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// ── 9. Domain Wiring ──────────────────────────────────────────────────
	authService := auth.NewService(auth.Dependencies{
		Users:              auth.NewUserRepository(pool),
		Sessions:           auth.NewSessionRepository(pool),
		ResetTokens:        auth.NewResetTokenRepository(rdb),
		VerificationTokens: auth.NewVerificationTokenRepository(rdb),
		Tx:                 pgstore.NewTransactor(pool),
		Hasher:             sec.NewHasher(cfg.BcryptCost),
		Tokens:             tokenService,
		Mailer:             mailer,
		Random:             rand.Reader,
		AppBaseURL:         cfg.AppBaseURL,
		Logger:             log,
		Metrics:            auth.NewMetrics(registry),
	})
	accountService := account.NewService(account.NewProfileRepository(pool), authService, log)

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		},
	}, log)

	// ── 10. Background Work ───────────────────────────────────────────────
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	if cfg.SessionJanitorInterval > 0 {
		go authService.RunSessionJanitor(appCtx, cfg.SessionJanitorInterval, constants.SessionJanitorBatchTimeout)
	}

	// ── 11. HTTP Server ───────────────────────────────────────────────────
	server := api.NewServer(appCtx, cfg, log, authService, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Metrics:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Auth:      auth.NewHandler(authService),
		Account:   account.NewHandler(accountService, authService),
	})

	// ── 12. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	appCancel()

	log.Info("shutting_down_server", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// newLogger builds the JSON logger every entry of which carries the app name.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned
// and handled explicitly.
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("step", step),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
