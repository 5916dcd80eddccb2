// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command portal is the entry point for the member portal server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Open the session store (memory, file, redis or postgres + migrations).
//  4. Build the token refresher and the backend gateway.
//  5. Start the HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/memberportal/internal/gateway"
	"github.com/taibuivan/memberportal/internal/platform/config"
	"github.com/taibuivan/memberportal/internal/platform/constants"
	"github.com/taibuivan/memberportal/internal/platform/migration"
	pgstore "github.com/taibuivan/memberportal/internal/platform/postgres"
	redisstore "github.com/taibuivan/memberportal/internal/platform/redis"
	"github.com/taibuivan/memberportal/internal/portal"
	"github.com/taibuivan/memberportal/internal/session"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("portal_initializing", slog.String("version", constants.AppVersion))

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
		slog.String("backend", cfg.BackendBaseURL),
		slog.String("session_store", string(cfg.SessionStore)),
	)

	// Catch misconfiguration quickly rather than hanging on a dead dependency
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. Session Store ──────────────────────────────────────────────────
	store, checks, closeStore := openStore(startupCtx, cfg, log)
	defer closeStore()

	// ── 4. Refresher & Gateway ────────────────────────────────────────────
	httpClient := &http.Client{Timeout: cfg.GatewayTimeout}

	refresher, err := session.NewHTTPRefresher(cfg.BackendBaseURL, httpClient)
	must(log, err, "build token refresher")

	gw, err := gateway.New(cfg.BackendBaseURL,
		gateway.WithHTTPClient(httpClient),
		gateway.WithRateLimit(cfg.GatewayRPS, cfg.GatewayBurst),
		gateway.WithLogger(log),
	)
	must(log, err, "build backend gateway")

	// ── 5. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := portal.NewServer(serverCtx, cfg, log, portal.Dependencies{
		Sessions: session.NewFactory(store, refresher, log),
		Gateway:  gw,
		Checks:   checks,
	})

	// ── 6. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	log.Info("server_shutting_down", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

/*
openStore builds the configured session store.

Returns:
  - session.Store: The store shared by every visitor
  - []portal.HealthCheck: Readiness probes for the store's dependency
  - func(): Releases the store's connections
*/
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (session.Store, []portal.HealthCheck, func()) {
	switch cfg.SessionStore {
	case config.StoreFile:
		return session.NewFileStore(cfg.SessionFilePath), nil, func() {}

	case config.StoreRedis:
		client, err := redisstore.NewClient(ctx, cfg.RedisURL, log)
		must(log, err, "connect to redis")

		checks := []portal.HealthCheck{{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisstore.Ping(ctx, client) },
		}}
		return session.NewRedisStore(client, cfg.SessionTTL), checks, func() {
			if err := client.Close(); err != nil {
				log.Error("redis_close_failed", slog.Any("error", err))
			}
		}

	case config.StorePostgres:
		must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

		pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, log)
		must(log, err, "connect to postgres")

		checks := []portal.HealthCheck{{
			Name:  "postgres",
			Check: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) },
		}}
		return session.NewPostgresStore(pool), checks, pool.Close

	default:
		log.Warn("memory_session_store_in_use", slog.String("hint", "sessions are lost on restart"))
		return session.NewMemoryStore(), nil, func() {}
	}
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// Startup wiring only. After startup, errors are returned and handled explicitly.
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failure", slog.String("step", step), slog.Any("error", err))
		os.Exit(1)
	}
}
