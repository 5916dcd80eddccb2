// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command devbackend serves the in-memory membership API for local runs.
//
// Seeded accounts: admin/admin1234 (Admin) and TestUser1/pw1234 (User).
// Access tokens expire after DEV_ACCESS_TTL, which makes the portal's
// refresh-and-replay path easy to observe with a short value.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/memberportal/internal/devbackend"
	"github.com/taibuivan/memberportal/internal/platform/config"
	"github.com/taibuivan/memberportal/internal/platform/constants"
	"github.com/taibuivan/memberportal/internal/platform/sec"
)

const issuer = "memberportal-devbackend"

func main() {
	// ── 1. Configuration & Logger ─────────────────────────────────────────
	cfg, err := config.LoadDevBackend()
	if err != nil {
		slog.Error("startup_failure", slog.String("step", "load configuration"), slog.Any("error", err))
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", "devbackend"))
	slog.SetDefault(log)

	// ── 2. Store & Tokens ─────────────────────────────────────────────────
	store, err := devbackend.NewStore(bcrypt.DefaultCost)
	must(log, err, "seed store")

	tokens, err := sec.NewTokenService(cfg.JWTSecret, issuer)
	must(log, err, "initialize token service")

	handler := devbackend.NewHandler(store, tokens, cfg.AccessTTL, cfg.RefreshTTL)

	// ── 3. HTTP Server ────────────────────────────────────────────────────
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           devbackend.NewRouter(handler, log),
		ReadTimeout:       constants.DefaultReadTimeout,
		WriteTimeout:      constants.DefaultWriteTimeout,
		IdleTimeout:       constants.DefaultIdleTimeout,
		ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		log.Info("devbackend_starting",
			slog.String("addr", server.Addr),
			slog.Duration("access_ttl", cfg.AccessTTL),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server_error", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("devbackend_stopped")
}

func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failure", slog.String("step", step), slog.Any("error", err))
		os.Exit(1)
	}
}
