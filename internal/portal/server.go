// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package portal is the server-side rendition of the member portal.

It wires the chi router, the middleware chain, the route guards and the
page handlers into a runnable [http.Server]. Every visitor is identified by an
opaque cookie; their tokens live in the session store and are only ever sent
to the backend through the gateway.

Architecture:

  - This package is the topmost Presentation layer boundary.
  - Guarded groups: /admin-dashboard requires Admin, /user-dashboard requires User.
  - Only this package and cmd/portal create net/http server primitives.
*/
package portal

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/memberportal/internal/gateway"
	"github.com/taibuivan/memberportal/internal/guard"
	"github.com/taibuivan/memberportal/internal/platform/apperr"
	"github.com/taibuivan/memberportal/internal/platform/config"
	"github.com/taibuivan/memberportal/internal/platform/constants"
	"github.com/taibuivan/memberportal/internal/platform/middleware"
	"github.com/taibuivan/memberportal/internal/platform/respond"
	"github.com/taibuivan/memberportal/internal/platform/sec"
	"github.com/taibuivan/memberportal/internal/session"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

// Dependencies groups everything the router needs.
type Dependencies struct {
	// Sessions hands out one Manager per visitor cookie.
	Sessions *session.Factory

	// Gateway is the single path to the backend.
	Gateway *gateway.Gateway

	// Checks are probed by /ready. Empty means always ready.
	Checks []HealthCheck
}

// # Router

/*
NewRouter builds the chi router with the full middleware chain.

Description: ctx bounds background work started by the middleware (rate
limiter eviction). It should live as long as the server.
*/
func NewRouter(ctx context.Context, cfg *config.Config, log *slog.Logger, deps Dependencies) http.Handler {
	router := chi.NewRouter()

	// # Middleware Chain
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(log))
	router.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	router.Use(middleware.RateLimit(ctx, constants.DefaultRateLimitRPS, constants.DefaultRateLimitBurst))
	router.Use(middleware.PanicRecovery(log))
	router.Use(middleware.CORS(cfg))
	router.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	liveness, readiness := NewHealthHandlers(deps.Checks, log)
	router.Get("/health", liveness)
	router.Get("/ready", readiness)

	// # Portal Pages
	handler := NewHandler(deps.Gateway)

	router.Group(func(pages chi.Router) {
		pages.Use(middleware.SessionLoader(deps.Sessions, middleware.SessionCookie{
			Name:   cfg.SessionCookieName,
			Secure: cfg.SessionCookieSecure,
			MaxAge: cfg.SessionTTL,
		}))

		pages.Get("/", func(writer http.ResponseWriter, request *http.Request) {
			respond.Redirect(writer, request, constants.PathLogin)
		})

		pages.Get(constants.PathLogin, handler.loginPage)
		pages.Post(constants.PathLogin, handler.login)
		pages.Post(constants.PathRegister, handler.register)
		pages.Get(constants.PathLogout, handler.logout)
		pages.Post(constants.PathLogout, handler.logout)

		pages.Route(constants.PathAdminDashboard, func(admin chi.Router) {
			admin.Use(middleware.RequireRoles(guard.Roles(sec.RoleAdmin)))
			handler.adminRoutes(admin)
		})

		pages.Route(constants.PathUserDashboard, func(user chi.Router) {
			user.Use(middleware.RequireRoles(guard.Roles(sec.RoleUser)))
			handler.userRoutes(user)
		})
	})

	router.NotFound(func(writer http.ResponseWriter, request *http.Request) {
		respond.Error(writer, request, apperr.NotFound("Page"))
	})

	return router
}

// # Server Initialization

// NewServer constructs the portal server listening on cfg.ServerPort.
func NewServer(ctx context.Context, cfg *config.Config, log *slog.Logger, deps Dependencies) *Server {
	return &Server{
		log: log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           NewRouter(ctx, cfg, log, deps),
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server. It blocks until the server is closed.
func (s *Server) ListenAndServe() error {
	s.log.Info("portal_server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
