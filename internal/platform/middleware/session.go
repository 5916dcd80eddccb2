// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/memberportal/internal/guard"
	"github.com/taibuivan/memberportal/internal/platform/apperr"
	"github.com/taibuivan/memberportal/internal/platform/constants"
	"github.com/taibuivan/memberportal/internal/platform/ctxutil"
	"github.com/taibuivan/memberportal/internal/platform/respond"
	"github.com/taibuivan/memberportal/internal/session"
	"github.com/taibuivan/memberportal/pkg/uuid"
)

// SessionCookie configures the visitor cookie.
type SessionCookie struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

/*
SessionLoader resolves the visitor cookie into a [*session.Manager] and stores
it in the request context.

Description: The cookie carries only an opaque visitor ID; tokens stay on the
server. A missing or malformed cookie is replaced by a fresh ID.
*/
func SessionLoader(factory *session.Factory, cookie SessionCookie) func(http.Handler) http.Handler {
	if cookie.Name == "" {
		cookie.Name = constants.DefaultSessionCookieName
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Existing Visitor ───────────────────────────────────────────
			visitorID := ""
			if existing, err := request.Cookie(cookie.Name); err == nil && uuid.Valid(existing.Value) {
				visitorID = existing.Value
			}

			// ── 2. New Visitor ────────────────────────────────────────────────
			if visitorID == "" {
				visitorID = uuid.New()
				http.SetCookie(writer, &http.Cookie{
					Name:     cookie.Name,
					Value:    visitorID,
					Path:     "/",
					MaxAge:   int(cookie.MaxAge.Seconds()),
					HttpOnly: true,
					Secure:   cookie.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			// ── 3. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithSession(request.Context(), factory.For(visitorID))
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

/*
RequireRoles gates a route group with [guard.Evaluate].

Description: The guard runs on every request against the freshly loaded
session; nothing is cached between navigations. Any decision other than
Allow sends the visitor to the login page.

Must be registered AFTER [SessionLoader].
*/
func RequireRoles(required guard.RoleSet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx := request.Context()

			manager := ctxutil.GetSession(ctx)
			if manager == nil {
				respond.Error(writer, request, apperr.Internal(session.ErrNoSession))
				return
			}

			current, err := manager.Current(ctx)
			if err != nil {
				respond.Error(writer, request, apperr.Internal(err))
				return
			}

			decision := guard.Evaluate(required, current)
			ctxutil.GetLogger(ctx).DebugContext(ctx, "route_guard_evaluated",
				slog.String("decision", decision.String()),
				slog.Any("required_roles", required),
				slog.String("role", current.Role.String()),
			)

			if decision != guard.Allow {
				respond.Redirect(writer, request, constants.PathLogin)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
