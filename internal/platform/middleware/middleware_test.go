// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/memberportal/internal/guard"
	"github.com/taibuivan/memberportal/internal/platform/ctxutil"
	"github.com/taibuivan/memberportal/internal/platform/middleware"
	"github.com/taibuivan/memberportal/internal/platform/sec"
	"github.com/taibuivan/memberportal/internal/session"
	"github.com/taibuivan/memberportal/pkg/uuid"
)

var okHandler = http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
	writer.WriteHeader(http.StatusOK)
})

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

/*
TestRequestID verifies that caller IDs are kept and missing ones generated.
*/
func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		seen = ctxutil.GetRequestID(request.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.True(t, uuid.Valid(seen))
		assert.Equal(t, seen, recorder.Header().Get("X-Request-ID"))
	})

	t.Run("forwarded", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("X-Request-ID", "edge-42")
		handler.ServeHTTP(httptest.NewRecorder(), request)

		assert.Equal(t, "edge-42", seen)
	})
}

/*
TestRateLimit verifies that a client exceeding its burst is rejected.
*/
func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := middleware.RateLimit(ctx, 1, 1)(okHandler)

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.Header.Set("X-Real-IP", "203.0.113.9")
	third := httptest.NewRecorder()
	handler.ServeHTTP(third, other)
	assert.Equal(t, http.StatusOK, third.Code, "buckets are per client")
}

/*
TestPanicRecovery verifies that a panicking handler yields a 500 envelope.
*/
func TestPanicRecovery(t *testing.T) {
	handler := middleware.PanicRecovery(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "INTERNAL_ERROR")
}

type corsConfig struct {
	development bool
	origins     []string
}

func (c corsConfig) IsDevelopment() bool      { return c.development }
func (c corsConfig) AllowedOrigins() []string { return c.origins }

/*
TestCORS verifies origin matching by suffix outside development.
*/
func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		cfg     corsConfig
		origin  string
		allowed bool
	}{
		{"development_allows_all", corsConfig{development: true}, "http://localhost:3000", true},
		{"suffix_match", corsConfig{origins: []string{".club.example"}}, "https://portal.club.example", true},
		{"suffix_mismatch", corsConfig{origins: []string{".club.example"}}, "https://evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.Header.Set("Origin", tt.origin)
			recorder := httptest.NewRecorder()

			middleware.CORS(tt.cfg)(okHandler).ServeHTTP(recorder, request)

			if tt.allowed {
				assert.Equal(t, tt.origin, recorder.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

/*
TestAuthenticate verifies bearer verification on the development backend.
*/
func TestAuthenticate(t *testing.T) {
	tokens, err := sec.NewTokenService("middleware-test-secret", "test")
	require.NoError(t, err)

	access, err := tokens.GenerateToken(sec.KindAccess, "2", "TestUser1", "User", time.Minute)
	require.NoError(t, err)
	refresh, err := tokens.GenerateToken(sec.KindRefresh, "2", "TestUser1", "User", time.Minute)
	require.NoError(t, err)

	var claims *sec.AuthClaims
	handler := middleware.Authenticate(tokens)(middleware.RequireAuth(http.HandlerFunc(
		func(writer http.ResponseWriter, request *http.Request) {
			claims = ctxutil.GetAuthUser(request.Context())
		})))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"access_token", "Bearer " + access, http.StatusOK},
		{"refresh_token_rejected", "Bearer " + refresh, http.StatusUnauthorized},
		{"malformed_header", access, http.StatusUnauthorized},
		{"anonymous", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims = nil
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				request.Header.Set("Authorization", tt.header)
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.status, recorder.Code)
			if tt.status == http.StatusOK {
				require.NotNil(t, claims)
				assert.Equal(t, "2", claims.UserID)
			}
		})
	}
}

/*
TestSessionLoader verifies visitor cookie handling.
*/
func TestSessionLoader(t *testing.T) {
	factory := session.NewFactory(session.NewMemoryStore(), nil, discardLogger())
	cookie := middleware.SessionCookie{Name: "portal_session", MaxAge: time.Hour}

	var key string
	handler := middleware.SessionLoader(factory, cookie)(http.HandlerFunc(
		func(writer http.ResponseWriter, request *http.Request) {
			manager := ctxutil.GetSession(request.Context())
			require.NotNil(t, manager)
			key = manager.Key()
		}))

	t.Run("new_visitor", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

		cookies := recorder.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
		assert.True(t, uuid.Valid(cookies[0].Value))
		assert.Equal(t, cookies[0].Value, key)
	})

	t.Run("returning_visitor", func(t *testing.T) {
		visitor := uuid.New()
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.AddCookie(&http.Cookie{Name: "portal_session", Value: visitor})

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Empty(t, recorder.Result().Cookies())
		assert.Equal(t, visitor, key)
	})

	t.Run("forged_cookie_replaced", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.AddCookie(&http.Cookie{Name: "portal_session", Value: "../admin"})

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		require.Len(t, recorder.Result().Cookies(), 1)
		assert.NotEqual(t, "../admin", key)
	})
}

/*
TestRequireRoles verifies that the guard runs on every request.
*/
func TestRequireRoles(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	factory := session.NewFactory(store, nil, discardLogger())

	handler := middleware.SessionLoader(factory, middleware.SessionCookie{Name: "portal_session"})(
		middleware.RequireRoles(guard.Roles(sec.RoleAdmin))(okHandler))

	visitor := uuid.New()
	serve := func(accept string) *httptest.ResponseRecorder {
		request := httptest.NewRequest(http.MethodGet, "/admin-dashboard/", nil)
		request.AddCookie(&http.Cookie{Name: "portal_session", Value: visitor})
		if accept != "" {
			request.Header.Set("Accept", accept)
		}
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		return recorder
	}

	t.Run("no_session_redirects", func(t *testing.T) {
		recorder := serve("")
		assert.Equal(t, http.StatusSeeOther, recorder.Code)
		assert.Equal(t, "/login", recorder.Header().Get("Location"))
	})

	t.Run("json_client_gets_redirect_envelope", func(t *testing.T) {
		recorder := serve("application/json")
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.JSONEq(t, `{"redirect":"/login"}`, recorder.Body.String())
	})

	t.Run("admin_allowed", func(t *testing.T) {
		require.NoError(t, factory.For(visitor).Save(ctx, "A1", "R1", sec.RoleAdmin))
		assert.Equal(t, http.StatusOK, serve("").Code)
	})

	t.Run("role_change_seen_immediately", func(t *testing.T) {
		require.NoError(t, factory.For(visitor).Save(ctx, "A1", "R1", sec.RoleUser))
		assert.Equal(t, http.StatusSeeOther, serve("").Code)
	})

	t.Run("logout_seen_immediately", func(t *testing.T) {
		require.NoError(t, factory.For(visitor).Save(ctx, "A1", "R1", sec.RoleAdmin))
		require.NoError(t, factory.For(visitor).Clear(ctx))
		assert.Equal(t, http.StatusSeeOther, serve("").Code)
	})
}
