// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"
	"strings"

	"github.com/taibuivan/memberportal/internal/platform/apperr"
	"github.com/taibuivan/memberportal/internal/platform/ctxutil"
	"github.com/taibuivan/memberportal/internal/platform/respond"
	"github.com/taibuivan/memberportal/internal/platform/sec"
)

// TokenVerifier verifies bearer tokens. [*sec.TokenService] satisfies it.
type TokenVerifier interface {
	VerifyToken(tokenString string, kind sec.TokenKind) (*sec.AuthClaims, error)
}

// Authenticate extracts and verifies the access token from the Authorization header.
//
// Used by the development backend, which plays the role of the token issuer.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, verify it as an access token via [TokenVerifier].
//  4. Inject [*sec.AuthClaims] into the request context for downstream use.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get("Authorization")

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
				respond.Error(writer, request, apperr.Unauthorized("Authorization header must contain two space-delimited values"))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			claims, err := verifier.VerifyToken(token, sec.KindAccess)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Given token not valid for any token type"))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that carry no verified token.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetAuthUser(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication credentials were not provided."))
			return
		}
		next.ServeHTTP(writer, request)
	})
}
