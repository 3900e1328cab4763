// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/recipehub/internal/platform/apperr"
	"github.com/taibuivan/recipehub/internal/platform/constants"
	"github.com/taibuivan/recipehub/internal/platform/ctxutil"
	"github.com/taibuivan/recipehub/internal/platform/respond"
	"github.com/taibuivan/recipehub/internal/platform/sec"
)

// Authenticator resolves a bearer token into an identity.
//
// TryAuthenticate never fails: a bad signature, an expired token and a revoked
// session all yield (nil, false).
type Authenticator interface {
	TryAuthenticate(context context.Context, token string) (*sec.Identity, bool)
}

// Authenticate extracts the bearer token and resolves it into a [sec.Identity].
//
// # Flow
//  1. No 'Authorization' header: the request proceeds as anonymous.
//  2. Malformed header or unresolvable token: HTTP 401.
//  3. Otherwise the identity is injected into the context and the request
//     logger gains a user_id attribute.
//
// Session validity is re-checked on every request, so a revoked token stops
// working immediately even though its signature is still valid.
func Authenticate(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// ── 3. Token & Session Verification ───────────────────────────────
			identity, ok := authenticator.TryAuthenticate(request.Context(), strings.TrimSpace(token))
			if !ok {
				respond.Error(writer, request, apperr.InvalidToken("Invalid or expired token"))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithIdentity(request.Context(), identity)
			ctx = ctxutil.WithLogger(ctx, ctxutil.GetLogger(ctx).With(slog.String("user_id", identity.UserID)))
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if _, ok := ctxutil.GetIdentity(request.Context()); !ok {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}
