// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/recipehub/internal/platform/ctxutil"
	"github.com/taibuivan/recipehub/internal/platform/middleware"
	"github.com/taibuivan/recipehub/internal/platform/sec"
)

type stubAuthenticator struct {
	tokens map[string]*sec.Identity
}

func (stub stubAuthenticator) TryAuthenticate(_ context.Context, token string) (*sec.Identity, bool) {
	identity, ok := stub.tokens[token]
	return identity, ok
}

type devConfig bool

func (d devConfig) IsDevelopment() bool { return bool(d) }

func identityEcho() http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		identity, ok := ctxutil.GetIdentity(request.Context())
		if !ok {
			_, _ = io.WriteString(writer, "anonymous")
			return
		}
		_, _ = io.WriteString(writer, identity.UserID)
	})
}

/*
TestAuthenticate covers anonymous, malformed, rejected and accepted bearer tokens.
*/
func TestAuthenticate(t *testing.T) {
	authenticator := stubAuthenticator{tokens: map[string]*sec.Identity{
		"good": {UserID: "user-1", TokenID: "jti-1"},
	}}
	handler := middleware.Authenticate(authenticator)(identityEcho())

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"anonymous", "", http.StatusOK, "anonymous"},
		{"valid_token", "Bearer good", http.StatusOK, "user-1"},
		{"lowercase_scheme", "bearer good", http.StatusOK, "user-1"},
		{"revoked_or_unknown", "Bearer revoked", http.StatusUnauthorized, ""},
		{"wrong_scheme", "Basic good", http.StatusUnauthorized, ""},
		{"missing_token", "Bearer", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tt.header != "" {
				request.Header.Set("Authorization", tt.header)
			}
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.status, recorder.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, recorder.Body.String())
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	handler := middleware.RequireAuth(identityEcho())

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	request := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	request = request.WithContext(ctxutil.WithIdentity(request.Context(), &sec.Identity{UserID: "user-1"}))
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

/*
TestRateLimit_PerInstanceBuckets verifies the burst per IP and isolation between IPs.
*/
func TestRateLimit_PerInstanceBuckets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := middleware.RateLimit(ctx, 0.001, 2)(identityEcho())

	call := func(ip string) *httptest.ResponseRecorder {
		request := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		request.RemoteAddr = ip + ":40000"
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		return recorder
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, call("10.0.0.1").Code)

	limited := call("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, call("10.0.0.2").Code)
}

/*
TestRateLimit_IgnoresUntrustedProxyHeaders ensures a client cannot get a fresh
bucket by rotating X-Real-IP or X-Forwarded-For.
*/
func TestRateLimit_IgnoresUntrustedProxyHeaders(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
	handler := middleware.ClientIP(trusted)(middleware.RateLimit(ctx, 0.001, 1)(identityEcho()))

	call := func(spoofed string) int {
		request := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		request.RemoteAddr = "198.51.100.20:40000"
		request.Header.Set("X-Real-IP", spoofed)
		request.Header.Set("X-Forwarded-For", spoofed)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		return recorder.Code
	}

	assert.Equal(t, http.StatusOK, call("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("203.0.113.2"))
	assert.Equal(t, http.StatusTooManyRequests, call("203.0.113.3"))
}

/*
TestClientIP covers peer fallback, trusted proxy headers and malformed values.
*/
func TestClientIP(t *testing.T) {
	trusted := []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("fd00::/8"),
	}
	handler := middleware.ClientIP(trusted)(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = io.WriteString(writer, middleware.RealIP(request))
	}))

	overlong := strings.Repeat("9", 60)

	tests := []struct {
		name       string
		remoteAddr string
		realIP     string
		forwarded  string
		want       string
	}{
		{"direct_peer", "198.51.100.20:40000", "", "", "198.51.100.20"},
		{"untrusted_real_ip_ignored", "198.51.100.20:40000", "203.0.113.7", "", "198.51.100.20"},
		{"untrusted_forwarded_ignored", "198.51.100.20:40000", "", "203.0.113.7", "198.51.100.20"},
		{"untrusted_overlong_header", "198.51.100.20:40000", overlong, overlong, "198.51.100.20"},
		{"trusted_real_ip", "10.1.2.3:40000", "203.0.113.7", "", "203.0.113.7"},
		{"trusted_real_ip_canonicalised", "10.1.2.3:40000", " ::ffff:203.0.113.7 ", "", "203.0.113.7"},
		{"trusted_forwarded_skips_own_hops", "10.1.2.3:40000", "", "192.0.2.99, 203.0.113.7, 10.0.0.5", "203.0.113.7"},
		{"trusted_overlong_falls_back", "10.1.2.3:40000", overlong, overlong, "10.1.2.3"},
		{"trusted_ipv6_peer", "[fd00::1]:40000", "2001:db8::7", "", "2001:db8::7"},
		{"ipv6_peer_zone_dropped", "[fe80::1%eth0]:40000", "", "", "fe80::1"},
		{"unparseable_peer", "not-an-address", "203.0.113.7", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				request.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				request.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.want, recorder.Body.String())
			assert.LessOrEqual(t, len(recorder.Body.String()), 45)
		})
	}
}

/*
TestRealIP_WithoutClientIP falls back to the direct peer and ignores headers.
*/
func TestRealIP_WithoutClientIP(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "198.51.100.20:40000"
	request.Header.Set("X-Real-IP", "203.0.113.7")

	assert.Equal(t, "198.51.100.20", middleware.RealIP(request))
}

func TestCORS(t *testing.T) {
	handler := middleware.CORS(devConfig(false), []string{"https://partner.example.com"})(identityEcho())

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://recipehub.app", true},
		{"https://www.recipehub.app", true},
		{"https://partner.example.com", true},
		{"https://evilrecipehub.app", false},
		{"http://recipehub.app", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			request.Header.Set("Origin", tt.origin)
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			if tt.allowed {
				assert.Equal(t, tt.origin, recorder.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestPanicRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := middleware.PanicRecovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	recorder := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), "boom")
}

func TestRequestID(t *testing.T) {
	handler := middleware.RequestID()(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = io.WriteString(writer, ctxutil.GetRequestID(request.Context()))
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, recorder.Body.String())
	assert.Equal(t, recorder.Body.String(), recorder.Header().Get("X-Request-ID"))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("X-Request-ID", "client-id")
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Equal(t, "client-id", recorder.Body.String())
}
