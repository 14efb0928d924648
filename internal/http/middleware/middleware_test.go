package middleware_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arcadia-crm/quote-api/internal/config"
	"github.com/arcadia-crm/quote-api/internal/http/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityHeaders(t *testing.T) {
	handler := middleware.SecurityHeaders(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'self'", rec.Header().Get("Content-Security-Policy"))
	assert.NotEmpty(t, rec.Header().Get("Referrer-Policy"))
	assert.Empty(t, rec.Header().Get("X-Powered-By"))
}

func TestCORS(t *testing.T) {
	log := zap.NewNop()

	t.Run("explicit origin is allowed", func(t *testing.T) {
		cfg := &config.CORSConfig{
			AllowedOrigins: []string{"https://app.arcadia-crm.io"},
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		}
		handler := middleware.CORS(cfg, "production", log)(okHandler())

		req := httptest.NewRequest(http.MethodOptions, "/api/v1/quotes", nil)
		req.Header.Set("Origin", "https://app.arcadia-crm.io")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "https://app.arcadia-crm.io", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin is rejected", func(t *testing.T) {
		cfg := &config.CORSConfig{AllowedOrigins: []string{"https://app.arcadia-crm.io"}}
		handler := middleware.CORS(cfg, "production", log)(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("no origins configured denies in production", func(t *testing.T) {
		handler := middleware.CORS(&config.CORSConfig{}, "production", log)(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
		req.Header.Set("Origin", "https://app.arcadia-crm.io")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("no origins configured allows in development", func(t *testing.T) {
		handler := middleware.CORS(&config.CORSConfig{}, "development", log)(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRateLimiter(t *testing.T) {
	log := zap.NewNop()

	t.Run("disabled limiter passes everything through", func(t *testing.T) {
		rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1}, log)
		handler := rl.Limit(okHandler())

		for i := 0; i < 5; i++ {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil))
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("over the limit returns 429", func(t *testing.T) {
		rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 3}, log)
		handler := rl.Limit(okHandler())

		var last int
		for i := 0; i < 5; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			last = rec.Code
		}
		assert.Equal(t, http.StatusTooManyRequests, last)
	})

	t.Run("whitelisted paths bypass the limit", func(t *testing.T) {
		rl := middleware.NewRateLimiter(&config.RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 1,
			WhitelistPaths:    []string{"/health"},
		}, log)
		handler := rl.Limit(okHandler())

		for i := 0; i < 5; i++ {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.RemoteAddr = "10.0.0.2:1234"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("limits are tracked per client ip", func(t *testing.T) {
		rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}, log)
		handler := rl.Limit(okHandler())

		for i := 0; i < 4; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
			req.RemoteAddr = fmt.Sprintf("10.0.1.%d:1234", i)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})
}

func TestRecovery(t *testing.T) {
	handler := middleware.Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
