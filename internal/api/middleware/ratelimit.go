// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ManuGH/smartplayer/internal/log"
	"github.com/ManuGH/smartplayer/internal/metrics"
	"github.com/ManuGH/smartplayer/internal/ratelimit"
	"github.com/go-chi/httprate"
)

// RateLimitConfig bounds control API requests per client.
type RateLimitConfig struct {
	RequestLimit int
	WindowSize   time.Duration
	// KeyFunc picks the bucket. Defaults to the client IP.
	KeyFunc httprate.KeyFunc
}

// RateLimit applies a sliding window limit to every route except the probes.
// Rejections use the API error envelope so shims can treat them like any other
// rate_limited answer.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}
	retryAfter := strconv.Itoa(max(int(cfg.WindowSize.Seconds()), 1))

	limiter := httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowSize,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.IncRateLimited("global", "http")
			logger := log.WithComponentFromContext(r.Context(), "api")
			logger.Warn().
				Str(log.FieldEvent, "api.rate_limited").
				Str(log.FieldPath, r.URL.Path).
				Msg("client exceeded request limit")

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", retryAfter)
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limited","detail":"too many requests"}`))
		}),
	)

	return func(next http.Handler) http.Handler {
		limited := limiter(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProbe(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}

// clientKey picks the rate limit key. Behind a trusted proxy the forwarded
// client address is used; otherwise the peer address.
func clientKey(trustProxy bool) httprate.KeyFunc {
	if !trustProxy {
		return httprate.KeyByIP
	}
	return func(r *http.Request) (string, error) {
		return ratelimit.GetClientIP(r), nil
	}
}

// isProbe reports whether path belongs to an orchestrator probe or scrape.
func isProbe(path string) bool {
	switch path {
	case "/healthz", "/readyz", "/metrics":
		return true
	}
	return false
}
