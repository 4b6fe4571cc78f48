// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ratelimit bounds how fast shims may push state into the host.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ManuGH/smartplayer/internal/metrics"
	"golang.org/x/time/rate"
)

// Config holds rate limiting configuration.
type Config struct {
	// GlobalRate bounds all ingest across players. Zero means unlimited.
	GlobalRate  rate.Limit
	GlobalBurst int

	// PerKeyRate bounds ingest for one player. Zero means unlimited.
	PerKeyRate  rate.Limit
	PerKeyBurst int

	// IdleTTL is how long an unused per-key limiter is kept.
	IdleTTL time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		GlobalRate:  500,
		GlobalBurst: 1000,
		PerKeyRate:  20,
		PerKeyBurst: 40,
		IdleTTL:     5 * time.Minute,
	}
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter manages per-player token buckets plus one global bucket.
type Limiter struct {
	config Config
	global *rate.Limiter
	now    func() time.Time

	mu          sync.Mutex
	perKey      map[string]*entry
	lastCleanup time.Time
}

// New creates a new rate limiter with the given config.
func New(config Config) *Limiter {
	l := &Limiter{
		config: config,
		now:    time.Now,
		perKey: make(map[string]*entry),
	}
	if config.GlobalRate > 0 {
		l.global = rate.NewLimiter(config.GlobalRate, max(config.GlobalBurst, 1))
	}
	l.lastCleanup = l.now()
	return l
}

// Allow reports whether one request of the given kind for key may proceed.
func (l *Limiter) Allow(key, kind string) bool {
	if l == nil {
		return true
	}
	if l.global != nil && !l.global.Allow() {
		metrics.IncRateLimited("global", kind)
		return false
	}
	if l.config.PerKeyRate <= 0 {
		return true
	}

	l.mu.Lock()
	now := l.now()
	e, ok := l.perKey[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.config.PerKeyRate, max(l.config.PerKeyBurst, 1))}
		l.perKey[key] = e
	}
	e.lastSeen = now
	l.cleanupLocked(now)
	l.mu.Unlock()

	if !e.limiter.AllowN(now, 1) {
		metrics.IncRateLimited("per_player", kind)
		return false
	}
	return true
}

// Forget drops the limiter for key.
func (l *Limiter) Forget(key string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	delete(l.perKey, key)
	l.mu.Unlock()
}

// Tracked returns the number of per-key limiters held.
func (l *Limiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.perKey)
}

func (l *Limiter) cleanupLocked(now time.Time) {
	if l.config.IdleTTL <= 0 || now.Sub(l.lastCleanup) < l.config.IdleTTL {
		return
	}
	for k, e := range l.perKey {
		if now.Sub(e.lastSeen) >= l.config.IdleTTL {
			delete(l.perKey, k)
		}
	}
	l.lastCleanup = now
}

// GetClientIP extracts the client IP from the request, honoring
// X-Forwarded-For and X-Real-IP.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
