// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RateLimitExceededTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartplayer_ratelimit_exceeded_total",
		Help: "Ingest requests rejected by the rate limiter",
	}, []string{"limit_type", "kind"}) // limit_type=global|per_player

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartplayer_http_requests_total",
		Help: "Control API requests by route and status class",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "smartplayer_http_request_duration_seconds",
		Help:    "Control API request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "smartplayer_websocket_clients",
		Help: "Connected websocket shims",
	})
)

// IncRateLimited records one rejected ingest request.
func IncRateLimited(limitType, kind string) {
	RateLimitExceededTotal.WithLabelValues(limitType, kind).Inc()
}
