// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "smartplayer_circuit_breaker_state",
		Help: "Circuit breaker state per sink (1 for the active state)",
	}, []string{"breaker", "state"})

	circuitBreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartplayer_circuit_breaker_trips_total",
		Help: "Circuit breaker transitions to open, by reason",
	}, []string{"breaker", "reason"})
)

var breakerStates = []string{"closed", "half-open", "open"}

// SetCircuitBreakerState marks state as the active state of breaker.
func SetCircuitBreakerState(breaker, state string) {
	for _, s := range breakerStates {
		v := 0.0
		if s == state {
			v = 1
		}
		circuitBreakerState.WithLabelValues(breaker, s).Set(v)
	}
}

// RecordCircuitBreakerTrip counts one transition to open.
func RecordCircuitBreakerTrip(breaker, reason string) {
	circuitBreakerTrips.WithLabelValues(breaker, reason).Inc()
}
