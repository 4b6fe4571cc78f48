// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsTrackedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartplayer_events_tracked_total",
		Help: "Tracking events handed to the analytics sink, by event name",
	}, []string{"event"})

	SinkDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartplayer_sink_deliveries_total",
		Help: "Tracking record deliveries per sink by result",
	}, []string{"sink", "result"}) // result=ok|error

	CollectorDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartplayer_collector_dropped_total",
		Help: "Tracking records dropped before reaching the collector, by reason",
	}, []string{"reason"}) // reason=queue_full|rate_limited|breaker_open|closed
)

// IncEventTracked records one event handed to an analytics sink.
func IncEventTracked(event string) {
	if event == "" {
		event = "unknown"
	}
	EventsTrackedTotal.WithLabelValues(event).Inc()
}

// ObserveSinkDelivery records the outcome of one sink delivery.
func ObserveSinkDelivery(sink string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	SinkDeliveriesTotal.WithLabelValues(sink, result).Inc()
}

// IncCollectorDropped records a collector-side drop.
func IncCollectorDropped(reason string) {
	CollectorDroppedTotal.WithLabelValues(reason).Inc()
}
