// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop reasons shared by the bus and the browser command queue.
const (
	DropFull     = "full"
	DropTimeout  = "timeout"
	DropCanceled = "canceled"
)

var (
	BusDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartplayer_bus_dropped_total",
		Help: "Messages dropped between players and their consumers, by topic class and reason",
	}, []string{"topic", "reason"})
)

// TopicClass folds per-player topics ("player.<id>") into "player" so the
// label stays bounded no matter how many players are created.
func TopicClass(topic string) string {
	if topic == "" {
		return "unknown"
	}
	if class, _, ok := strings.Cut(topic, "."); ok {
		return class
	}
	return topic
}

// IncBusDrop records one dropped message. An empty reason is reported as "unknown".
func IncBusDrop(topic, reason string) {
	if reason == "" {
		reason = "unknown"
	}
	BusDroppedTotal.WithLabelValues(TopicClass(topic), reason).Inc()
}
