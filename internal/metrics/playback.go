// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PlayersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "smartplayer_players_active",
		Help: "Number of player instances currently registered with the host",
	})

	AutoplayRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartplayer_autoplay_rejected_total",
		Help: "Play attempts rejected by the media primitive, by trigger",
	}, []string{"trigger"}) // trigger=load|viewport|command

	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartplayer_commands_total",
		Help: "Control facade commands accepted by the host, by action",
	}, []string{"action"})
)

// IncAutoplayRejected records a rejected play attempt.
func IncAutoplayRejected(trigger string) {
	AutoplayRejectedTotal.WithLabelValues(trigger).Inc()
}

// IncCommand records a facade command.
func IncCommand(action string) {
	CommandsTotal.WithLabelValues(action).Inc()
}
