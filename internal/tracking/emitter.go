// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package tracking delivers playback events to an external analytics
// collector. Delivery is fire-and-forget.
package tracking

import (
	"github.com/ManuGH/smartplayer/internal/metrics"
)

// Tracker is the analytics sink contract.
type Tracker interface {
	Track(event string, payload map[string]any)
}

// TrackerFunc adapts a function to Tracker.
type TrackerFunc func(event string, payload map[string]any)

func (f TrackerFunc) Track(event string, payload map[string]any) { f(event, payload) }

// Emitter gates a Tracker behind the tracking-enabled flag. An Emitter with
// tracking disabled or without a tracker drops every event silently.
type Emitter struct {
	enabled bool
	tracker Tracker
}

// NewEmitter returns an emitter for tracker. tracker may be nil.
func NewEmitter(enabled bool, tracker Tracker) *Emitter {
	return &Emitter{enabled: enabled, tracker: tracker}
}

// Enabled reports whether events reach the tracker.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled && e.tracker != nil
}

// Emit forwards one event.
func (e *Emitter) Emit(event string, payload map[string]any) {
	if !e.Enabled() {
		return
	}
	metrics.IncEventTracked(event)
	e.tracker.Track(event, payload)
}
