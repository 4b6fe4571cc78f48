// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tracking

import (
	"context"
	"math"
	"time"
)

// Record is one tracked event as it travels to the host-side sinks.
type Record struct {
	PlayerID string         `json:"playerId"`
	Event    string         `json:"event"`
	Payload  map[string]any `json:"payload"`
	At       time.Time      `json:"at"`
}

// Sink receives tracked records.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, rec Record) error
}

// Sanitize returns a copy of payload where non-finite floats are replaced by
// nil so the payload can be JSON encoded.
func Sanitize(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			out[k] = nil
			continue
		}
		out[k] = v
	}
	return out
}
