// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by spans across the daemon. HTTP attributes come from otelhttp.
const (
	PlayerIDKey     = "player.id"
	PlayerActionKey = "player.action"

	TrackingEventKey = "tracking.event"
	SinkNameKey      = "tracking.sink"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// PlayerAttributes identifies a player and, optionally, the action applied to it.
func PlayerAttributes(playerID, action string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if playerID != "" {
		attrs = append(attrs, attribute.String(PlayerIDKey, playerID))
	}
	if action != "" {
		attrs = append(attrs, attribute.String(PlayerActionKey, action))
	}
	return attrs
}

// DeliveryAttributes describes one record handed to one sink.
func DeliveryAttributes(sink, playerID, event string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(SinkNameKey, sink),
		attribute.String(PlayerIDKey, playerID),
		attribute.String(TrackingEventKey, event),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
