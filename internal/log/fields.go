// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldPlayerID  = "player_id"
	FieldRequestID = "request_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldSink      = "sink"
	FieldTopic     = "topic"

	// Playback fields
	FieldAction      = "action"
	FieldCurrentTime = "current_time"
	FieldDuration    = "duration"
	FieldPolicy      = "policy"
	FieldTrigger     = "trigger"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Path / URL fields
	FieldPath = "path"
	FieldURL  = "url"
)
