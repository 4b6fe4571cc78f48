// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tracking

// Event names reported to the analytics sink.
const (
	EventVideoStart    = "VideoStart"
	EventFirstQuartile = "firstQuartile"
	EventMidpoint      = "midpoint"
	EventThirdQuartile = "thirdQuartile"
	EventCompleted     = "completed"
	EventPause         = "pause"
	EventResume        = "resume"
	EventMute          = "mute"
	EventUnmute        = "unmute"
	EventReplay        = "replay"
	EventVideoEnded    = "VideoEnded"
)

// Payload keys.
const (
	KeyValue       = "value"
	KeyCurrentTime = "currentTime"
	KeyDuration    = "duration"
	KeyMuted       = "muted"
)

// Snapshot is the playback position at emission time.
type Snapshot struct {
	CurrentTime float64
	Duration    float64
}

// Payload returns the {currentTime, duration} payload.
func (s Snapshot) Payload() map[string]any {
	return map[string]any{
		KeyCurrentTime: s.CurrentTime,
		KeyDuration:    s.Duration,
	}
}

// WithValue returns the snapshot payload plus a milestone value.
func (s Snapshot) WithValue(v int) map[string]any {
	p := s.Payload()
	p[KeyValue] = v
	return p
}

// WithMuted returns the snapshot payload plus the muted flag.
func (s Snapshot) WithMuted(muted bool) map[string]any {
	p := s.Payload()
	p[KeyMuted] = muted
	return p
}
