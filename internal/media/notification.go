// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"fmt"
	"strings"
)

// Kind identifies a primitive notification.
type Kind int

const (
	KindUnknown Kind = iota
	// KindPlay is sent when playback begins (the "play" event).
	KindPlay
	// KindPause is sent when playback pauses.
	KindPause
	// KindEnded is sent when playback reaches the end without looping.
	KindEnded
	// KindSeeked is sent after the position was changed by a seek.
	KindSeeked
	// KindTimeUpdate is sent when the position advances.
	KindTimeUpdate
)

var kindNames = map[Kind]string{
	KindPlay:       "play",
	KindPause:      "pause",
	KindEnded:      "ended",
	KindSeeked:     "seeked",
	KindTimeUpdate: "timeupdate",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind maps a DOM-style event name to a Kind.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown media notification %q", s)
}

// Notification is one event reported by a primitive. State carries the
// primitive's reported values when the notification comes from a remote
// primitive; local primitives leave it nil.
type Notification struct {
	Kind  Kind
	State *Reported
}

// Reported is the primitive state as observed by a remote reporter. Nil
// fields were not reported and leave the mirrored value unchanged.
type Reported struct {
	CurrentTime *float64
	Duration    *float64
	Paused      *bool
	Muted       *bool
}
