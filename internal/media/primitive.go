// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package media defines the contract of the native playback primitive the
// player wraps, plus two implementations: Clip, an in-process simulation, and
// Remote, a mirror of a primitive that lives in a browser and is driven over
// the host API.
package media

import (
	"context"
	"errors"
)

// ErrPlaybackBlocked is returned by Play when the platform refuses to start
// playback (for example an autoplay policy that requires a user gesture).
var ErrPlaybackBlocked = errors.New("media: playback blocked by platform")

// Primitive is the playback object a player owns for its whole lifetime.
//
// Implementations never deliver notifications synchronously from inside a
// method call; they are queued and handed to the owner in order.
type Primitive interface {
	Paused() bool
	Muted() bool
	CurrentTime() float64
	// Duration is NaN while unknown.
	Duration() float64

	// Play may complete asynchronously; a nil error only means the request
	// was accepted.
	Play(ctx context.Context) error
	Pause()
	SetCurrentTime(t float64)
	SetMuted(muted bool)
}

// Queue is implemented by primitives that buffer notifications until their
// owner takes them. Ready receives after a notification was queued and Drain
// removes everything queued so far without blocking.
type Queue interface {
	Ready() <-chan struct{}
	Drain() []Notification
}

// Source carries the load-time settings of a primitive.
type Source struct {
	URI     string
	Muted   bool
	Loop    bool
	Preload bool
	// Autoplay mirrors the on-load autoplay attribute.
	Autoplay bool
}

// Loader is implemented by primitives that accept a source at initialization.
type Loader interface {
	Load(src Source) error
}

type gestureKey struct{}

// WithUserGesture marks ctx as originating from a user gesture.
func WithUserGesture(ctx context.Context) context.Context {
	return context.WithValue(ctx, gestureKey{}, true)
}

// UserGesture reports whether ctx was marked by WithUserGesture.
func UserGesture(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(gestureKey{}).(bool)
	return v
}
