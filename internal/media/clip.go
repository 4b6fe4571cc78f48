// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"context"
	"math"
	"sync"
)

// Clip is a deterministic in-process primitive. Time only moves when Advance
// is called, and notifications are queued until Drain. Each notification
// carries the clip state at the moment it was queued.
type Clip struct {
	mu       sync.Mutex
	src      Source
	duration float64
	current  float64
	paused   bool
	muted    bool
	ended    bool
	pending  []Notification
	ready    chan struct{}

	// RequireGesture makes Play fail with ErrPlaybackBlocked when the clip is
	// unmuted and the call did not come from a user gesture, the way browsers
	// restrict autoplay with sound.
	RequireGesture bool
}

// NewClip returns a paused clip of the given duration in seconds. A NaN
// duration models media whose metadata has not loaded.
func NewClip(duration float64) *Clip {
	return &Clip{duration: duration, paused: true, ready: make(chan struct{}, 1)}
}

var _ Primitive = (*Clip)(nil)
var _ Loader = (*Clip)(nil)
var _ Queue = (*Clip)(nil)

// Load applies the source settings.
func (c *Clip) Load(src Source) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.src = src
	c.muted = src.Muted
	return nil
}

func (c *Clip) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

func (c *Clip) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

func (c *Clip) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Clip) Duration() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

// Play starts playback. Playing an ended clip restarts it from the beginning.
func (c *Clip) Play(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.RequireGesture && !c.muted && !UserGesture(ctx) {
		return ErrPlaybackBlocked
	}
	if !c.paused {
		return nil
	}
	if c.ended {
		c.ended = false
		c.current = 0
		c.queue(KindSeeked, KindTimeUpdate)
	}
	c.paused = false
	c.queue(KindPlay)
	return nil
}

func (c *Clip) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		return
	}
	c.paused = true
	c.queue(KindPause)
}

// SetCurrentTime seeks, clamping to the media bounds.
func (c *Clip) SetCurrentTime(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if math.IsNaN(t) {
		return
	}
	if t < 0 {
		t = 0
	}
	if c.known() && t > c.duration {
		t = c.duration
	}
	c.current = t
	c.ended = false
	c.queue(KindSeeked, KindTimeUpdate)
}

func (c *Clip) SetMuted(muted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muted = muted
}

// Advance moves a playing clip forward by d seconds, looping or ending at the
// end of the media.
func (c *Clip) Advance(d float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused || d <= 0 || !c.known() {
		return
	}
	c.current += d
	if c.current < c.duration {
		c.queue(KindTimeUpdate)
		return
	}
	c.current = c.duration
	c.queue(KindTimeUpdate)
	if c.src.Loop {
		c.current = 0
		c.queue(KindSeeked, KindTimeUpdate)
		return
	}
	c.paused = true
	c.ended = true
	c.queue(KindPause, KindEnded)
}

// Ready receives after Advance or a command queued notifications.
func (c *Clip) Ready() <-chan struct{} { return c.ready }

// Drain returns and clears the queued notifications.
func (c *Clip) Drain() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.pending
	c.pending = nil
	return out
}

func (c *Clip) known() bool {
	return !math.IsNaN(c.duration) && !math.IsInf(c.duration, 0) && c.duration > 0
}

func (c *Clip) queue(kinds ...Kind) {
	for _, k := range kinds {
		current, duration, paused, muted := c.current, c.duration, c.paused, c.muted
		c.pending = append(c.pending, Notification{
			Kind: k,
			State: &Reported{
				CurrentTime: &current,
				Duration:    &duration,
				Paused:      &paused,
				Muted:       &muted,
			},
		})
	}
	if len(kinds) > 0 {
		select {
		case c.ready <- struct{}{}:
		default:
		}
	}
}
