// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/ManuGH/smartplayer/internal/metrics"
)

// ErrClosed is returned when delivering to a closed Remote.
var ErrClosed = errors.New("media: remote primitive closed")

const remoteCommandTopic = "remote.commands"

// Command is an instruction for the browser-side primitive.
type Command struct {
	Op     string   `json:"op"` // load|play|pause|seek|mute|open
	Time   *float64 `json:"time,omitempty"`
	Muted  *bool    `json:"muted,omitempty"`
	URL    string   `json:"url,omitempty"`
	Source *Source  `json:"source,omitempty"`
}

// Remote mirrors a primitive that runs in a browser. Commands are queued for
// the browser shim; the shim reports notifications back through Deliver.
// The mirror only changes when a notification reports new values, except for
// seeks and mute changes, which take effect locally at once.
type Remote struct {
	mu       sync.RWMutex
	paused   bool
	muted    bool
	current  float64
	duration float64
	closed   bool

	commands chan Command
	inbox    chan Notification
	ready    chan struct{}
	done     chan struct{}
	once     sync.Once
}

// NewRemote returns a paused remote primitive with unknown duration.
func NewRemote(buffer int) *Remote {
	if buffer <= 0 {
		buffer = 64
	}
	return &Remote{
		paused:   true,
		duration: math.NaN(),
		commands: make(chan Command, buffer),
		inbox:    make(chan Notification, buffer),
		ready:    make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

var _ Primitive = (*Remote)(nil)
var _ Loader = (*Remote)(nil)
var _ Queue = (*Remote)(nil)

// Commands is read by the transport that forwards commands to the browser.
func (r *Remote) Commands() <-chan Command { return r.commands }

// Ready receives after Deliver queued a notification.
func (r *Remote) Ready() <-chan struct{} { return r.ready }

// Drain returns the notifications queued so far without blocking.
func (r *Remote) Drain() []Notification {
	var out []Notification
	for {
		select {
		case n := <-r.inbox:
			out = append(out, n)
		default:
			return out
		}
	}
}

// Done is closed by Close.
func (r *Remote) Done() <-chan struct{} { return r.done }

// Deliver applies the reported state and queues the notification for the
// owner. It blocks while the owner's queue is full, until ctx ends.
func (r *Remote) Deliver(ctx context.Context, n Notification) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.apply(n.State)
	r.mu.Unlock()

	select {
	case r.inbox <- n:
		select {
		case r.ready <- struct{}{}:
		default:
		}
		return nil
	case <-r.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Remote) apply(s *Reported) {
	if s == nil {
		return
	}
	if s.CurrentTime != nil && !math.IsNaN(*s.CurrentTime) {
		r.current = *s.CurrentTime
	}
	if s.Duration != nil {
		r.duration = *s.Duration
	}
	if s.Paused != nil {
		r.paused = *s.Paused
	}
	if s.Muted != nil {
		r.muted = *s.Muted
	}
}

// Close stops accepting notifications. Queued commands are discarded by the
// transport once it observes Done.
func (r *Remote) Close() {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()
		close(r.done)
	})
}

func (r *Remote) Load(src Source) error {
	r.mu.Lock()
	r.muted = src.Muted
	r.mu.Unlock()
	s := src
	r.send(Command{Op: "load", Source: &s})
	return nil
}

func (r *Remote) Paused() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.paused
}

func (r *Remote) Muted() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.muted
}

func (r *Remote) CurrentTime() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func (r *Remote) Duration() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.duration
}

// Play asks the browser to start playback. Whether it actually starts is
// reported later by a play or pause notification.
func (r *Remote) Play(context.Context) error {
	r.send(Command{Op: "play"})
	return nil
}

func (r *Remote) Pause() {
	r.send(Command{Op: "pause"})
}

func (r *Remote) SetCurrentTime(t float64) {
	r.mu.Lock()
	r.current = t
	r.mu.Unlock()
	r.send(Command{Op: "seek", Time: &t})
}

func (r *Remote) SetMuted(muted bool) {
	r.mu.Lock()
	r.muted = muted
	r.mu.Unlock()
	r.send(Command{Op: "mute", Muted: &muted})
}

// OpenURL asks the browser to open url in a new browsing context.
func (r *Remote) OpenURL(url string) {
	r.send(Command{Op: "open", URL: url})
}

func (r *Remote) send(cmd Command) {
	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return
	}
	select {
	case r.commands <- cmd:
	default:
		metrics.IncBusDrop(remoteCommandTopic, metrics.DropFull)
	}
}
