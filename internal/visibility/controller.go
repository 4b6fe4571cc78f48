// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package visibility plays and pauses a player as its widget enters and
// leaves the viewport.
package visibility

import (
	"context"
	"fmt"
	"sync"

	"github.com/ManuGH/smartplayer/internal/log"
	"github.com/ManuGH/smartplayer/internal/metrics"
	"github.com/ManuGH/smartplayer/internal/widget"
	"github.com/rs/zerolog"
)

// Target is the command surface the controller drives.
type Target interface {
	// Autoplay starts playback without a user gesture.
	Autoplay(ctx context.Context) error
	Pause()
	Playing() bool
}

// Policy is one row of the policy table.
type Policy struct {
	Name    string
	Enabled func(cfg widget.Config) bool
	Match   func(e Entry, t Target) bool
	Act     func(ctx context.Context, t Target) error
}

// Policy names.
const (
	PolicyPlayOnEnter = "play-on-enter"
	PolicyPauseOnExit = "pause-on-exit"
)

// Policies is the default policy table. The two rows are independent.
var Policies = []Policy{
	{
		Name:    PolicyPlayOnEnter,
		Enabled: func(cfg widget.Config) bool { return cfg.Autoplay == widget.AutoplayViewport },
		Match:   func(e Entry, _ Target) bool { return e.IsIntersecting && e.IntersectionRatio > 0 },
		Act:     func(ctx context.Context, t Target) error { return t.Autoplay(ctx) },
	},
	{
		Name:    PolicyPauseOnExit,
		Enabled: func(cfg widget.Config) bool { return cfg.AutoPauseOutOfView },
		Match:   func(e Entry, t Target) bool { return e.IntersectionRatio == 0 && t.Playing() },
		Act:     func(_ context.Context, t Target) error { t.Pause(); return nil },
	},
}

// Controller owns the intersection subscription of one widget.
type Controller struct {
	target   Target
	observer Observer
	active   []Policy
	logger   zerolog.Logger

	mu     sync.RWMutex
	sub    Subscription
	ctx    context.Context
	closed bool
}

// NewController selects the policies enabled by cfg. observer may be nil,
// in which case the controller never subscribes.
func NewController(cfg widget.Config, target Target, observer Observer) *Controller {
	c := &Controller{
		target:   target,
		observer: observer,
		logger:   log.WithComponent("visibility"),
	}
	if !cfg.ObservesViewport() {
		return c
	}
	for _, p := range Policies {
		if p.Enabled(cfg) {
			c.active = append(c.active, p)
		}
	}
	return c
}

// Active returns the names of the enabled policies.
func (c *Controller) Active() []string {
	names := make([]string, 0, len(c.active))
	for _, p := range c.active {
		names = append(names, p.Name)
	}
	return names
}

// Start subscribes when at least one policy is enabled. ctx is used for the
// play commands issued from observations.
func (c *Controller) Start(ctx context.Context) error {
	if len(c.active) == 0 || c.observer == nil || c.target == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.sub != nil {
		return nil
	}
	sub, err := c.observer.Observe(DefaultOptions(), c.handle)
	if err != nil {
		return fmt.Errorf("observe viewport: %w", err)
	}
	c.sub = sub
	c.ctx = ctx
	return nil
}

// Subscribed reports whether an intersection subscription is live.
func (c *Controller) Subscribed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sub != nil && !c.closed
}

func (c *Controller) handle(entries []Entry) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	for _, e := range entries {
		for _, p := range c.active {
			if !p.Match(e, c.target) {
				continue
			}
			if err := p.Act(c.ctx, c.target); err != nil {
				metrics.IncAutoplayRejected("viewport")
				c.logger.Debug().
					Err(err).
					Str(log.FieldPolicy, p.Name).
					Float64("ratio", e.IntersectionRatio).
					Msg("viewport policy action failed")
			}
		}
	}
}

// Close unsubscribes. It waits for an in-flight observation to finish, so no
// action runs after Close returns.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.sub == nil {
		return nil
	}
	return c.sub.Close()
}
