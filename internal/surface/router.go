// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package surface maps gestures on the rendered widget to player commands
// and keeps the view state of the overlay controls.
package surface

import (
	"context"
	"math"

	"github.com/ManuGH/smartplayer/internal/media"
	"github.com/ManuGH/smartplayer/internal/widget"
)

// Gesture is a click on the widget. Path lists the element kinds from the
// clicked element up to the widget root. OffsetX and Width are only read for
// progress bar clicks.
type Gesture struct {
	Path    []string `json:"path"`
	OffsetX float64  `json:"offsetX"`
	Width   float64  `json:"width"`
}

// Control returns the first control on the path, if any.
func (g Gesture) Control() (widget.Control, bool) {
	for _, el := range g.Path {
		for _, c := range widget.Controls {
			if el == string(c) {
				return c, true
			}
		}
	}
	return "", false
}

// Action is what a gesture resolved to.
type Action string

const (
	ActionNone            Action = "none"
	ActionTogglePlayPause Action = "toggle-play-pause"
	ActionToggleMute      Action = "toggle-mute"
	ActionSeek            Action = "seek"
	ActionReplay          Action = "replay"
	ActionOpenExit        Action = "open-exit"
)

// Facade is the part of the player the router drives.
type Facade interface {
	TogglePlayPause(ctx context.Context)
	ToggleMute()
	SeekTo(t float64)
	Replay(ctx context.Context)
	Duration() float64
}

// ExitOpener opens a URL in a new browsing context.
type ExitOpener interface {
	OpenURL(url string)
}

// Router dispatches gestures for one widget.
type Router struct {
	cfg    widget.Config
	facade Facade
	exit   ExitOpener
}

// NewRouter returns a router. exit may be nil; a configured exit URL is then
// never opened and non-control clicks do nothing.
func NewRouter(cfg widget.Config, facade Facade, exit ExitOpener) *Router {
	return &Router{cfg: cfg, facade: facade, exit: exit}
}

// Dispatch performs the action for g and returns it.
func (r *Router) Dispatch(ctx context.Context, g Gesture) Action {
	if r.facade == nil {
		return ActionNone
	}
	ctx = media.WithUserGesture(ctx)

	ctrl, ok := g.Control()
	if !ok {
		if r.cfg.ExitURL != "" {
			if r.exit == nil {
				return ActionNone
			}
			r.exit.OpenURL(r.cfg.ExitURL)
			return ActionOpenExit
		}
		r.facade.TogglePlayPause(ctx)
		return ActionTogglePlayPause
	}

	switch ctrl {
	case widget.ControlPlayPause:
		r.facade.TogglePlayPause(ctx)
		return ActionTogglePlayPause
	case widget.ControlMuteUnmute:
		r.facade.ToggleMute()
		return ActionToggleMute
	case widget.ControlProgressBar:
		t, ok := SeekTarget(g.OffsetX, g.Width, r.facade.Duration())
		if !ok {
			return ActionNone
		}
		r.facade.SeekTo(t)
		return ActionSeek
	case widget.ControlReplay:
		r.facade.Replay(ctx)
		return ActionReplay
	default:
		// The countdown swallows clicks.
		return ActionNone
	}
}

// SeekTarget converts a click offset on the progress bar into a media time.
func SeekTarget(offsetX, width, duration float64) (float64, bool) {
	if !(width > 0) || math.IsInf(width, 0) || math.IsNaN(offsetX) || math.IsInf(offsetX, 0) {
		return 0, false
	}
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration <= 0 {
		return 0, false
	}
	frac := math.Min(math.Max(offsetX/width, 0), 1)
	return frac * duration, true
}
