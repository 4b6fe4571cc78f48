// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package player

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuGH/smartplayer/internal/metrics"
)

// ErrUnknownAction is returned by Exec for an unrecognized action.
var ErrUnknownAction = errors.New("unknown player action")

// Actions accepted by Exec.
const (
	ActionPlay            = "play"
	ActionPause           = "pause"
	ActionTogglePlayPause = "toggle-play-pause"
	ActionSeek            = "seek"
	ActionRewind          = "rewind"
	ActionMute            = "mute"
	ActionUnmute          = "unmute"
	ActionToggleMute      = "toggle-mute"
	ActionReplay          = "replay"
)

// Command is an external request against the facade.
type Command struct {
	Action  string   `json:"action" validate:"required"`
	Time    *float64 `json:"time,omitempty"`
	Seconds *float64 `json:"seconds,omitempty"`
}

// Exec runs c. Numeric arguments follow the facade's rules: a seek without a
// time is ignored and a rewind without seconds uses RewindDefault.
func (p *Player) Exec(ctx context.Context, c Command) error {
	switch c.Action {
	case ActionPlay:
		p.Play(ctx)
	case ActionPause:
		p.Pause()
	case ActionTogglePlayPause:
		p.TogglePlayPause(ctx)
	case ActionSeek:
		if c.Time != nil {
			p.SeekTo(*c.Time)
		}
	case ActionRewind:
		seconds := RewindDefault
		if c.Seconds != nil {
			seconds = *c.Seconds
		}
		p.Rewind(seconds)
	case ActionMute:
		p.Mute()
	case ActionUnmute:
		p.Unmute()
	case ActionToggleMute:
		p.ToggleMute()
	case ActionReplay:
		p.Replay(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, c.Action)
	}
	metrics.IncCommand(c.Action)
	return nil
}
