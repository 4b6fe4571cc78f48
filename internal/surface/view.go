// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package surface

import (
	"math"

	"github.com/ManuGH/smartplayer/internal/media"
	"github.com/ManuGH/smartplayer/internal/widget"
)

// RingCircumference is the stroke length of the countdown ring.
const RingCircumference = 100.53

// Icon is the glyph shown on the play/pause button.
type Icon string

const (
	IconPlay  Icon = "play"
	IconPause Icon = "pause"
)

// Countdown is the remaining-time ring.
type Countdown struct {
	Remaining  int     `json:"remaining"`
	DashOffset float64 `json:"dashOffset"`
}

// CountdownAt computes the ring for a position. ok is false while the
// duration is unknown.
func CountdownAt(currentTime, duration float64) (Countdown, bool) {
	frac, ok := fraction(currentTime, duration)
	if !ok {
		return Countdown{}, false
	}
	remaining := math.Floor(duration - currentTime)
	if remaining < 0 {
		remaining = 0
	}
	return Countdown{
		Remaining:  int(remaining),
		DashOffset: RingCircumference - frac*RingCircumference,
	}, true
}

// View is the display state of the overlay controls.
type View struct {
	PlayPause        bool      `json:"playPause"`
	MuteUnmute       bool      `json:"muteUnmute"`
	ProgressBar      bool      `json:"progressBar"`
	Icon             Icon      `json:"icon"`
	Muted            bool      `json:"muted"`
	ReplayVisible    bool      `json:"replayVisible"`
	CountdownVisible bool      `json:"countdownVisible"`
	ProgressPercent  float64   `json:"progressPercent"`
	Countdown        Countdown `json:"countdown"`

	showReplay    bool
	showCountdown bool
}

// NewView returns the initial view for cfg.
func NewView(cfg widget.Config) View {
	v := View{
		PlayPause:     cfg.Visible(widget.ControlPlayPause),
		MuteUnmute:    cfg.Visible(widget.ControlMuteUnmute),
		ProgressBar:   cfg.Visible(widget.ControlProgressBar),
		Icon:          IconPlay,
		Muted:         cfg.Muted,
		showReplay:    cfg.Visible(widget.ControlReplay),
		showCountdown: cfg.Visible(widget.ControlCountdown),
	}
	v.CountdownVisible = v.showCountdown
	return v
}

// Apply updates the view for a media notification.
func (v *View) Apply(kind media.Kind, currentTime, duration float64) {
	switch kind {
	case media.KindPlay:
		v.Icon = IconPause
		v.CountdownVisible = v.showCountdown
	case media.KindPause:
		v.Icon = IconPlay
	case media.KindEnded:
		v.Icon = IconPlay
		if v.showReplay {
			v.ReplayVisible = true
			v.CountdownVisible = false
		}
	case media.KindTimeUpdate:
		if frac, ok := fraction(currentTime, duration); ok {
			v.ProgressPercent = frac * 100
			if v.showCountdown {
				v.Countdown, _ = CountdownAt(currentTime, duration)
			}
		}
	}
}

// Replayed hides the replay button and brings the countdown back.
func (v *View) Replayed() {
	v.ReplayVisible = false
	v.CountdownVisible = v.showCountdown
}

func fraction(currentTime, duration float64) (float64, bool) {
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration <= 0 {
		return 0, false
	}
	if math.IsNaN(currentTime) || math.IsInf(currentTime, 0) {
		return 0, false
	}
	return math.Min(math.Max(currentTime/duration, 0), 1), true
}
