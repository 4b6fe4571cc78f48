// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package widget

// Fit is how the video fills the widget.
type Fit string

const (
	FitContain Fit = "contain"
	FitCover   Fit = "cover"
)

// Autoplay is the autoplay policy.
type Autoplay string

const (
	AutoplayNone     Autoplay = "none"
	AutoplayLoad     Autoplay = "load"
	AutoplayViewport Autoplay = "viewport"
)

// Edge is the progress bar edge.
type Edge string

const (
	EdgeTop    Edge = "top"
	EdgeBottom Edge = "bottom"
)

// SizeTier selects control dimensions.
type SizeTier string

const (
	SizeSmall  SizeTier = "small"
	SizeMedium SizeTier = "medium"
	SizeLarge  SizeTier = "large"
)

// ControlSizes are CSS lengths for regular controls and for the countdown
// ring (which the replay button shares).
type ControlSizes struct {
	Control   string `json:"control"`
	Countdown string `json:"countdown"`
}

var sizeTable = map[SizeTier]ControlSizes{
	SizeSmall:  {Control: "20px", Countdown: "30px"},
	SizeMedium: {Control: "24px", Countdown: "36px"},
	SizeLarge:  {Control: "32px", Countdown: "48px"},
}

// Sizes returns the dimensions of the tier; unknown tiers get medium.
func (t SizeTier) Sizes() ControlSizes {
	if s, ok := sizeTable[t]; ok {
		return s
	}
	return sizeTable[SizeMedium]
}

// Control identifies a rendered control.
type Control string

const (
	ControlPlayPause   Control = "play-pause"
	ControlMuteUnmute  Control = "mute-unmute"
	ControlProgressBar Control = "progress-bar"
	ControlCountdown   Control = "countdown"
	ControlReplay      Control = "replay"
)

// Controls lists every control kind.
var Controls = []Control{ControlPlayPause, ControlMuteUnmute, ControlProgressBar, ControlCountdown, ControlReplay}

// Show holds the per-control visibility flags.
type Show struct {
	PlayPause   bool `json:"playPause"`
	MuteUnmute  bool `json:"muteUnmute"`
	ProgressBar bool `json:"progressBar"`
	Countdown   bool `json:"countdown"`
	Replay      bool `json:"replay"`
}
