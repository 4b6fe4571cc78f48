// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package widget

import "strings"

// Attribute names of the widget's declarative surface.
const (
	AttrSrc                 = "src"
	AttrFit                 = "fit"
	AttrAutoplayOption      = "autoplay-option"
	AttrAutoPauseOutOfView  = "auto-pause-when-out-of-view"
	AttrMuted               = "muted"
	AttrPreload             = "preload"
	AttrLoop                = "loop"
	AttrEnableControls      = "enable-controls"
	AttrShowPlayPause       = "show-play-pause"
	AttrShowMuteUnmute      = "show-mute-unmute"
	AttrShowProgressBar     = "show-progress-bar"
	AttrProgressBarPosition = "progress-bar-position"
	AttrShowReplay          = "show-replay"
	AttrShowCountdown       = "show-countdown"
	AttrPlayBtnAlign        = "play-btn-align"
	AttrMuteBtnAlign        = "mute-btn-align"
	AttrCountdownAlign      = "countdown-align"
	AttrPlayBtnPos          = "play-btn-pos"
	AttrMuteBtnPos          = "mute-btn-pos"
	AttrCountdownPos        = "countdown-pos"
	AttrBackground          = "background"
	AttrBackgroundColor     = "background-color"
	AttrControlSize         = "control-size"
	AttrExitURL             = "exit-url"
	AttrTracking            = "tracking"
)

var knownAttributes = map[string]struct{}{
	AttrSrc: {}, AttrFit: {}, AttrAutoplayOption: {}, AttrAutoPauseOutOfView: {},
	AttrMuted: {}, AttrPreload: {}, AttrLoop: {}, AttrEnableControls: {},
	AttrShowPlayPause: {}, AttrShowMuteUnmute: {}, AttrShowProgressBar: {},
	AttrProgressBarPosition: {}, AttrShowReplay: {}, AttrShowCountdown: {},
	AttrPlayBtnAlign: {}, AttrMuteBtnAlign: {}, AttrCountdownAlign: {},
	AttrPlayBtnPos: {}, AttrMuteBtnPos: {}, AttrCountdownPos: {},
	AttrBackground: {}, AttrBackgroundColor: {}, AttrControlSize: {},
	AttrExitURL: {}, AttrTracking: {},
}

// Known reports whether name is a recognized attribute.
func Known(name string) bool {
	_, ok := knownAttributes[name]
	return ok
}

// Attributes is the raw option set. Boolean options are true when present,
// whatever their value.
type Attributes map[string]string

// Has reports whether name is present.
func (a Attributes) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// Get returns the trimmed value of name, or def when absent or blank.
func (a Attributes) Get(name, def string) string {
	v, ok := a[name]
	if !ok {
		return def
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}

// Merge returns a new set with over applied on top of base.
func Merge(base, over Attributes) Attributes {
	out := make(Attributes, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}
