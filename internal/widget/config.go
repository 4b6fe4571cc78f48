// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package widget resolves the declarative widget options into a typed,
// validated configuration.
package widget

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Config is the resolved widget configuration. It is immutable after Resolve.
type Config struct {
	Source             string       `json:"source"`
	Fit                Fit          `json:"fit"`
	Autoplay           Autoplay     `json:"autoplay"`
	AutoPauseOutOfView bool         `json:"autoPauseOutOfView"`
	Muted              bool         `json:"muted"`
	Preload            bool         `json:"preload"`
	Loop               bool         `json:"loop"`
	ControlsEnabled    bool         `json:"controlsEnabled"`
	Show               Show         `json:"show"`
	ProgressBarEdge    Edge         `json:"progressBarEdge"`
	PlayButton         Placement    `json:"playButton"`
	MuteButton         Placement    `json:"muteButton"`
	CountdownPlacement Placement    `json:"countdown"`
	Theme              string       `json:"theme"`
	Background         string       `json:"background"`
	Size               SizeTier     `json:"size"`
	Sizes              ControlSizes `json:"sizes"`
	ExitURL            string       `json:"exitUrl,omitempty"`
	TrackingEnabled    bool         `json:"trackingEnabled"`

	// Issues lists options that were malformed and replaced by defaults.
	Issues []string `json:"issues,omitempty"`
}

// Defaults for valued options.
const (
	DefaultTheme      = "#fff"
	DefaultBackground = "#000"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Resolve turns raw attributes into a Config. It never fails: malformed
// values fall back to their defaults and are recorded in Config.Issues.
func Resolve(attrs Attributes) Config {
	if attrs == nil {
		attrs = Attributes{}
	}
	cfg := Config{
		Source:             attrs.Get(AttrSrc, ""),
		Fit:                resolveFit(attrs.Get(AttrFit, "fit")),
		AutoPauseOutOfView: attrs.Has(AttrAutoPauseOutOfView),
		Muted:              attrs.Has(AttrMuted),
		Preload:            attrs.Has(AttrPreload),
		Loop:               attrs.Has(AttrLoop),
		ControlsEnabled:    attrs.Has(AttrEnableControls),
		Show: Show{
			PlayPause:   attrs.Has(AttrShowPlayPause),
			MuteUnmute:  attrs.Has(AttrShowMuteUnmute),
			ProgressBar: attrs.Has(AttrShowProgressBar),
			Countdown:   attrs.Has(AttrShowCountdown),
			Replay:      attrs.Has(AttrShowReplay),
		},
		Theme:           attrs.Get(AttrBackground, DefaultTheme),
		Background:      attrs.Get(AttrBackgroundColor, DefaultBackground),
		TrackingEnabled: attrs.Has(AttrTracking),
	}

	switch v := strings.ToLower(attrs.Get(AttrAutoplayOption, string(AutoplayNone))); Autoplay(v) {
	case AutoplayLoad, AutoplayViewport, AutoplayNone:
		cfg.Autoplay = Autoplay(v)
	default:
		cfg.Autoplay = AutoplayNone
		cfg.issue("%s: unknown value %q, using %q", AttrAutoplayOption, v, AutoplayNone)
	}

	cfg.ProgressBarEdge = EdgeBottom
	if strings.EqualFold(attrs.Get(AttrProgressBarPosition, ""), string(EdgeTop)) {
		cfg.ProgressBarEdge = EdgeTop
	}

	cfg.Size = SizeTier(strings.ToLower(attrs.Get(AttrControlSize, string(SizeMedium))))
	if _, ok := sizeTable[cfg.Size]; !ok {
		cfg.issue("%s: unknown tier %q, using %q", AttrControlSize, cfg.Size, SizeMedium)
		cfg.Size = SizeMedium
	}
	cfg.Sizes = cfg.Size.Sizes()

	cfg.PlayButton = cfg.placement(attrs, AttrPlayBtnAlign, AttrPlayBtnPos, AnchorBottomLeft)
	cfg.MuteButton = cfg.placement(attrs, AttrMuteBtnAlign, AttrMuteBtnPos, AnchorBottomRight)
	cfg.CountdownPlacement = cfg.placement(attrs, AttrCountdownAlign, AttrCountdownPos, AnchorTopLeft)

	if exit := attrs.Get(AttrExitURL, ""); exit != "" {
		if err := getValidator().Var(exit, "url"); err != nil {
			cfg.issue("%s: %q is not a URL, ignoring", AttrExitURL, exit)
		} else {
			cfg.ExitURL = exit
		}
	}

	return cfg
}

func (c *Config) placement(attrs Attributes, alignAttr, posAttr string, def Anchor) Placement {
	p, err := resolvePlacement(attrs.Get(alignAttr, string(def)), attrs.Get(posAttr, ""), def)
	if err != nil {
		c.issue("%s: %v, using %q", alignAttr, err, def)
	}
	return p
}

func (c *Config) issue(format string, args ...any) {
	c.Issues = append(c.Issues, fmt.Sprintf(format, args...))
}

func resolveFit(v string) Fit {
	if strings.EqualFold(v, "crop") || strings.EqualFold(v, string(FitCover)) {
		return FitCover
	}
	return FitContain
}

// Visible reports whether a control is rendered. Replay does not depend on
// the controls-enabled flag.
func (c Config) Visible(ctrl Control) bool {
	switch ctrl {
	case ControlPlayPause:
		return c.ControlsEnabled && c.Show.PlayPause
	case ControlMuteUnmute:
		return c.ControlsEnabled && c.Show.MuteUnmute
	case ControlProgressBar:
		return c.ControlsEnabled && c.Show.ProgressBar
	case ControlCountdown:
		return c.ControlsEnabled && c.Show.Countdown
	case ControlReplay:
		return c.Show.Replay
	default:
		return false
	}
}

// Layout returns the positioning declarations of each placed control, keyed
// by control. Shims apply them as inline styles.
func (c Config) Layout() map[string]map[string]string {
	return map[string]map[string]string{
		"playButton": c.PlayButton.Style(),
		"muteButton": c.MuteButton.Style(),
		"countdown":  c.CountdownPlacement.Style(),
	}
}

// ObservesViewport reports whether the widget needs an intersection
// subscription.
func (c Config) ObservesViewport() bool {
	return c.Autoplay == AutoplayViewport || c.AutoPauseOutOfView
}
