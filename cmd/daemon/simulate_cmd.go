// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/ManuGH/smartplayer/internal/media"
	"github.com/ManuGH/smartplayer/internal/player"
	"github.com/ManuGH/smartplayer/internal/tracking"
	"github.com/ManuGH/smartplayer/internal/widget"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// attrFlag collects repeated -attr name[=value] flags.
type attrFlag widget.Attributes

func (a attrFlag) String() string {
	parts := make([]string, 0, len(a))
	for k, v := range a {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (a attrFlag) Set(s string) error {
	name, value, _ := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !widget.Known(name) {
		return fmt.Errorf("unknown attribute %q", name)
	}
	a[name] = value
	return nil
}

type simulatedEvent struct {
	At      float64        `json:"at"`
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload,omitempty"`
}

// maxSimulatedTicks bounds one simulated pass through the clip.
const maxSimulatedTicks = 1_000_000

// tickBudget returns how many ticks of step cover duration, plus one to
// reach the end. Unknown durations get a fixed budget.
func tickBudget(duration, step float64) int {
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration <= 0 {
		return 1000
	}
	ticks := math.Ceil(duration/step) + 1
	if math.IsNaN(ticks) || ticks > maxSimulatedTicks {
		return maxSimulatedTicks
	}
	return int(ticks)
}

func runSimulate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("smartplayer simulate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	attrs := attrFlag{widget.AttrTracking: ""}
	var duration, step, pauseAt float64
	var replay bool
	fs.Float64Var(&duration, "duration", 30, "clip duration in seconds")
	fs.Float64Var(&step, "step", 1, "seconds advanced per tick")
	fs.Float64Var(&pauseAt, "pause-at", 0, "pause and resume once the clip reaches this position (0 disables)")
	fs.BoolVar(&replay, "replay", false, "replay once after the clip ends")
	fs.Var(attrs, "attr", "widget attribute as name or name=value (repeatable)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		fmt.Fprintln(stderr, "Error: --step must be a positive number")
		return 2
	}

	clip := media.NewClip(duration)
	enc := json.NewEncoder(stdout)
	var encErr error
	tracker := tracking.TrackerFunc(func(event string, payload map[string]any) {
		if encErr != nil {
			return
		}
		encErr = enc.Encode(simulatedEvent{At: clip.CurrentTime(), Event: event, Payload: payload})
	})

	cfg := widget.Resolve(widget.Attributes(attrs))
	for _, issue := range cfg.Issues {
		fmt.Fprintf(stderr, "warning: %s\n", issue)
	}
	p := player.New(cfg, clip,
		player.WithID("simulated"),
		player.WithTracker(tracker),
		player.WithLogger(zerolog.Nop()),
	)
	defer func() { _ = p.Close() }()

	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	flush := func() bool {
		ended := false
		for _, n := range clip.Drain() {
			p.Handle(n)
			if n.Kind == media.KindEnded {
				ended = true
			}
		}
		return ended
	}
	flush()
	if clip.Paused() {
		p.Play(media.WithUserGesture(ctx))
		flush()
	}

	maxTicks := tickBudget(duration, step)

	play := func() {
		paused := false
		for i := 0; i < maxTicks; i++ {
			clip.Advance(step)
			if flush() {
				return
			}
			if pauseAt > 0 && !paused && clip.CurrentTime() >= pauseAt {
				paused = true
				p.Pause()
				flush()
				p.Play(media.WithUserGesture(ctx))
				flush()
			}
		}
	}
	play()
	if replay {
		p.Replay(media.WithUserGesture(ctx))
		flush()
		pauseAt = 0
		play()
	}

	if encErr != nil {
		fmt.Fprintf(stderr, "Error: %v\n", encErr)
		return 1
	}
	return 0
}
