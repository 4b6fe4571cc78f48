// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package player

import (
	"context"

	"github.com/ManuGH/smartplayer/internal/fsm"
	"github.com/ManuGH/smartplayer/internal/media"
)

// Phase is the coarse playback state derived from primitive notifications.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhasePlaying Phase = "playing"
	PhasePaused  Phase = "paused"
	PhaseEnded   Phase = "ended"
)

type phaseEvent string

const (
	evPlay  phaseEvent = "play"
	evPause phaseEvent = "pause"
	evEnd   phaseEvent = "ended"
	evSeek  phaseEvent = "seeked"
)

var phaseTransitions = []fsm.Transition[Phase, phaseEvent]{
	{From: PhaseIdle, Event: evPlay, To: PhasePlaying},
	{From: PhasePaused, Event: evPlay, To: PhasePlaying},
	{From: PhaseEnded, Event: evPlay, To: PhasePlaying},
	{From: PhasePlaying, Event: evPause, To: PhasePaused},
	{From: PhasePlaying, Event: evEnd, To: PhaseEnded},
	{From: PhasePaused, Event: evEnd, To: PhaseEnded},
	{From: PhaseEnded, Event: evSeek, To: PhasePaused},
}

func newPhaseMachine() *fsm.Machine[Phase, phaseEvent] {
	return fsm.MustNew(PhaseIdle, phaseTransitions)
}

func phaseEventFor(k media.Kind) (phaseEvent, bool) {
	switch k {
	case media.KindPlay:
		return evPlay, true
	case media.KindPause:
		return evPause, true
	case media.KindEnded:
		return evEnd, true
	case media.KindSeeked:
		return evSeek, true
	default:
		return "", false
	}
}

// advancePhase applies k when it has an edge from the current phase.
// Notifications without one (a repeated play, a seek while playing) leave
// the phase unchanged.
func advancePhase(m *fsm.Machine[Phase, phaseEvent], k media.Kind) {
	ev, ok := phaseEventFor(k)
	if !ok || !m.Can(ev) {
		return
	}
	_, _ = m.Fire(context.Background(), ev)
}
