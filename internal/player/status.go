// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package player

import (
	"math"

	"github.com/ManuGH/smartplayer/internal/surface"
)

// Status is a point-in-time view of a player.
type Status struct {
	ID          string       `json:"id"`
	Phase       Phase        `json:"phase"`
	Milestones  []string     `json:"milestones"`
	CurrentTime float64      `json:"currentTime"`
	Duration    *float64     `json:"duration"`
	Paused      bool         `json:"paused"`
	Muted       bool         `json:"muted"`
	View        surface.View `json:"view"`
}

// Status returns the current status. Duration is nil while unknown.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Status{
		ID:         p.id,
		Phase:      p.phase.State(),
		Milestones: []string{},
		Paused:     true,
		View:       p.view,
	}
	for _, m := range p.session.Flags().List() {
		st.Milestones = append(st.Milestones, m.Event())
	}
	if p.media == nil {
		return st
	}
	st.CurrentTime = p.media.CurrentTime()
	st.Paused = p.media.Paused()
	st.Muted = p.media.Muted()
	if d := p.media.Duration(); !math.IsNaN(d) && !math.IsInf(d, 0) {
		st.Duration = &d
	}
	return st
}
