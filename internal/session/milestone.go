// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import "strings"

// Milestone is a single once-per-session playback milestone. Milestones are
// bit flags so that a set of them fits in one value.
type Milestone uint8

const (
	Start Milestone = 1 << iota
	FirstQuartile
	Midpoint
	ThirdQuartile
	Completed
)

// None is the empty milestone set.
const None Milestone = 0

// All is the set of every milestone.
const All = Start | FirstQuartile | Midpoint | ThirdQuartile | Completed

// progressMilestones are the progress-driven milestones in ascending threshold order.
var progressMilestones = [...]Milestone{FirstQuartile, Midpoint, ThirdQuartile, Completed}

// Event returns the tracking event name for a single milestone.
func (m Milestone) Event() string {
	switch m {
	case Start:
		return "VideoStart"
	case FirstQuartile:
		return "firstQuartile"
	case Midpoint:
		return "midpoint"
	case ThirdQuartile:
		return "thirdQuartile"
	case Completed:
		return "completed"
	default:
		return ""
	}
}

// Value returns the numeric value reported with a milestone event.
func (m Milestone) Value() int {
	switch m {
	case FirstQuartile:
		return 25
	case Midpoint:
		return 50
	case ThirdQuartile:
		return 75
	case Completed:
		return 97
	default:
		return 0
	}
}

// Threshold returns the progress fraction at which a milestone fires.
// Start has no progress threshold and reports 0.
func (m Milestone) Threshold() float64 {
	return float64(m.Value()) / 100
}

// Has reports whether every milestone in other is present in m.
func (m Milestone) Has(other Milestone) bool {
	return other != None && m&other == other
}

// List expands a milestone set into single milestones in ascending order.
func (m Milestone) List() []Milestone {
	var out []Milestone
	for _, one := range [...]Milestone{Start, FirstQuartile, Midpoint, ThirdQuartile, Completed} {
		if m&one != 0 {
			out = append(out, one)
		}
	}
	return out
}

func (m Milestone) String() string {
	if m == None {
		return "none"
	}
	names := make([]string, 0, 5)
	for _, one := range m.List() {
		names = append(names, one.Event())
	}
	return strings.Join(names, "|")
}
