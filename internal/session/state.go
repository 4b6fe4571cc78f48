// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package session tracks which playback milestones have already been reported
// during the current viewing session.
//
// A viewing session starts at the first play and ends when playback is
// observed back near the start (a seek below the first quartile, which covers
// replay and native looping). Within a session each milestone is reported at
// most once. State is not safe for concurrent use; its owner serializes access.
package session

import "math"

// ResetBelow is the progress fraction under which a seek starts a new session.
const ResetBelow = 0.25

// State is the milestone set of one viewing session.
type State struct {
	reported Milestone
}

// Flags returns the milestones reported so far in this session.
func (s *State) Flags() Milestone {
	return s.reported
}

// Reported reports whether milestone m was already reported in this session.
func (s *State) Reported(m Milestone) bool {
	return s.reported.Has(m)
}

// Begin marks the start milestone. It returns true only the first time it is
// called within a session; the caller emits VideoStart exactly then.
func (s *State) Begin() bool {
	if s.reported.Has(Start) {
		return false
	}
	s.reported |= Start
	return true
}

// Advance marks every progress milestone whose threshold is reached by
// progress and that was not reported yet. The newly marked milestones are
// returned in ascending order so a coarse update that jumps several
// thresholds reports all of them.
func (s *State) Advance(progress float64) []Milestone {
	if math.IsNaN(progress) {
		return nil
	}
	var crossed []Milestone
	for _, m := range progressMilestones {
		if progress >= m.Threshold() && !s.reported.Has(m) {
			s.reported |= m
			crossed = append(crossed, m)
		}
	}
	return crossed
}

// Seeked applies the reset rule after a seek: a known progress below
// ResetBelow clears the session. It reports whether a reset happened.
func (s *State) Seeked(progress float64, known bool) bool {
	if !known || progress >= ResetBelow {
		return false
	}
	s.Reset()
	return true
}

// Reset clears every milestone and reports whether any had been set.
// Resetting an already clear session is a no-op.
func (s *State) Reset() bool {
	had := s.reported != None
	s.reported = None
	return had
}

// Progress returns currentTime/duration. The second result is false when the
// ratio is indeterminate (unknown, zero or negative duration, or a
// non-finite position); callers skip milestone checks in that case.
func Progress(currentTime, duration float64) (float64, bool) {
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration <= 0 {
		return 0, false
	}
	if math.IsNaN(currentTime) || math.IsInf(currentTime, 0) {
		return 0, false
	}
	return currentTime / duration, true
}
