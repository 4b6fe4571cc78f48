// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tracking

import (
	"time"

	"github.com/ManuGH/smartplayer/internal/bus"
	"github.com/ManuGH/smartplayer/internal/log"
)

// BusTracker is the Tracker a host hands to each player. It stamps events
// with the player ID and offers them on the tracking topic (for sinks) and
// on the player's live topic (for websocket subscribers).
//
// Track runs while the player holds its lock, so it never waits: a record a
// full subscriber cannot take is dropped and counted by the bus.
type BusTracker struct {
	Bus      *bus.MemoryBus
	PlayerID string
	Now      func() time.Time
}

var _ Tracker = (*BusTracker)(nil)

func (t *BusTracker) Track(event string, payload map[string]any) {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	rec := Record{
		PlayerID: t.PlayerID,
		Event:    event,
		Payload:  Sanitize(payload),
		At:       now().UTC(),
	}

	if dropped := t.Bus.Offer(bus.TopicTracking, rec); dropped > 0 {
		l := log.WithComponent("tracking")
		l.Debug().
			Str(log.FieldPlayerID, t.PlayerID).
			Str(log.FieldEvent, event).
			Int("dropped", dropped).
			Msg("tracking record dropped")
	}
	t.Bus.Offer(bus.PlayerTopic(t.PlayerID), rec)
}
