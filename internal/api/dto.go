// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"fmt"

	"github.com/ManuGH/smartplayer/internal/host"
	"github.com/ManuGH/smartplayer/internal/media"
	"github.com/ManuGH/smartplayer/internal/player"
	"github.com/ManuGH/smartplayer/internal/surface"
	"github.com/ManuGH/smartplayer/internal/tracking"
	"github.com/ManuGH/smartplayer/internal/visibility"
)

// CreatePlayerRequest is the body of POST /players.
type CreatePlayerRequest struct {
	Attributes map[string]string `json:"attributes"`
}

// PlayerResponse describes one player with its live status.
type PlayerResponse struct {
	host.Info
	Status player.Status                `json:"status"`
	Layout map[string]map[string]string `json:"layout"`
}

// ListPlayersResponse is the body of GET /players.
type ListPlayersResponse struct {
	Players []host.Info `json:"players"`
}

// NotificationRequest is a primitive event reported by a shim. Omitted
// values leave the mirrored state unchanged; an omitted duration stays unknown.
type NotificationRequest struct {
	Type        string   `json:"type" validate:"required"`
	CurrentTime *float64 `json:"currentTime,omitempty" validate:"omitempty,gte=0"`
	Duration    *float64 `json:"duration,omitempty" validate:"omitempty,gte=0"`
	Paused      *bool    `json:"paused,omitempty"`
	Muted       *bool    `json:"muted,omitempty"`
}

// Notification converts the request to a media notification.
func (n NotificationRequest) Notification() (media.Notification, error) {
	kind, err := media.ParseKind(n.Type)
	if err != nil {
		return media.Notification{}, err
	}
	return media.Notification{
		Kind: kind,
		State: &media.Reported{
			CurrentTime: n.CurrentTime,
			Duration:    n.Duration,
			Paused:      n.Paused,
			Muted:       n.Muted,
		},
	}, nil
}

// IntersectionRequest carries viewport reports.
type IntersectionRequest struct {
	Entries []visibility.Entry `json:"entries" validate:"required,min=1"`
}

// IntersectionResponse reports how many subscriptions received the entries.
type IntersectionResponse struct {
	Delivered int `json:"delivered"`
}

// GestureRequest is a click on the widget surface.
type GestureRequest struct {
	Path    []string `json:"path"`
	OffsetX float64  `json:"offsetX"`
	Width   float64  `json:"width" validate:"gte=0"`
}

// Gesture converts the request.
func (g GestureRequest) Gesture() surface.Gesture {
	return surface.Gesture{Path: g.Path, OffsetX: g.OffsetX, Width: g.Width}
}

// GestureResponse names the resolved action.
type GestureResponse struct {
	Action surface.Action `json:"action"`
}

// EventsResponse is the body of GET /players/{id}/events.
type EventsResponse struct {
	Events []tracking.Record `json:"events"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// Websocket message types.
const (
	MessageCommand      = "command"
	MessageEvent        = "event"
	MessageNotification = "notification"
	MessageIntersection = "intersection"
	MessageGesture      = "gesture"
	MessagePing         = "ping"
	MessagePong         = "pong"
	MessageError        = "error"
)

// WSMessage is one websocket frame in either direction.
type WSMessage struct {
	Type         string               `json:"type"`
	Command      *media.Command       `json:"command,omitempty"`
	Event        *tracking.Record     `json:"event,omitempty"`
	Notification *NotificationRequest `json:"notification,omitempty"`
	Entries      []visibility.Entry   `json:"entries,omitempty"`
	Gesture      *GestureRequest      `json:"gesture,omitempty"`
	Action       surface.Action       `json:"action,omitempty"`
	Error        *ErrorResponse       `json:"error,omitempty"`
}

func (m WSMessage) validateInbound() error {
	switch m.Type {
	case MessageNotification:
		if m.Notification == nil {
			return fmt.Errorf("notification message without notification")
		}
	case MessageIntersection:
		if len(m.Entries) == 0 {
			return fmt.Errorf("intersection message without entries")
		}
	case MessageGesture:
		if m.Gesture == nil {
			return fmt.Errorf("gesture message without gesture")
		}
	case MessagePing:
	default:
		return fmt.Errorf("unknown message type %q", m.Type)
	}
	return nil
}
