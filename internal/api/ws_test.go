// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ManuGH/smartplayer/internal/surface"
	"github.com/ManuGH/smartplayer/internal/tracking"
	"github.com/ManuGH/smartplayer/internal/widget"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialShim(t *testing.T, srv *httptest.Server, id string, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/players/" + id + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg WSMessage) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

// readUntil reads frames until one of type want arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want string) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg WSMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type == want {
			return msg
		}
	}
}

func f64(v float64) *float64 { return &v }
func boolp(v bool) *bool     { return &v }

func TestWebsocketShimRoundTrip(t *testing.T) {
	s, h := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	info, err := h.Create(context.Background(), widget.Attributes{"tracking": "", "enable-controls": "", "show-mute-unmute": ""})
	require.NoError(t, err)

	conn := dialShim(t, srv, info.ID, nil)

	load := readUntil(t, conn, MessageCommand)
	require.NotNil(t, load.Command)
	assert.Equal(t, "load", load.Command.Op)

	send(t, conn, WSMessage{Type: MessagePing})
	readUntil(t, conn, MessagePong)

	send(t, conn, WSMessage{Type: MessageNotification, Notification: &NotificationRequest{
		Type: "play", CurrentTime: f64(0), Duration: f64(40), Paused: boolp(false),
	}})
	ev := readUntil(t, conn, MessageEvent)
	require.NotNil(t, ev.Event)
	assert.Equal(t, tracking.EventVideoStart, ev.Event.Event)
	assert.Equal(t, info.ID, ev.Event.PlayerID)

	send(t, conn, WSMessage{Type: MessageGesture, Gesture: &GestureRequest{Path: []string{"mute-unmute"}}})
	reply := readUntil(t, conn, MessageGesture)
	assert.Equal(t, surface.ActionToggleMute, reply.Action)

	mute := readUntil(t, conn, MessageCommand)
	require.NotNil(t, mute.Command)
	assert.Equal(t, "mute", mute.Command.Op)

	send(t, conn, WSMessage{Type: "dance"})
	bad := readUntil(t, conn, MessageError)
	require.NotNil(t, bad.Error)
	assert.Equal(t, CodeBadRequest, bad.Error.Error)

	require.NoError(t, h.Remove(info.ID))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
			break
		}
	}
}

func TestWebsocketReplayKeepsFrameOrder(t *testing.T) {
	s, h := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	info, err := h.Create(context.Background(), widget.Attributes{"tracking": "", "show-replay": ""})
	require.NoError(t, err)
	conn := dialShim(t, srv, info.ID, nil)
	readUntil(t, conn, MessageCommand) // load

	notify := func(kind string, at float64) {
		send(t, conn, WSMessage{Type: MessageNotification, Notification: &NotificationRequest{
			Type: kind, CurrentTime: f64(at), Duration: f64(100), Paused: boolp(false),
		}})
	}
	notify("play", 0)
	notify("timeupdate", 98)
	send(t, conn, WSMessage{Type: MessageGesture, Gesture: &GestureRequest{Path: []string{"replay"}}})
	notify("seeked", 0)
	notify("timeupdate", 0)

	var got []string
	for range 7 {
		ev := readUntil(t, conn, MessageEvent)
		require.NotNil(t, ev.Event)
		got = append(got, ev.Event.Event)
	}
	assert.Equal(t, []string{
		tracking.EventVideoStart, tracking.EventFirstQuartile, tracking.EventMidpoint,
		tracking.EventThirdQuartile, tracking.EventCompleted,
		tracking.EventReplay, tracking.EventVideoStart,
	}, got)
}

func TestWebsocketUnknownPlayer(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/players/missing/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebsocketOriginCheck(t *testing.T) {
	s, h := newTestServer(t)
	s.cfg.AllowedOrigins = []string{"https://pub.example.com"}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	info, err := h.Create(context.Background(), nil)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/players/" + info.ID + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://evil.example.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn := dialShim(t, srv, info.ID, http.Header{"Origin": []string{"https://pub.example.com"}})
	assert.NotNil(t, conn)
}
