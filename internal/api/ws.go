// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ManuGH/smartplayer/internal/bus"
	"github.com/ManuGH/smartplayer/internal/log"
	"github.com/ManuGH/smartplayer/internal/media"
	"github.com/ManuGH/smartplayer/internal/metrics"
	"github.com/ManuGH/smartplayer/internal/tracking"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// shimConn is one websocket connection of a browser shim. The writer
// goroutine owns all writes; the reader forwards frames into the registry
// and hands replies to the writer through out.
type shimConn struct {
	id     string
	conn   *websocket.Conn
	s      *Server
	out    chan WSMessage
	logger zerolog.Logger
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	id := playerID(r)
	commands, done, err := s.players.Commands(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sub, err := s.players.Subscribe(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer func() { _ = sub.Close() }()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.logger.Debug().Err(err).Str(log.FieldPlayerID, id).Msg("websocket upgrade failed")
		return
	}
	metrics.WebsocketClients.Inc()
	defer metrics.WebsocketClients.Dec()

	c := &shimConn{
		id:     id,
		conn:   conn,
		s:      s,
		out:    make(chan WSMessage, 16),
		logger: log.WithComponentFromContext(r.Context(), "ws"),
	}
	c.logger.Info().Str(log.FieldEvent, "ws.connected").Msg("shim connected")

	ctx, cancel := context.WithCancel(r.Context())
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump(ctx, commands, done, sub)
		cancel()
	}()

	c.readPump(ctx)
	cancel()
	<-writerDone
	_ = conn.Close()
	c.logger.Info().Str(log.FieldEvent, "ws.disconnected").Msg("shim disconnected")
}

func (c *shimConn) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug().Err(err).Msg("unexpected websocket close")
			}
			return
		}
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reply(ctx, errorMessage(CodeInvalidJSON, err.Error()))
			continue
		}
		if reply, ok := c.handle(ctx, msg); ok {
			c.reply(ctx, reply)
		}
	}
}

// handle applies one inbound frame. It returns a reply when one is due.
func (c *shimConn) handle(ctx context.Context, msg WSMessage) (WSMessage, bool) {
	if err := msg.validateInbound(); err != nil {
		return errorMessage(CodeBadRequest, err.Error()), true
	}

	switch msg.Type {
	case MessagePing:
		return WSMessage{Type: MessagePong}, true
	case MessageNotification:
		n, err := msg.Notification.Notification()
		if err != nil {
			return errorMessage(CodeBadRequest, err.Error()), true
		}
		if err := c.s.validate.Struct(msg.Notification); err != nil {
			return errorMessage(CodeBadRequest, err.Error()), true
		}
		if err := c.s.players.Notify(ctx, c.id, n); err != nil {
			return classifiedMessage(err), true
		}
	case MessageIntersection:
		if _, err := c.s.players.Intersect(c.id, msg.Entries); err != nil {
			return classifiedMessage(err), true
		}
	case MessageGesture:
		action, err := c.s.players.Gesture(ctx, c.id, msg.Gesture.Gesture())
		if err != nil {
			return classifiedMessage(err), true
		}
		return WSMessage{Type: MessageGesture, Action: action}, true
	}
	return WSMessage{}, false
}

func (c *shimConn) reply(ctx context.Context, msg WSMessage) {
	select {
	case c.out <- msg:
	case <-ctx.Done():
	}
}

func (c *shimConn) writePump(ctx context.Context, commands <-chan media.Command, done <-chan struct{}, sub bus.Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.closeWith(websocket.CloseGoingAway, "server shutting down")
			return
		case <-done:
			c.closeWith(websocket.CloseNormalClosure, "player removed")
			return
		case cmd := <-commands:
			if err := c.write(WSMessage{Type: MessageCommand, Command: &cmd}); err != nil {
				return
			}
		case m, ok := <-sub.C():
			if !ok {
				return
			}
			rec, isRecord := m.(tracking.Record)
			if !isRecord {
				continue
			}
			if err := c.write(WSMessage{Type: MessageEvent, Event: &rec}); err != nil {
				return
			}
		case msg := <-c.out:
			if err := c.write(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *shimConn) write(msg WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error().Err(err).Str("type", msg.Type).Msg("encode websocket message")
		return nil
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		if !errors.Is(err, websocket.ErrCloseSent) {
			c.logger.Debug().Err(err).Msg("websocket write failed")
		}
		return err
	}
	return nil
}

func (c *shimConn) closeWith(code int, text string) {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, text))
	// Unblock the reader.
	_ = c.conn.SetReadDeadline(time.Now())
}

func errorMessage(code, detail string) WSMessage {
	return WSMessage{Type: MessageError, Error: &ErrorResponse{Error: code, Detail: detail}}
}

func classifiedMessage(err error) WSMessage {
	_, code := classify(err)
	return errorMessage(code, err.Error())
}
