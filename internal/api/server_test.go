// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ManuGH/smartplayer/internal/bus"
	"github.com/ManuGH/smartplayer/internal/health"
	"github.com/ManuGH/smartplayer/internal/host"
	"github.com/ManuGH/smartplayer/internal/player"
	"github.com/ManuGH/smartplayer/internal/surface"
	"github.com/ManuGH/smartplayer/internal/tracking"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventLog struct {
	records   []tracking.Record
	lastID    string
	lastLimit int
}

func (f *fakeEventLog) Recent(_ context.Context, playerID string, limit int) ([]tracking.Record, error) {
	f.lastID, f.lastLimit = playerID, limit
	return f.records, nil
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *host.Host) {
	t.Helper()
	n := 0
	h := host.New(bus.NewMemoryBus(), host.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("p%d", n)
	}))
	t.Cleanup(func() { _ = h.Close() })
	return New(Config{}, h, opts...), h
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)

	hm := health.NewManager("v-test")
	hm.RegisterChecker(health.Ping("journal", true, func(context.Context) error { return errors.New("locked") }))
	s, _ = newTestServer(t, WithHealth(hm))
	w = do(t, s, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "locked")
}

func TestPlayerLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/v1/players", `{"attributes":{"src":"https://cdn.example.com/v.mp4","muted":"","control-size":"huge"}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "/api/v1/players/p1", w.Header().Get("Location"))
	info := decodeBody[host.Info](t, w)
	assert.Equal(t, "p1", info.ID)
	assert.True(t, info.Config.Muted)
	assert.NotEmpty(t, info.Config.Issues, "malformed size tier is reported")

	w = do(t, s, http.MethodGet, "/api/v1/players", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeBody[ListPlayersResponse](t, w)
	require.Len(t, list.Players, 1)

	w = do(t, s, http.MethodGet, "/api/v1/players/p1", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[PlayerResponse](t, w)
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, player.PhaseIdle, got.Status.Phase)
	assert.Nil(t, got.Status.Duration, "unknown duration is null")
	assert.Contains(t, got.Layout, "playButton")
	assert.Contains(t, got.Layout, "countdown")

	w = do(t, s, http.MethodDelete, "/api/v1/players/p1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, s, http.MethodGet, "/api/v1/players/p1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodePlayerNotFound, decodeBody[ErrorResponse](t, w).Error)
}

func TestCreateRejectsBadBodies(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/v1/players", `{"attributes":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeInvalidJSON, decodeBody[ErrorResponse](t, w).Error)

	w = do(t, s, http.MethodPost, "/api/v1/players", `{"attrs":{}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommands(t *testing.T) {
	s, _ := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/v1/players", `{}`).Code)

	w := do(t, s, http.MethodPost, "/api/v1/players/p1/commands", `{"action":"mute"}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.True(t, decodeBody[player.Status](t, w).Muted)

	w = do(t, s, http.MethodPost, "/api/v1/players/p1/commands", `{"action":"moonwalk"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeUnknownAction, decodeBody[ErrorResponse](t, w).Error)

	w = do(t, s, http.MethodPost, "/api/v1/players/p1/commands", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeBadRequest, decodeBody[ErrorResponse](t, w).Error)

	w = do(t, s, http.MethodPost, "/api/v1/players/p9/commands", `{"action":"play"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotificationsUpdateStatus(t *testing.T) {
	s, h := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/v1/players", `{}`).Code)

	w := do(t, s, http.MethodPost, "/api/v1/players/p1/notifications", `{"type":"stalled"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/players/p1/notifications", `{"type":"timeupdate","currentTime":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/players/p1/notifications", `{"type":"play","currentTime":0,"duration":20,"paused":false}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	w = do(t, s, http.MethodPost, "/api/v1/players/p1/notifications", `{"type":"timeupdate","currentTime":4,"duration":20,"paused":false}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	require.Eventually(t, func() bool {
		st, err := h.Status("p1")
		return err == nil && st.Phase == player.PhasePlaying && st.View.ProgressPercent == 20
	}, time.Second, 5*time.Millisecond)

	got := decodeBody[PlayerResponse](t, do(t, s, http.MethodGet, "/api/v1/players/p1", ""))
	require.NotNil(t, got.Status.Duration)
	assert.Equal(t, 20.0, *got.Status.Duration)
	assert.Equal(t, 4.0, got.Status.CurrentTime)
	assert.Equal(t, 20.0, got.Status.View.ProgressPercent)
}

func TestIntersectionsAndGestures(t *testing.T) {
	s, _ := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/v1/players",
		`{"attributes":{"autoplay-option":"viewport","enable-controls":"","show-play-pause":""}}`).Code)

	w := do(t, s, http.MethodPost, "/api/v1/players/p1/intersections", `{"entries":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/players/p1/intersections", `{"entries":[{"isIntersecting":true,"intersectionRatio":0.5}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decodeBody[IntersectionResponse](t, w).Delivered)

	w = do(t, s, http.MethodPost, "/api/v1/players/p1/gestures", `{"path":["icon","play-pause","controls"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, surface.ActionTogglePlayPause, decodeBody[GestureResponse](t, w).Action)
}

func TestEvents(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/api/v1/players/p1/events", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, CodeJournalDisabled, decodeBody[ErrorResponse](t, w).Error)

	events := &fakeEventLog{records: []tracking.Record{{PlayerID: "p1", Event: tracking.EventVideoStart, At: time.Unix(10, 0).UTC()}}}
	s, _ = newTestServer(t, WithEventLog(events))

	w = do(t, s, http.MethodGet, "/api/v1/players/p1/events?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[EventsResponse](t, w)
	require.Len(t, got.Events, 1)
	assert.Equal(t, tracking.EventVideoStart, got.Events[0].Event)
	assert.Equal(t, "p1", events.lastID)
	assert.Equal(t, 5, events.lastLimit)

	w = do(t, s, http.MethodGet, "/api/v1/players/p1/events?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	events.records = nil
	w = do(t, s, http.MethodGet, "/api/v1/players/p1/events", "")
	assert.JSONEq(t, `{"events":[]}`, w.Body.String())
	assert.Equal(t, defaultEventLimit, events.lastLimit)
}

func TestClassify(t *testing.T) {
	status, code := classify(fmt.Errorf("wrapped: %w", host.ErrRateLimited))
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, CodeRateLimited, code)

	status, _ = classify(context.DeadlineExceeded)
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, _ = classify(fmt.Errorf("disk on fire"))
	assert.Equal(t, http.StatusInternalServerError, status)
}
