// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tracking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/smartplayer/internal/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSink struct {
	mu   sync.Mutex
	name string
	recs []Record
	err  error
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Deliver(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return s.err
}

func (s *recordingSink) records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.recs...)
}

func TestEmitterDisabledNeverReachesTracker(t *testing.T) {
	calls := 0
	e := NewEmitter(false, TrackerFunc(func(string, map[string]any) { calls++ }))
	for i := 0; i < 10; i++ {
		e.Emit(EventMute, Snapshot{}.WithMuted(true))
	}
	assert.Zero(t, calls)
	assert.False(t, e.Enabled())
}

func TestEmitterWithoutTrackerIsNoop(t *testing.T) {
	e := NewEmitter(true, nil)
	assert.False(t, e.Enabled())
	assert.NotPanics(t, func() { e.Emit(EventPause, nil) })

	var nilEmitter *Emitter
	assert.NotPanics(t, func() { nilEmitter.Emit(EventPause, nil) })
}

func TestEmitterForwards(t *testing.T) {
	var got []string
	e := NewEmitter(true, TrackerFunc(func(ev string, p map[string]any) {
		got = append(got, ev)
		assert.Equal(t, 25, p[KeyValue])
	}))
	e.Emit(EventFirstQuartile, Snapshot{CurrentTime: 26, Duration: 100}.WithValue(25))
	assert.Equal(t, []string{EventFirstQuartile}, got)
}

func TestSnapshotPayloadKeys(t *testing.T) {
	p := Snapshot{CurrentTime: 1, Duration: 2}.WithMuted(false)
	assert.Equal(t, map[string]any{KeyCurrentTime: 1.0, KeyDuration: 2.0, KeyMuted: false}, p)
}

func TestSanitizeReplacesNonFinite(t *testing.T) {
	in := map[string]any{KeyDuration: math.NaN(), KeyCurrentTime: 3.0, "inf": math.Inf(1)}
	out := Sanitize(in)
	assert.Nil(t, out[KeyDuration])
	assert.Nil(t, out["inf"])
	assert.Equal(t, 3.0, out[KeyCurrentTime])
	assert.True(t, math.IsNaN(in[KeyDuration].(float64)), "input is not modified")
}

func TestBusTrackerToDispatcher(t *testing.T) {
	b := bus.NewMemoryBus()
	ok := &recordingSink{name: "ok"}
	failing := &recordingSink{name: "failing", err: errors.New("down")}
	d := NewDispatcher(b, time.Second, ok, failing)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return b.Subscribers(bus.TopicTracking) == 1 }, time.Second, 5*time.Millisecond)

	live, err := b.Subscribe(context.Background(), bus.PlayerTopic("p1"))
	require.NoError(t, err)
	defer func() { _ = live.Close() }()

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tr := &BusTracker{Bus: b, PlayerID: "p1", Now: func() time.Time { return fixed }}
	tr.Track(EventVideoStart, Snapshot{CurrentTime: 0, Duration: math.NaN()}.WithValue(0))

	require.Eventually(t, func() bool { return len(ok.records()) == 1 && len(failing.records()) == 1 }, time.Second, 5*time.Millisecond)

	rec := ok.records()[0]
	assert.Equal(t, "p1", rec.PlayerID)
	assert.Equal(t, EventVideoStart, rec.Event)
	assert.Equal(t, fixed, rec.At)
	assert.Nil(t, rec.Payload[KeyDuration])

	liveRec := (<-live.C()).(Record)
	assert.Equal(t, EventVideoStart, liveRec.Event)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []string{"ok", "failing"}, d.Sinks())
}

func TestDeliveryErrorType(t *testing.T) {
	assert.Equal(t, "timeout", deliveryErrorType(fmt.Errorf("post: %w", context.DeadlineExceeded)))
	assert.Equal(t, "canceled", deliveryErrorType(context.Canceled))
	assert.Equal(t, "sink", deliveryErrorType(errors.New("503")))
}

func TestBusTrackerNeverBlocksOnFullSubscriber(t *testing.T) {
	b := bus.NewMemoryBusWithBuffer(1)
	stalled, err := b.Subscribe(context.Background(), bus.TopicTracking)
	require.NoError(t, err)
	defer func() { _ = stalled.Close() }()

	tr := &BusTracker{Bus: b, PlayerID: "p1"}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			tr.Track(EventPause, map[string]any{KeyCurrentTime: float64(i)})
		}
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Track waited for a full subscriber")
	}
	assert.Len(t, stalled.C(), 1, "only the first record fits")
}
