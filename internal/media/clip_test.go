// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(ns []Notification) []Kind {
	out := make([]Kind, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Kind)
	}
	return out
}

func TestClipPlayAdvanceEnd(t *testing.T) {
	c := NewClip(10)
	require.NoError(t, c.Play(context.Background()))
	c.Advance(4)
	c.Advance(7)

	assert.Equal(t, []Kind{KindPlay, KindTimeUpdate, KindTimeUpdate, KindPause, KindEnded}, kinds(c.Drain()))
	assert.True(t, c.Paused())
	assert.Equal(t, 10.0, c.CurrentTime())

	require.NoError(t, c.Play(context.Background()))
	assert.Equal(t, []Kind{KindSeeked, KindTimeUpdate, KindPlay}, kinds(c.Drain()))
	assert.Equal(t, 0.0, c.CurrentTime())
}

func TestClipLoopSeeksToStart(t *testing.T) {
	c := NewClip(10)
	require.NoError(t, c.Load(Source{Loop: true}))
	require.NoError(t, c.Play(context.Background()))
	c.Drain()

	c.Advance(12)
	assert.Equal(t, []Kind{KindTimeUpdate, KindSeeked, KindTimeUpdate}, kinds(c.Drain()))
	assert.False(t, c.Paused())
	assert.Equal(t, 0.0, c.CurrentTime())
}

func TestClipSeekClamps(t *testing.T) {
	c := NewClip(10)
	c.SetCurrentTime(50)
	assert.Equal(t, 10.0, c.CurrentTime())
	c.SetCurrentTime(-3)
	assert.Equal(t, 0.0, c.CurrentTime())
	c.SetCurrentTime(math.NaN())
	assert.Equal(t, 0.0, c.CurrentTime())
}

func TestClipRequireGestureBlocksUnmutedAutoplay(t *testing.T) {
	c := NewClip(10)
	c.RequireGesture = true

	err := c.Play(context.Background())
	require.ErrorIs(t, err, ErrPlaybackBlocked)
	assert.True(t, c.Paused())
	assert.Empty(t, c.Drain())

	require.NoError(t, c.Play(WithUserGesture(context.Background())))
	assert.False(t, c.Paused())

	muted := NewClip(10)
	muted.RequireGesture = true
	require.NoError(t, muted.Load(Source{Muted: true}))
	require.NoError(t, muted.Play(context.Background()))
}

func TestClipUnknownDurationDoesNotAdvance(t *testing.T) {
	c := NewClip(math.NaN())
	require.NoError(t, c.Play(context.Background()))
	c.Drain()
	c.Advance(5)
	assert.Empty(t, c.Drain())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" TimeUpdate ")
	require.NoError(t, err)
	assert.Equal(t, KindTimeUpdate, k)

	_, err = ParseKind("volumechange")
	require.Error(t, err)
}

func TestClipSignalsReadyOnQueue(t *testing.T) {
	c := NewClip(10)
	select {
	case <-c.Ready():
		t.Fatal("fresh clip is not ready")
	default:
	}

	require.NoError(t, c.Play(context.Background()))
	c.Advance(1)
	select {
	case <-c.Ready():
	default:
		t.Fatal("queued notifications did not signal")
	}
	assert.Len(t, c.Drain(), 2)
}
