// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package surface

import (
	"math"
	"testing"

	"github.com/ManuGH/smartplayer/internal/media"
	"github.com/ManuGH/smartplayer/internal/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdownAt(t *testing.T) {
	c, ok := CountdownAt(25, 100)
	require.True(t, ok)
	assert.Equal(t, 75, c.Remaining)
	assert.InDelta(t, 75.3975, c.DashOffset, 1e-9)

	c, ok = CountdownAt(9.6, 10)
	require.True(t, ok)
	assert.Equal(t, 0, c.Remaining)

	_, ok = CountdownAt(1, math.NaN())
	assert.False(t, ok)
}

func TestViewLifecycle(t *testing.T) {
	cfg := widget.Resolve(widget.Attributes{
		widget.AttrEnableControls:  "",
		widget.AttrShowCountdown:   "",
		widget.AttrShowProgressBar: "",
		widget.AttrShowReplay:      "",
	})
	v := NewView(cfg)
	assert.Equal(t, IconPlay, v.Icon)
	assert.True(t, v.CountdownVisible)
	assert.True(t, v.ProgressBar)
	assert.False(t, v.PlayPause)

	v.Apply(media.KindPlay, 0, 20)
	assert.Equal(t, IconPause, v.Icon)

	v.Apply(media.KindTimeUpdate, 5, 20)
	assert.InDelta(t, 25.0, v.ProgressPercent, 1e-9)
	assert.Equal(t, 15, v.Countdown.Remaining)

	v.Apply(media.KindPause, 20, 20)
	v.Apply(media.KindEnded, 20, 20)
	assert.Equal(t, IconPlay, v.Icon)
	assert.True(t, v.ReplayVisible)
	assert.False(t, v.CountdownVisible)

	v.Replayed()
	assert.False(t, v.ReplayVisible)
	assert.True(t, v.CountdownVisible)
}

func TestViewReplayWithoutControls(t *testing.T) {
	v := NewView(widget.Resolve(widget.Attributes{widget.AttrShowReplay: "", widget.AttrShowCountdown: ""}))
	assert.False(t, v.CountdownVisible, "countdown needs enable-controls")

	v.Apply(media.KindEnded, 10, 10)
	assert.True(t, v.ReplayVisible, "replay does not need enable-controls")

	v.Apply(media.KindTimeUpdate, 1, math.NaN())
	assert.Zero(t, v.ProgressPercent)
}
