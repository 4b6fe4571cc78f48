// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package visibility

import (
	"context"
	"errors"
	"testing"

	"github.com/ManuGH/smartplayer/internal/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	playing   bool
	plays     int
	pauses    int
	autoplayE error
}

func (f *fakeTarget) Autoplay(context.Context) error {
	f.plays++
	if f.autoplayE != nil {
		return f.autoplayE
	}
	f.playing = true
	return nil
}

func (f *fakeTarget) Pause() {
	f.pauses++
	f.playing = false
}

func (f *fakeTarget) Playing() bool { return f.playing }

func cfgWith(attrs widget.Attributes) widget.Config { return widget.Resolve(attrs) }

func TestControllerDoesNotSubscribeWithoutPolicies(t *testing.T) {
	feed := NewFeed()
	c := NewController(cfgWith(nil), &fakeTarget{}, feed)
	require.NoError(t, c.Start(context.Background()))
	assert.Zero(t, feed.Active())
	assert.False(t, c.Subscribed())
	assert.Empty(t, c.Active())
}

func TestControllerSubscribesWithDefaultOptions(t *testing.T) {
	feed := NewFeed()
	c := NewController(cfgWith(widget.Attributes{widget.AttrAutoPauseOutOfView: ""}), &fakeTarget{}, feed)
	require.NoError(t, c.Start(context.Background()))
	require.Equal(t, 1, feed.Active())
	assert.Equal(t, []Options{{Thresholds: []float64{0, 0.1, 0.5, 1.0}, RootMargin: "0px"}}, feed.Options())
	assert.Equal(t, []string{PolicyPauseOnExit}, c.Active())
}

func TestPauseOnFullExitIssuesExactlyOnePause(t *testing.T) {
	feed := NewFeed()
	target := &fakeTarget{playing: true}
	c := NewController(cfgWith(widget.Attributes{widget.AttrAutoPauseOutOfView: ""}), target, feed)
	require.NoError(t, c.Start(context.Background()))

	feed.Deliver([]Entry{{IsIntersecting: true, IntersectionRatio: 1.0}})
	feed.Deliver([]Entry{{IsIntersecting: true, IntersectionRatio: 0.5}})
	feed.Deliver([]Entry{{IsIntersecting: false, IntersectionRatio: 0}})
	feed.Deliver([]Entry{{IsIntersecting: false, IntersectionRatio: 0}})

	assert.Equal(t, 1, target.pauses, "second exit sees a paused target")
	assert.Zero(t, target.plays, "play-on-enter is not configured")
}

func TestPlayOnEnter(t *testing.T) {
	feed := NewFeed()
	target := &fakeTarget{}
	c := NewController(cfgWith(widget.Attributes{widget.AttrAutoplayOption: "viewport"}), target, feed)
	require.NoError(t, c.Start(context.Background()))

	feed.Deliver([]Entry{{IsIntersecting: false, IntersectionRatio: 0}})
	assert.Zero(t, target.plays)

	feed.Deliver([]Entry{{IsIntersecting: true, IntersectionRatio: 0.1}})
	assert.Equal(t, 1, target.plays)

	feed.Deliver([]Entry{{IsIntersecting: false, IntersectionRatio: 0}})
	assert.Zero(t, target.pauses, "pause-on-exit is not configured")
}

func TestBothPoliciesCompose(t *testing.T) {
	feed := NewFeed()
	target := &fakeTarget{}
	cfg := cfgWith(widget.Attributes{widget.AttrAutoplayOption: "viewport", widget.AttrAutoPauseOutOfView: ""})
	c := NewController(cfg, target, feed)
	require.NoError(t, c.Start(context.Background()))

	feed.Deliver([]Entry{{IsIntersecting: true, IntersectionRatio: 1}})
	feed.Deliver([]Entry{{IsIntersecting: false, IntersectionRatio: 0}})
	feed.Deliver([]Entry{{IsIntersecting: true, IntersectionRatio: 0.5}})

	assert.Equal(t, 2, target.plays)
	assert.Equal(t, 1, target.pauses)
	assert.Equal(t, []string{PolicyPlayOnEnter, PolicyPauseOnExit}, c.Active())
}

func TestAutoplayFailureIsAbsorbed(t *testing.T) {
	feed := NewFeed()
	target := &fakeTarget{autoplayE: errors.New("blocked")}
	c := NewController(cfgWith(widget.Attributes{widget.AttrAutoplayOption: "viewport"}), target, feed)
	require.NoError(t, c.Start(context.Background()))

	assert.NotPanics(t, func() {
		feed.Deliver([]Entry{{IsIntersecting: true, IntersectionRatio: 1}})
	})
	assert.False(t, target.playing)
}

func TestCloseStopsNotifications(t *testing.T) {
	feed := NewFeed()
	target := &fakeTarget{}
	c := NewController(cfgWith(widget.Attributes{widget.AttrAutoplayOption: "viewport"}), target, feed)
	require.NoError(t, c.Start(context.Background()))

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Zero(t, feed.Active())

	assert.Zero(t, feed.Deliver([]Entry{{IsIntersecting: true, IntersectionRatio: 1}}))
	assert.Zero(t, target.plays)

	require.NoError(t, c.Start(context.Background()), "start after close does not resubscribe")
	assert.Zero(t, feed.Active())
}
