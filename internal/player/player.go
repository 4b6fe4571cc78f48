// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package player is the control facade of one widget instance.
//
// Commands (Play, Pause, SeekTo, Mute, Replay, ...) mutate the media
// primitive. The primitive answers with notifications that drive the
// milestone session and emit tracking events. Notifications a primitive
// queues are taken under the player's mutex, by Run as they arrive and by
// every command before it acts, so commands and notifications are applied in
// the order they happened.
package player

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/ManuGH/smartplayer/internal/fsm"
	"github.com/ManuGH/smartplayer/internal/log"
	"github.com/ManuGH/smartplayer/internal/media"
	"github.com/ManuGH/smartplayer/internal/metrics"
	"github.com/ManuGH/smartplayer/internal/session"
	"github.com/ManuGH/smartplayer/internal/surface"
	"github.com/ManuGH/smartplayer/internal/tracking"
	"github.com/ManuGH/smartplayer/internal/visibility"
	"github.com/ManuGH/smartplayer/internal/widget"
	"github.com/rs/zerolog"
)

// RewindDefault is the rewind step in seconds.
const RewindDefault = 10.0

// Player owns one media primitive and its viewing session.
type Player struct {
	id       string
	cfg      widget.Config
	media    media.Primitive
	queue    media.Queue
	emitter  *tracking.Emitter
	tracker  tracking.Tracker
	observer visibility.Observer
	exit     surface.ExitOpener
	logger   zerolog.Logger

	mu      sync.Mutex
	session session.State
	view    surface.View
	phase   *fsm.Machine[Phase, phaseEvent]
	started bool
	closed  bool

	viewport  *visibility.Controller
	router    *surface.Router
	closeOnce sync.Once
}

// Option configures a Player.
type Option func(*Player)

// WithID sets the identifier used in logs.
func WithID(id string) Option {
	return func(p *Player) { p.id = id }
}

// WithTracker sets the analytics sink. Events reach it only when the
// configuration enables tracking.
func WithTracker(t tracking.Tracker) Option {
	return func(p *Player) { p.tracker = t }
}

// WithObserver sets the viewport observer used by the visibility policies.
func WithObserver(o visibility.Observer) Option {
	return func(p *Player) { p.observer = o }
}

// WithExitOpener sets what opens the exit URL on non-control clicks.
func WithExitOpener(o surface.ExitOpener) Option {
	return func(p *Player) { p.exit = o }
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Player) { p.logger = l }
}

// New builds a player around m. A nil m yields a player whose operations are
// all no-ops.
func New(cfg widget.Config, m media.Primitive, opts ...Option) *Player {
	p := &Player{
		cfg:    cfg,
		media:  m,
		logger: log.WithComponent("player"),
		view:   surface.NewView(cfg),
		phase:  newPhaseMachine(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.id != "" {
		p.logger = p.logger.With().Str(log.FieldPlayerID, p.id).Logger()
	}
	if q, ok := m.(media.Queue); ok {
		p.queue = q
	}
	p.emitter = tracking.NewEmitter(cfg.TrackingEnabled, p.tracker)
	p.viewport = visibility.NewController(cfg, p, p.observer)
	p.router = surface.NewRouter(cfg, p, p.exit)
	return p
}

// ID returns the identifier given with WithID.
func (p *Player) ID() string { return p.id }

// Config returns the resolved configuration.
func (p *Player) Config() widget.Config { return p.cfg }

// Start loads the source, subscribes to viewport changes when a policy needs
// them and attempts autoplay on load. Only a failed viewport subscription is
// returned; a rejected autoplay leaves the player paused.
func (p *Player) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started || p.closed || p.media == nil {
		p.mu.Unlock()
		return nil
	}
	p.started = true
	if l, ok := p.media.(media.Loader); ok {
		src := media.Source{
			URI:      p.cfg.Source,
			Muted:    p.cfg.Muted,
			Loop:     p.cfg.Loop,
			Preload:  p.cfg.Preload,
			Autoplay: p.cfg.Autoplay == widget.AutoplayLoad,
		}
		if err := l.Load(src); err != nil {
			p.logger.Warn().Err(err).Str(log.FieldURL, p.cfg.Source).Msg("media load failed")
		}
	}
	p.mu.Unlock()

	if err := p.viewport.Start(ctx); err != nil {
		return err
	}

	if p.cfg.Autoplay == widget.AutoplayLoad {
		if err := p.Autoplay(ctx); err != nil {
			metrics.IncAutoplayRejected("load")
		}
	}
	return nil
}

// Gesture routes a click on the widget surface.
func (p *Player) Gesture(ctx context.Context, g surface.Gesture) surface.Action {
	return p.router.Dispatch(ctx, g)
}

// Close releases the viewport subscription. No visibility policy runs and no
// notification is handled after Close returns.
func (p *Player) Close() error {
	var err error
	p.closeOnce.Do(func() {
		err = p.viewport.Close()
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
	})
	return err
}

// Playing reports whether the primitive is playing.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.media != nil && !p.media.Paused()
}

// Duration returns the media duration, NaN while unknown.
func (p *Player) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.media == nil {
		return math.NaN()
	}
	return p.media.Duration()
}

// TogglePlayPause plays a paused video and pauses a playing one.
func (p *Player) TogglePlayPause(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.media == nil {
		return
	}
	p.flush()
	if p.media.Paused() {
		_ = p.play(ctx, "toggle")
		return
	}
	p.media.Pause()
}

// Play starts playback. It emits resume when the video was paused past the
// beginning and the primitive accepted the request.
func (p *Player) Play(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.media == nil {
		return
	}
	p.flush()
	_ = p.play(ctx, "command")
}

func (p *Player) play(ctx context.Context, trigger string) error {
	resume := p.media.Paused() && p.media.CurrentTime() > 0
	if err := p.media.Play(ctx); err != nil {
		p.playFailed(err, trigger)
		return err
	}
	if resume {
		p.emit(tracking.EventResume, p.snapshot().Payload())
	}
	return nil
}

// Autoplay starts playback without a user gesture and without a resume
// event. The error is returned so the caller can account for rejections.
func (p *Player) Autoplay(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.media == nil || p.closed {
		return nil
	}
	p.flush()
	if err := p.media.Play(ctx); err != nil {
		p.logger.Debug().
			Err(err).
			Str(log.FieldEvent, "player.autoplay_rejected").
			Msg("autoplay rejected")
		return err
	}
	return nil
}

func (p *Player) playFailed(err error, trigger string) {
	metrics.IncAutoplayRejected(trigger)
	ev := p.logger.Warn()
	if errors.Is(err, media.ErrPlaybackBlocked) {
		ev = p.logger.Debug()
	}
	ev.Err(err).
		Str(log.FieldEvent, "player.play_rejected").
		Str(log.FieldTrigger, trigger).
		Msg("play rejected")
}

// Pause pauses a playing video.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.media == nil {
		return
	}
	p.flush()
	if p.media.Paused() {
		return
	}
	p.media.Pause()
}

// SeekTo moves to t seconds, clamped to the duration. Negative or
// non-finite times are ignored; with an unknown duration the seek lands on 0.
func (p *Player) SeekTo(t float64) {
	if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.media == nil {
		return
	}
	p.flush()
	p.media.SetCurrentTime(clampToDuration(t, p.media.Duration()))
}

// Rewind moves back by seconds, never before 0.
func (p *Player) Rewind(seconds float64) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.media == nil {
		return
	}
	p.flush()
	t := math.Max(0, p.media.CurrentTime()-seconds)
	p.media.SetCurrentTime(clampToDuration(t, p.media.Duration()))
}

func clampToDuration(t, duration float64) float64 {
	if math.IsNaN(duration) {
		return 0
	}
	return math.Min(t, duration)
}

// Mute mutes and always emits mute.
func (p *Player) Mute() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flush()
	p.setMuted(true)
}

// Unmute unmutes and always emits unmute.
func (p *Player) Unmute() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flush()
	p.setMuted(false)
}

// ToggleMute flips the muted state.
func (p *Player) ToggleMute() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.media == nil {
		return
	}
	p.flush()
	p.setMuted(!p.media.Muted())
}

func (p *Player) setMuted(muted bool) {
	if p.media == nil {
		return
	}
	p.media.SetMuted(muted)
	p.view.Muted = muted
	event := tracking.EventUnmute
	if muted {
		event = tracking.EventMute
	}
	p.emit(event, p.snapshot().WithMuted(muted))
}

// Replay restarts from the beginning with a fresh session and emits replay.
// Progress reported before the replay still counts against the old session.
func (p *Player) Replay(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.media == nil {
		return
	}
	p.flush()
	p.media.SetCurrentTime(0)
	if err := p.media.Play(ctx); err != nil {
		p.playFailed(err, "replay")
	}
	p.session.Reset()
	p.view.Replayed()
	p.emit(tracking.EventReplay, tracking.Snapshot{CurrentTime: 0, Duration: p.media.Duration()}.Payload())
}

// Handle processes one primitive notification.
func (p *Player) Handle(n media.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.media == nil || p.closed {
		return
	}
	p.handle(n)
}

// flush handles what the primitive has queued so far. Callers hold p.mu.
func (p *Player) flush() {
	if p.queue == nil || p.closed {
		return
	}
	for _, n := range p.queue.Drain() {
		p.handle(n)
	}
}

func (p *Player) handle(n media.Notification) {
	snap, paused := p.observed(n)
	switch n.Kind {
	case media.KindPlay:
		if p.session.Begin() {
			p.emit(tracking.EventVideoStart, snap.WithValue(session.Start.Value()))
		}
	case media.KindPause:
		p.emit(tracking.EventPause, snap.Payload())
	case media.KindEnded:
		p.emit(tracking.EventVideoEnded, snap.Payload())
	case media.KindSeeked:
		progress, ok := session.Progress(snap.CurrentTime, snap.Duration)
		if p.session.Seeked(progress, ok) {
			p.logger.Debug().
				Float64(log.FieldCurrentTime, snap.CurrentTime).
				Float64(log.FieldDuration, snap.Duration).
				Msg("viewing session reset")
		}
	case media.KindTimeUpdate:
		// A looped or seeked-back video keeps playing without a new play
		// notification; its new session starts with the first update.
		if !paused && p.session.Begin() {
			p.emit(tracking.EventVideoStart, snap.WithValue(session.Start.Value()))
		}
		if progress, ok := session.Progress(snap.CurrentTime, snap.Duration); ok {
			for _, m := range p.session.Advance(progress) {
				p.emit(m.Event(), snap.WithValue(m.Value()))
			}
		}
	default:
		return
	}

	advancePhase(p.phase, n.Kind)
	p.view.Muted = p.media.Muted()
	p.view.Apply(n.Kind, snap.CurrentTime, snap.Duration)
}

// HandleAll processes ns in order.
func (p *Player) HandleAll(ns ...media.Notification) {
	for _, n := range ns {
		p.Handle(n)
	}
}

// Run handles queued primitive notifications as they arrive until ctx ends.
// With a primitive that does not queue notifications Run only waits.
func (p *Player) Run(ctx context.Context) error {
	if p.queue == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.queue.Ready():
			p.mu.Lock()
			p.flush()
			p.mu.Unlock()
		}
	}
}

// observed returns the position and paused state a notification reports,
// falling back to the primitive for values it leaves out.
func (p *Player) observed(n media.Notification) (tracking.Snapshot, bool) {
	snap := p.snapshot()
	paused := p.media.Paused()
	if s := n.State; s != nil {
		if s.CurrentTime != nil {
			snap.CurrentTime = *s.CurrentTime
		}
		if s.Duration != nil {
			snap.Duration = *s.Duration
		}
		if s.Paused != nil {
			paused = *s.Paused
		}
	}
	return snap, paused
}

func (p *Player) snapshot() tracking.Snapshot {
	return tracking.Snapshot{CurrentTime: p.media.CurrentTime(), Duration: p.media.Duration()}
}

func (p *Player) emit(event string, payload map[string]any) {
	p.emitter.Emit(event, payload)
}
