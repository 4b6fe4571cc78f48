// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package host keeps the registry of live players and routes shim traffic to them.
//
// Each player is backed by a media.Remote mirror of the browser primitive, a
// visibility.Feed for intersection reports and a tracking.BusTracker that
// publishes its events. A goroutine per player feeds the remote's
// notifications into the player's Handle.
package host

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ManuGH/smartplayer/internal/bus"
	"github.com/ManuGH/smartplayer/internal/log"
	"github.com/ManuGH/smartplayer/internal/media"
	"github.com/ManuGH/smartplayer/internal/metrics"
	"github.com/ManuGH/smartplayer/internal/player"
	"github.com/ManuGH/smartplayer/internal/ratelimit"
	"github.com/ManuGH/smartplayer/internal/surface"
	"github.com/ManuGH/smartplayer/internal/tracking"
	"github.com/ManuGH/smartplayer/internal/visibility"
	"github.com/ManuGH/smartplayer/internal/widget"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrPlayerNotFound is returned for an unknown player ID.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrRateLimited is returned when a player exceeds its ingest budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("host closed")
)

// Ingest kinds passed to the rate limiter.
const (
	KindNotification = "notification"
	KindIntersection = "intersection"
	KindGesture      = "gesture"
	KindCommand      = "command"
)

const defaultRemoteBuffer = 64

// Info describes a created player.
type Info struct {
	ID      string        `json:"id"`
	Config  widget.Config `json:"config"`
	Created time.Time     `json:"created"`
}

type instance struct {
	info   Info
	player *player.Player
	remote *media.Remote
	feed   *visibility.Feed
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Host.
type Option func(*Host)

// WithLimiter bounds shim ingest per player.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(h *Host) { h.limiter = l }
}

// WithDefaults sets the attributes merged under every created player's own.
func WithDefaults(attrs widget.Attributes) Option {
	return func(h *Host) { h.defaults = widget.Merge(nil, attrs) }
}

// WithIDGenerator replaces uuid.NewString.
func WithIDGenerator(fn func() string) Option {
	return func(h *Host) { h.newID = fn }
}

// WithRemoteBuffer sets the command and notification buffer of each remote.
func WithRemoteBuffer(n int) Option {
	return func(h *Host) { h.remoteBuffer = n }
}

// Host is the player registry.
type Host struct {
	bus          *bus.MemoryBus
	limiter      *ratelimit.Limiter
	newID        func() string
	remoteBuffer int
	now          func() time.Time
	logger       zerolog.Logger

	mu       sync.RWMutex
	defaults widget.Attributes
	players  map[string]*instance
	closed   bool
}

// New creates a host publishing tracked records on b.
func New(b *bus.MemoryBus, opts ...Option) *Host {
	h := &Host{
		bus:          b,
		newID:        uuid.NewString,
		remoteBuffer: defaultRemoteBuffer,
		now:          time.Now,
		logger:       log.WithComponent("host"),
		defaults:     widget.Attributes{},
		players:      make(map[string]*instance),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Create resolves attrs over the host defaults, starts a player and returns its info.
func (h *Host) Create(ctx context.Context, attrs widget.Attributes) (Info, error) {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return Info{}, ErrClosed
	}
	merged := widget.Merge(h.defaults, attrs)
	h.mu.RUnlock()

	cfg := widget.Resolve(merged)
	id := h.newID()
	remote := media.NewRemote(h.remoteBuffer)
	feed := visibility.NewFeed()
	logger := h.logger.With().Str(log.FieldPlayerID, id).Logger()

	p := player.New(cfg, remote,
		player.WithID(id),
		player.WithTracker(&tracking.BusTracker{Bus: h.bus, PlayerID: id}),
		player.WithObserver(feed),
		player.WithExitOpener(remote),
		player.WithLogger(log.WithComponent("player").With().Str(log.FieldPlayerID, id).Logger()),
	)

	runCtx, cancel := context.WithCancel(context.Background())
	inst := &instance{
		info:   Info{ID: id, Config: cfg, Created: h.now().UTC()},
		player: p,
		remote: remote,
		feed:   feed,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		cancel()
		remote.Close()
		return Info{}, ErrClosed
	}
	h.players[id] = inst
	h.mu.Unlock()
	metrics.PlayersActive.Inc()

	go func() {
		defer close(inst.done)
		_ = p.Run(runCtx)
	}()

	if err := p.Start(ctx); err != nil {
		_ = h.Remove(id)
		return Info{}, fmt.Errorf("start player: %w", err)
	}

	if len(cfg.Issues) > 0 {
		logger.Warn().Strs("issues", cfg.Issues).Msg("player created with malformed options")
	}
	logger.Info().
		Str(log.FieldEvent, "host.player_created").
		Str(log.FieldURL, cfg.Source).
		Bool("tracking", cfg.TrackingEnabled).
		Msg("player created")
	return inst.info, nil
}

func (h *Host) lookup(id string) (*instance, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	inst, ok := h.players[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}
	return inst, nil
}

func (h *Host) admit(id, kind string) error {
	if !h.limiter.Allow(id, kind) {
		return ErrRateLimited
	}
	return nil
}

// Get returns the info of one player.
func (h *Host) Get(id string) (Info, error) {
	inst, err := h.lookup(id)
	if err != nil {
		return Info{}, err
	}
	return inst.info, nil
}

// Status returns the live status of one player.
func (h *Host) Status(id string) (player.Status, error) {
	inst, err := h.lookup(id)
	if err != nil {
		return player.Status{}, err
	}
	return inst.player.Status(), nil
}

// List returns every player ordered by creation time.
func (h *Host) List() []Info {
	h.mu.RLock()
	out := make([]Info, 0, len(h.players))
	for _, inst := range h.players {
		out = append(out, inst.info)
	}
	h.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Created.Equal(out[j].Created) {
			return out[i].ID < out[j].ID
		}
		return out[i].Created.Before(out[j].Created)
	})
	return out
}

// Len returns the number of live players.
func (h *Host) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.players)
}

// Remove closes and forgets one player.
func (h *Host) Remove(id string) error {
	h.mu.Lock()
	inst, ok := h.players[id]
	if ok {
		delete(h.players, id)
	}
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}

	h.shutdown(inst)
	h.logger.Info().
		Str(log.FieldEvent, "host.player_removed").
		Str(log.FieldPlayerID, id).
		Msg("player removed")
	return nil
}

func (h *Host) shutdown(inst *instance) {
	_ = inst.player.Close()
	inst.remote.Close()
	inst.cancel()
	<-inst.done
	h.limiter.Forget(inst.info.ID)
	metrics.PlayersActive.Dec()
}

// Notify hands a primitive notification reported by the shim to the player.
func (h *Host) Notify(ctx context.Context, id string, n media.Notification) error {
	inst, err := h.lookup(id)
	if err != nil {
		return err
	}
	if err := h.admit(id, KindNotification); err != nil {
		return err
	}
	return inst.remote.Deliver(ctx, n)
}

// Intersect delivers intersection entries to the player's viewport policies.
// It returns how many subscriptions received them.
func (h *Host) Intersect(id string, entries []visibility.Entry) (int, error) {
	inst, err := h.lookup(id)
	if err != nil {
		return 0, err
	}
	if err := h.admit(id, KindIntersection); err != nil {
		return 0, err
	}
	return inst.feed.Deliver(entries), nil
}

// Gesture routes a click on the player's surface.
func (h *Host) Gesture(ctx context.Context, id string, g surface.Gesture) (surface.Action, error) {
	inst, err := h.lookup(id)
	if err != nil {
		return surface.ActionNone, err
	}
	if err := h.admit(id, KindGesture); err != nil {
		return surface.ActionNone, err
	}
	return inst.player.Gesture(ctx, g), nil
}

// Command runs a facade command against the player.
func (h *Host) Command(ctx context.Context, id string, cmd player.Command) error {
	inst, err := h.lookup(id)
	if err != nil {
		return err
	}
	if err := h.admit(id, KindCommand); err != nil {
		return err
	}
	return inst.player.Exec(ctx, cmd)
}

// Commands returns the stream of primitive commands for the player's shim and
// a channel closed when the player is removed. A player has one command stream;
// concurrent readers split it.
func (h *Host) Commands(id string) (<-chan media.Command, <-chan struct{}, error) {
	inst, err := h.lookup(id)
	if err != nil {
		return nil, nil, err
	}
	return inst.remote.Commands(), inst.remote.Done(), nil
}

// Subscribe returns the live record stream of one player.
func (h *Host) Subscribe(ctx context.Context, id string) (bus.Subscriber, error) {
	if _, err := h.lookup(id); err != nil {
		return nil, err
	}
	return h.bus.Subscribe(ctx, bus.PlayerTopic(id))
}

// ApplyDefaults replaces the default attributes for players created from now on.
func (h *Host) ApplyDefaults(attrs map[string]string) {
	h.mu.Lock()
	h.defaults = widget.Merge(nil, attrs)
	h.mu.Unlock()
	h.logger.Info().
		Str(log.FieldEvent, "host.defaults_applied").
		Int("count", len(attrs)).
		Msg("default attributes updated")
}

// Defaults returns a copy of the current default attributes.
func (h *Host) Defaults() widget.Attributes {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return widget.Merge(nil, h.defaults)
}

// Close removes every player. Create fails afterwards.
func (h *Host) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	all := make([]*instance, 0, len(h.players))
	for id, inst := range h.players {
		all = append(all, inst)
		delete(h.players, id)
	}
	h.mu.Unlock()

	for _, inst := range all {
		h.shutdown(inst)
	}
	h.logger.Info().
		Str(log.FieldEvent, "host.closed").
		Int("players", len(all)).
		Msg("host closed")
	return nil
}
