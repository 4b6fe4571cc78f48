// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/ManuGH/smartplayer/internal/log"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ReloadDebounce coalesces bursts of file events into one reload.
const ReloadDebounce = 500 * time.Millisecond

// Holder owns the current configuration and swaps it on reload.
type Holder struct {
	mu        sync.RWMutex
	current   AppConfig
	loader    *Loader
	listeners []chan<- AppConfig
	logger    zerolog.Logger
}

// NewHolder wraps an already loaded configuration.
func NewHolder(initial AppConfig, loader *Loader) *Holder {
	return &Holder{
		current: initial,
		loader:  loader,
		logger:  log.WithComponent("config"),
	}
}

// Get returns the current configuration.
func (h *Holder) Get() AppConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload re-runs the loader. On failure the current configuration is kept.
func (h *Holder) Reload(_ context.Context) error {
	h.logger.Info().Str("event", "config.reload_start").Msg("reloading configuration")

	next, err := h.loader.Load()
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("event", "config.reload_failed").
			Msg("configuration reload failed, keeping current configuration")
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	old := h.current
	h.current = next
	listeners := append([]chan<- AppConfig(nil), h.listeners...)
	h.mu.Unlock()

	h.logChanges(old, next)
	h.logger.Info().Str("event", "config.reload_success").Msg("configuration reloaded")

	for _, ch := range listeners {
		select {
		case ch <- next:
		default:
			h.logger.Warn().
				Str("event", "config.listener_skip").
				Msg("config listener not ready, skipping notification")
		}
	}
	return nil
}

// RegisterListener adds a channel that receives each successfully reloaded configuration.
// Sends never block; a full channel misses the update.
func (h *Holder) RegisterListener(ch chan<- AppConfig) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, ch)
}

// Watch reloads on changes to the config file until ctx is cancelled.
// It watches the parent directory so editors that replace the file are seen.
func (h *Holder) Watch(ctx context.Context) error {
	path := h.loader.Path()
	if path == "" {
		h.logger.Debug().Str("event", "config.watcher_disabled").Msg("no config file, watcher disabled")
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}
	h.logger.Info().
		Str("event", "config.watcher_started").
		Str("path", abs).
		Msg("watching configuration file")

	var debounce <-chan time.Time
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str("event", "config.watcher_stopped").Msg("config watcher stopped")
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			h.logger.Debug().
				Str("event", "config.file_changed").
				Str("op", ev.Op.String()).
				Msg("config file changed")
			if timer == nil {
				timer = time.NewTimer(ReloadDebounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(ReloadDebounce)
			}
			debounce = timer.C
		case <-debounce:
			debounce = nil
			_ = h.Reload(ctx)
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			h.logger.Warn().
				Err(werr).
				Str("event", "config.watcher_error").
				Msg("config watcher error")
		}
	}
}

func (h *Holder) logChanges(old, next AppConfig) {
	ev := h.logger.Info().Str("event", "config.changes")
	changed := false
	if old.LogLevel != next.LogLevel {
		ev = ev.Str("log_level", old.LogLevel+" -> "+next.LogLevel)
		changed = true
	}
	if !reflect.DeepEqual(old.Player.Defaults, next.Player.Defaults) {
		ev = ev.Int("player_defaults", len(next.Player.Defaults))
		changed = true
	}
	if old.Tracking.Collector.URL != next.Tracking.Collector.URL {
		ev = ev.Bool("collector_url_changed", true)
		changed = true
	}
	if old.API.ListenAddr != next.API.ListenAddr {
		ev = ev.Str("api_listen", next.API.ListenAddr).Bool("restart_required", true)
		changed = true
	}
	if !changed {
		ev.Discard()
		return
	}
	ev.Msg("configuration changed")
}
