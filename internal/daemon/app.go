// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon wires the player host, tracking sinks and servers together
// and owns their lifecycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/smartplayer/internal/config"
	"github.com/ManuGH/smartplayer/internal/log"
	"github.com/rs/zerolog"
)

// DefaultsApplier receives player defaults after a config reload.
type DefaultsApplier interface {
	ApplyDefaults(attrs map[string]string)
}

// Runner is a background loop that stops when its context is cancelled.
type Runner struct {
	Name string
	Run  func(ctx context.Context) error
}

// Closer releases a resource once every runner has returned.
type Closer struct {
	Name  string
	Close func() error
}

// App owns the long-lived runtime lifecycle (watchers, reload wiring, sink
// workers) and delegates server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	cfgHolder    *config.Holder
	players      DefaultsApplier
	runners      []Runner
	closers      []Closer
	reloadSignal os.Signal
}

// NewApp creates a new App orchestrator.
func NewApp(logger zerolog.Logger, manager Manager, cfgHolder *config.Holder, players DefaultsApplier) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		cfgHolder:    cfgHolder,
		players:      players,
		reloadSignal: syscall.SIGHUP,
	}
}

// AddRunner registers a background loop started by Run.
func (a *App) AddRunner(name string, run func(ctx context.Context) error) {
	a.runners = append(a.runners, Runner{Name: name, Run: run})
}

// AddCloser registers a resource closed after Run's loops have stopped.
// Closers run in reverse registration order.
func (a *App) AddCloser(name string, closeFn func() error) {
	a.closers = append(a.closers, Closer{Name: name, Close: closeFn})
}

// Run starts all owned background subsystems and blocks until ctx is cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, gctx := errgroup.WithContext(ctx)

	if a.cfgHolder != nil {
		g.Go(func() error {
			if err := a.cfgHolder.Watch(gctx); err != nil {
				a.logger.Warn().Err(err).Str("event", "config.watcher_start_failed").Msg("failed to start config watcher")
			}
			return nil
		})

		applyCh := make(chan config.AppConfig, 1)
		a.cfgHolder.RegisterListener(applyCh)
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case cfg := <-applyCh:
					a.apply(cfg)
				}
			}
		})

		if a.reloadSignal != nil {
			g.Go(func() error {
				hupChan := make(chan os.Signal, 1)
				signal.Notify(hupChan, a.reloadSignal)
				defer signal.Stop(hupChan)

				for {
					select {
					case <-gctx.Done():
						return nil
					case <-hupChan:
						a.logger.Info().
							Str("event", "config.reload_signal").
							Str("signal", a.reloadSignal.String()).
							Msg("received reload signal, reloading config")
						_ = a.cfgHolder.Reload(gctx)
					}
				}
			})
		}
	}

	for _, r := range a.runners {
		g.Go(func() error {
			if err := r.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("%s: %w", r.Name, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		err := a.manager.Start(gctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	err := g.Wait()
	return errors.Join(err, a.close())
}

func (a *App) apply(cfg config.AppConfig) {
	log.Configure(log.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})
	if a.players != nil {
		a.players.ApplyDefaults(cfg.Player.Defaults)
	}
	a.logger.Info().
		Str("event", "config.applied").
		Str("log_level", cfg.LogLevel).
		Int("player_defaults", len(cfg.Player.Defaults)).
		Msg("applied reloaded configuration")
}

func (a *App) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.Close(); err != nil {
			a.logger.Error().Err(err).Str("closer", c.Name).Msg("close failed")
			errs = append(errs, fmt.Errorf("close %s: %w", c.Name, err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
