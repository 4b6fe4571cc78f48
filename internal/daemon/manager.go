// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ManuGH/smartplayer/internal/log"
	"github.com/rs/zerolog"
)

// ShutdownHook runs during graceful shutdown after the listeners have stopped.
// Hooks run in reverse registration order.
type ShutdownHook func(ctx context.Context) error

// Manager owns the listeners of the daemon.
type Manager interface {
	// Start serves until ctx is cancelled or a listener fails, then shuts down.
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
	RegisterShutdownHook(name string, hook ShutdownHook)
}

type manager struct {
	serverCfg ServerConfig
	deps      Deps
	logger    zerolog.Logger

	mu       sync.Mutex
	servers  []namedServer
	hooks    []namedHook
	started  bool
	stopping bool
}

type namedServer struct {
	name string
	srv  *http.Server
}

type namedHook struct {
	name string
	hook ShutdownHook
}

// NewManager validates deps and prepares the control API listener and, when
// both an address and a handler are set, the metrics listener.
func NewManager(serverCfg ServerConfig, deps Deps) (Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if serverCfg.ShutdownTimeout <= 0 {
		serverCfg.ShutdownTimeout = 15 * time.Second
	}
	return &manager{
		serverCfg: serverCfg,
		deps:      deps,
		logger:    deps.Logger.With().Str(log.FieldComponent, "manager").Logger(),
	}, nil
}

func (m *manager) buildServers() []namedServer {
	// No WriteTimeout: websocket shims hold the API connection open.
	servers := []namedServer{{
		name: "API server",
		srv: &http.Server{
			Addr:              m.serverCfg.ListenAddr,
			Handler:           m.deps.APIHandler,
			ReadTimeout:       m.serverCfg.ReadTimeout,
			ReadHeaderTimeout: m.serverCfg.ReadTimeout / 2,
			IdleTimeout:       m.serverCfg.IdleTimeout,
			MaxHeaderBytes:    m.serverCfg.MaxHeaderBytes,
		},
	}}
	if m.deps.MetricsHandler != nil && m.serverCfg.MetricsAddr != "" {
		servers = append(servers, namedServer{
			name: "metrics server",
			srv: &http.Server{
				Addr:              m.serverCfg.MetricsAddr,
				Handler:           m.deps.MetricsHandler,
				ReadHeaderTimeout: 5 * time.Second,
			},
		})
	}
	return servers
}

func (m *manager) Start(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("start context is nil")
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("manager already started")
	}
	m.started = true
	m.servers = m.buildServers()
	servers := m.servers
	m.mu.Unlock()

	m.logger.Info().
		Str(log.FieldEvent, "daemon.starting").
		Str("listen", m.serverCfg.ListenAddr).
		Str("metrics_listen", m.serverCfg.MetricsAddr).
		Dur("shutdown_timeout", m.serverCfg.ShutdownTimeout).
		Msg("starting listeners")

	errChan := make(chan error, len(servers))
	for _, s := range servers {
		go m.serve(s, errChan)
	}

	var cause error
	select {
	case cause = <-errChan:
		m.logger.Error().Err(cause).Msg("listener failed, shutting down")
	case <-ctx.Done():
		m.logger.Info().Str(log.FieldEvent, "daemon.stopping").Msg("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.serverCfg.ShutdownTimeout)
	defer cancel()
	if err := m.Shutdown(shutdownCtx); err != nil {
		if cause != nil {
			return fmt.Errorf("server error and shutdown failure: %w", errors.Join(cause, err))
		}
		return err
	}
	return cause
}

func (m *manager) serve(s namedServer, errChan chan<- error) {
	m.logger.Info().Str("addr", s.srv.Addr).Msgf("%s listening", s.name)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errChan <- fmt.Errorf("%s: %w", s.name, err)
	}
}

// Shutdown stops the listeners, then runs the hooks newest first. Hijacked
// websocket connections outlive Server.Shutdown; a hook has to close them.
func (m *manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("shutdown context is nil")
	}

	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	servers := append([]namedServer(nil), m.servers...)
	hooks := append([]namedHook(nil), m.hooks...)
	m.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.serverCfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	for _, s := range servers {
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("%s shutdown: %w", s.name, err))
		}
	}

	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		start := time.Now()
		err := h.hook(shutdownCtx)
		ev := m.logger.Debug()
		if err != nil {
			ev = m.logger.Error().Err(err)
			errs = append(errs, fmt.Errorf("hook %s: %w", h.name, err))
		}
		ev.Str("hook", h.name).Dur(log.FieldDuration, time.Since(start)).Msg("shutdown hook finished")
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	m.logger.Info().Str(log.FieldEvent, "daemon.stopped").Msg("listeners stopped cleanly")
	return nil
}

func (m *manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, namedHook{name: name, hook: hook})
}
