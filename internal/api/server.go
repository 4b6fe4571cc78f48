// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api serves the control API that browser shims and operators use
// to create players, feed them primitive state and receive commands back.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/ManuGH/smartplayer/internal/api/middleware"
	"github.com/ManuGH/smartplayer/internal/bus"
	"github.com/ManuGH/smartplayer/internal/health"
	"github.com/ManuGH/smartplayer/internal/host"
	"github.com/ManuGH/smartplayer/internal/log"
	"github.com/ManuGH/smartplayer/internal/media"
	"github.com/ManuGH/smartplayer/internal/player"
	"github.com/ManuGH/smartplayer/internal/surface"
	"github.com/ManuGH/smartplayer/internal/tracking"
	"github.com/ManuGH/smartplayer/internal/visibility"
	"github.com/ManuGH/smartplayer/internal/widget"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Registry is the player registry the API drives.
type Registry interface {
	Create(ctx context.Context, attrs widget.Attributes) (host.Info, error)
	Get(id string) (host.Info, error)
	Status(id string) (player.Status, error)
	List() []host.Info
	Remove(id string) error
	Notify(ctx context.Context, id string, n media.Notification) error
	Intersect(id string, entries []visibility.Entry) (int, error)
	Gesture(ctx context.Context, id string, g surface.Gesture) (surface.Action, error)
	Command(ctx context.Context, id string, cmd player.Command) error
	Commands(id string) (<-chan media.Command, <-chan struct{}, error)
	Subscribe(ctx context.Context, id string) (bus.Subscriber, error)
}

// EventLog serves recently tracked records.
type EventLog interface {
	Recent(ctx context.Context, playerID string, limit int) ([]tracking.Record, error)
}

// Config configures the API server.
type Config struct {
	ListenAddr        string
	AllowedOrigins    []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	// TrustProxy keys the rate limit on X-Forwarded-For / X-Real-IP.
	TrustProxy     bool
	TracingService string
	EnableMetrics  bool
}

// Option configures a Server.
type Option func(*Server)

// WithHealth serves probes from m instead of an empty manager.
func WithHealth(m *health.Manager) Option {
	return func(s *Server) { s.health = m }
}

// WithEventLog enables GET /players/{id}/events.
func WithEventLog(l EventLog) Option {
	return func(s *Server) { s.events = l }
}

// Server is the HTTP control API.
type Server struct {
	cfg      Config
	players  Registry
	events   EventLog
	health   *health.Manager
	validate *validator.Validate
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	mu     sync.Mutex
	router chi.Router
}

// New builds the server. Routes are assembled lazily by Handler.
func New(cfg Config, players Registry, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		players:  players,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   log.WithComponent("api"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin: func(r *http.Request) bool {
			return middleware.OriginAllowed(s.cfg.AllowedOrigins, r.Header.Get("Origin"))
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.health == nil {
		s.health = health.NewManager("")
	}
	return s
}

// Handler returns the routed handler with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.router != nil {
		return s.router
	}

	r := middleware.NewRouter(middleware.StackConfig{
		EnableCORS:            true,
		AllowedOrigins:        s.cfg.AllowedOrigins,
		EnableSecurityHeaders: true,
		EnableMetrics:         s.cfg.EnableMetrics,
		TracingService:        s.cfg.TracingService,
		EnableLogging:         true,
		RateLimitRequests:     s.cfg.RateLimitRequests,
		RateLimitWindow:       s.cfg.RateLimitWindow,
		RateLimitTrustProxy:   s.cfg.TrustProxy,
	})

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Route("/api/v1/players", func(r chi.Router) {
		r.Post("/", s.handleCreatePlayer)
		r.Get("/", s.handleListPlayers)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(middleware.PlayerContext)
			r.Get("/", s.handleGetPlayer)
			r.Delete("/", s.handleDeletePlayer)
			r.Post("/commands", s.handleCommand)
			r.Post("/notifications", s.handleNotification)
			r.Post("/intersections", s.handleIntersection)
			r.Post("/gestures", s.handleGesture)
			r.Get("/events", s.handleEvents)
			r.Get("/ws", s.handleWebsocket)
		})
	})

	s.router = r
	return r
}
