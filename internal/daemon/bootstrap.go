// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ManuGH/smartplayer/internal/api"
	"github.com/ManuGH/smartplayer/internal/bus"
	"github.com/ManuGH/smartplayer/internal/config"
	"github.com/ManuGH/smartplayer/internal/health"
	"github.com/ManuGH/smartplayer/internal/host"
	"github.com/ManuGH/smartplayer/internal/journal"
	"github.com/ManuGH/smartplayer/internal/log"
	"github.com/ManuGH/smartplayer/internal/ratelimit"
	"github.com/ManuGH/smartplayer/internal/telemetry"
	"github.com/ManuGH/smartplayer/internal/tracking"
	"github.com/ManuGH/smartplayer/internal/tracking/collector"
	"github.com/ManuGH/smartplayer/internal/tracking/redisstream"
	"github.com/ManuGH/smartplayer/internal/widget"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Option adjusts Bootstrap.
type Option func(*bootstrapOptions)

type bootstrapOptions struct {
	collectorClient *http.Client
	metricsHandler  http.Handler
}

// WithCollectorClient replaces the collector's outbound HTTP client.
func WithCollectorClient(c *http.Client) Option {
	return func(o *bootstrapOptions) { o.collectorClient = c }
}

// WithMetricsHandler replaces the Prometheus handler.
func WithMetricsHandler(h http.Handler) Option {
	return func(o *bootstrapOptions) { o.metricsHandler = h }
}

// Runtime exposes the components Bootstrap assembled.
type Runtime struct {
	App        *App
	Host       *host.Host
	Dispatcher *tracking.Dispatcher
	Journal    *journal.Journal
	Health     *health.Manager
	API        *api.Server
}

// Bootstrap builds the daemon from the holder's current configuration.
// Nothing listens or runs until Runtime.App.Run is called.
func Bootstrap(ctx context.Context, holder *config.Holder, opts ...Option) (*Runtime, error) {
	o := bootstrapOptions{metricsHandler: promhttp.Handler()}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := holder.Get()
	log.Configure(log.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})
	logger := log.WithComponent("daemon")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	b := bus.NewMemoryBusWithBuffer(cfg.Tracking.QueueSize)

	hostOpts := []host.Option{host.WithDefaults(widget.Attributes(cfg.Player.Defaults))}
	if cfg.API.IngestPerSecond > 0 {
		rl := ratelimit.DefaultConfig()
		rl.PerKeyRate = rate.Limit(cfg.API.IngestPerSecond)
		rl.PerKeyBurst = max(cfg.API.IngestBurst, 1)
		hostOpts = append(hostOpts, host.WithLimiter(ratelimit.New(rl)))
	}
	players := host.New(b, hostOpts...)

	rt := &Runtime{Host: players, Health: health.NewManager(cfg.Version)}
	rt.Health.RegisterChecker(health.Count("players", "players", players.Len))
	var closers []Closer
	var runners []Runner
	fail := func(err error) (*Runtime, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
		_ = players.Close()
		_ = tp.Shutdown(context.Background())
		return nil, err
	}

	var sinks []tracking.Sink
	if cfg.Tracking.Enabled {
		tc := cfg.Tracking
		if tc.Collector.URL != "" {
			var copts []collector.Option
			if o.collectorClient != nil {
				copts = append(copts, collector.WithHTTPClient(o.collectorClient))
			}
			col, err := collector.New(collector.Config{
				URL:              tc.Collector.URL,
				AllowHosts:       tc.Collector.AllowHosts,
				Timeout:          tc.Collector.Timeout,
				QueueSize:        tc.QueueSize,
				RatePerSecond:    tc.Collector.RatePerSecond,
				Burst:            tc.Collector.Burst,
				FailureThreshold: int(tc.Collector.FailureThreshold),
				OpenTimeout:      tc.Collector.OpenTimeout,
				UserAgent:        "smartplayer/" + cfg.Version,
			}, copts...)
			if err != nil {
				return fail(sinkError(collector.SinkName, err))
			}
			sinks = append(sinks, col)
			rt.Health.RegisterChecker(health.Breaker(collector.SinkName, col.Breaker))
			runners = append(runners, Runner{Name: collector.SinkName, Run: col.Run})
			closers = append(closers, Closer{Name: collector.SinkName, Close: col.Close})
		}
		if tc.Redis.Addr != "" {
			rs, err := redisstream.New(ctx, redisstream.Config{
				Addr:     tc.Redis.Addr,
				Password: tc.Redis.Password,
				DB:       tc.Redis.DB,
				Stream:   tc.Redis.Stream,
				MaxLen:   tc.Redis.MaxLen,
			})
			if err != nil {
				return fail(sinkError(redisstream.SinkName, err))
			}
			sinks = append(sinks, rs)
			rt.Health.RegisterChecker(health.Ping(redisstream.SinkName, false, rs.Ping))
			closers = append(closers, Closer{Name: redisstream.SinkName, Close: rs.Close})
		}
		if tc.Journal.Path != "" {
			j, err := journal.Open(tc.Journal.Path)
			if err != nil {
				return fail(sinkError(journal.SinkName, err))
			}
			sinks = append(sinks, j)
			rt.Health.RegisterChecker(health.Ping(journal.SinkName, true, j.Ping))
			closers = append(closers, Closer{Name: journal.SinkName, Close: j.Close})
			rt.Journal = j
		}

		rt.Dispatcher = tracking.NewDispatcher(b, 0, sinks...)
		runners = append([]Runner{{Name: "dispatcher", Run: rt.Dispatcher.Run}}, runners...)
	} else {
		logger.Info().Str("event", "tracking.disabled").Msg("tracking sinks disabled")
	}

	apiOpts := []api.Option{api.WithHealth(rt.Health)}
	if rt.Journal != nil {
		apiOpts = append(apiOpts, api.WithEventLog(rt.Journal))
	}
	rt.API = api.New(api.Config{
		ListenAddr:        cfg.API.ListenAddr,
		AllowedOrigins:    cfg.API.AllowedOrigins,
		RateLimitRequests: cfg.API.RateLimit.Requests,
		RateLimitWindow:   cfg.API.RateLimit.Window,
		TrustProxy:        cfg.API.TrustProxy,
		TracingService:    cfg.LogService,
		EnableMetrics:     cfg.Metrics.Enabled,
	}, players, apiOpts...)

	serverCfg := DefaultServerConfig(cfg.API.ListenAddr)
	deps := Deps{
		Logger:     logger,
		APIHandler: rt.API.Handler(),
	}
	if cfg.Metrics.Enabled {
		serverCfg.MetricsAddr = cfg.Metrics.ListenAddr
		deps.MetricsHandler = o.metricsHandler
	}
	mgr, err := NewManager(serverCfg, deps)
	if err != nil {
		return fail(err)
	}

	mgr.RegisterShutdownHook("telemetry", tp.Shutdown)
	mgr.RegisterShutdownHook("host", func(context.Context) error { return players.Close() })

	app := NewApp(logger, mgr, holder, players)
	for _, r := range runners {
		app.AddRunner(r.Name, r.Run)
	}
	for _, c := range closers {
		app.AddCloser(c.Name, c.Close)
	}
	rt.App = app

	logger.Info().
		Str("event", "daemon.bootstrapped").
		Str("listen", cfg.API.ListenAddr).
		Bool("tracking", cfg.Tracking.Enabled).
		Strs("sinks", sinkNames(sinks)).
		Msg("daemon assembled")
	return rt, nil
}

func sinkNames(sinks []tracking.Sink) []string {
	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	return names
}
