// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package collector posts tracked records to an HTTP analytics collector.
//
// Deliver only enqueues. A single worker drains the queue, paced by a token
// bucket and guarded by a circuit breaker. Records that cannot be sent are
// dropped and counted; nothing is retried.
package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/ManuGH/smartplayer/internal/log"
	"github.com/ManuGH/smartplayer/internal/metrics"
	"github.com/ManuGH/smartplayer/internal/platform/httpx"
	"github.com/ManuGH/smartplayer/internal/resilience"
	"github.com/ManuGH/smartplayer/internal/tracking"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// SinkName is the collector's name in metrics and logs.
const SinkName = "collector"

var (
	ErrQueueFull = errors.New("collector: queue full")
	ErrClosed    = errors.New("collector: closed")
)

// Config configures the collector sink.
type Config struct {
	URL              string
	AllowHosts       []string
	Timeout          time.Duration
	QueueSize        int
	RatePerSecond    float64
	Burst            int
	FailureThreshold int
	OpenTimeout      time.Duration
	UserAgent        string
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 1024
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = 50
	}
	if c.Burst <= 0 {
		c.Burst = int(c.RatePerSecond)
		if c.Burst < 1 {
			c.Burst = 1
		}
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "smartplayer-collector"
	}
}

// Collector is a tracking.Sink that posts JSON records.
type Collector struct {
	cfg     Config
	url     string
	client  *http.Client
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
	logger  zerolog.Logger

	queue  chan tracking.Record
	mu     sync.RWMutex
	closed bool
}

var _ tracking.Sink = (*Collector)(nil)

// Option customizes a Collector.
type Option func(*Collector)

// WithHTTPClient replaces the outbound client.
func WithHTTPClient(c *http.Client) Option {
	return func(col *Collector) { col.client = c }
}

// New validates cfg and returns an idle collector. Run must be started for
// records to leave the queue.
func New(cfg Config, opts ...Option) (*Collector, error) {
	cfg.applyDefaults()
	u, err := normalizeEndpoint(cfg.URL, cfg.AllowHosts)
	if err != nil {
		return nil, err
	}
	c := &Collector{
		cfg:     cfg,
		url:     u,
		client:  httpx.NewClient(SinkName, cfg.Timeout),
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		breaker: resilience.NewCircuitBreaker(SinkName, cfg.FailureThreshold, cfg.OpenTimeout,
			resilience.WithSuccessFilter(func(err error) bool {
				return errors.Is(err, context.Canceled)
			})),
		logger: log.WithComponent("collector"),
		queue:  make(chan tracking.Record, cfg.QueueSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Collector) Name() string { return SinkName }

// URL returns the normalized endpoint.
func (c *Collector) URL() string { return c.url }

// Deliver enqueues rec without blocking.
func (c *Collector) Deliver(_ context.Context, rec tracking.Record) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		metrics.IncCollectorDropped("closed")
		return ErrClosed
	}
	select {
	case c.queue <- rec:
		return nil
	default:
		metrics.IncCollectorDropped("queue_full")
		return ErrQueueFull
	}
}

// Run drains the queue until ctx is cancelled or Close is called.
func (c *Collector) Run(ctx context.Context) error {
	c.logger.Info().
		Str(log.FieldEvent, "collector.started").
		Str(log.FieldURL, c.url).
		Msg("collector worker started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case rec, ok := <-c.queue:
			if !ok {
				return nil
			}
			c.send(ctx, rec)
		}
	}
}

func (c *Collector) send(ctx context.Context, rec tracking.Record) {
	if err := c.limiter.Wait(ctx); err != nil {
		metrics.IncCollectorDropped("rate_limited")
		return
	}
	err := c.breaker.Execute(func() error { return c.post(ctx, rec) })
	switch {
	case err == nil:
	case errors.Is(err, resilience.ErrCircuitOpen):
		metrics.IncCollectorDropped("breaker_open")
	default:
		metrics.IncCollectorDropped("post_failed")
		c.logger.Debug().
			Err(err).
			Str(log.FieldPlayerID, rec.PlayerID).
			Str(log.FieldEvent, rec.Event).
			Msg("collector post failed")
	}
}

type wireRecord struct {
	Event    string         `json:"event"`
	PlayerID string         `json:"playerId"`
	At       time.Time      `json:"at"`
	Payload  map[string]any `json:"payload"`
}

func (c *Collector) post(ctx context.Context, rec tracking.Record) error {
	body, err := json.Marshal(wireRecord{
		Event:    rec.Event,
		PlayerID: rec.PlayerID,
		At:       rec.At,
		Payload:  tracking.Sanitize(rec.Payload),
	})
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("collector responded %d", resp.StatusCode)
	}
	return nil
}

// Breaker exposes the breaker state for health reporting.
func (c *Collector) Breaker() string { return c.breaker.State() }

// Pending returns the number of queued records.
func (c *Collector) Pending() int { return len(c.queue) }

// Close stops accepting records and lets Run finish the queued ones.
func (c *Collector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.queue)
	return nil
}
