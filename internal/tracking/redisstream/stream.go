// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package redisstream appends tracked records to a Redis stream for
// downstream consumers.
package redisstream

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ManuGH/smartplayer/internal/log"
	"github.com/ManuGH/smartplayer/internal/resilience"
	"github.com/ManuGH/smartplayer/internal/tracking"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SinkName is the sink's name in metrics and logs.
const SinkName = "redis"

// Config holds the Redis connection and stream settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	// MaxLen caps the stream length approximately; 0 disables trimming.
	MaxLen int64
}

// Sink is a tracking.Sink writing with XADD.
type Sink struct {
	client  *redis.Client
	stream  string
	maxLen  int64
	breaker *resilience.CircuitBreaker
	logger  zerolog.Logger
}

var _ tracking.Sink = (*Sink)(nil)

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Sink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	})

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	s := NewWithClient(client, cfg.Stream, cfg.MaxLen)
	s.logger.Info().
		Str("addr", cfg.Addr).
		Int("db", cfg.DB).
		Str("stream", s.stream).
		Msg("connected to Redis stream")
	return s, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, stream string, maxLen int64) *Sink {
	if stream == "" {
		stream = "smartplayer:events"
	}
	return &Sink{
		client:  client,
		stream:  stream,
		maxLen:  maxLen,
		breaker: resilience.NewCircuitBreaker(SinkName, 5, 30*time.Second),
		logger:  log.WithComponent("redisstream"),
	}
}

func (s *Sink) Name() string { return SinkName }

// Deliver appends rec as one stream entry.
func (s *Sink) Deliver(ctx context.Context, rec tracking.Record) error {
	payload, err := json.Marshal(tracking.Sanitize(rec.Payload))
	if err != nil {
		return fmt.Errorf("redisstream: encode payload: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"event":    rec.Event,
			"playerId": rec.PlayerID,
			"at":       strconv.FormatInt(rec.At.UnixMilli(), 10),
			"payload":  string(payload),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	return s.breaker.Execute(func() error {
		return s.client.XAdd(ctx, args).Err()
	})
}

// Len returns the current stream length.
func (s *Sink) Len(ctx context.Context) (int64, error) {
	return s.client.XLen(ctx, s.stream).Result()
}

// Ping checks the connection.
func (s *Sink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Sink) Close() error {
	return s.client.Close()
}
