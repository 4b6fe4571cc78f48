// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package resilience guards outbound tracking sinks with a circuit breaker.
package resilience

import (
	"errors"
	"time"

	"github.com/ManuGH/smartplayer/internal/log"
	"github.com/ManuGH/smartplayer/internal/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
)

// State represents the circuit breaker state.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

var (
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// CircuitBreaker opens after threshold consecutive failures and lets a
// single probe through once resetTimeout has passed.
type CircuitBreaker struct {
	name string
	cb   *gobreaker.CircuitBreaker[struct{}]
}

// Option configures the breaker settings before construction.
type Option func(*gobreaker.Settings)

// WithSuccessFilter marks errors that must not count as failures, such as a
// cancelled caller context.
func WithSuccessFilter(ok func(err error) bool) Option {
	return func(s *gobreaker.Settings) {
		s.IsSuccessful = func(err error) bool { return err == nil || ok(err) }
	}
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(name string, threshold int, resetTimeout time.Duration, opts ...Option) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 3
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     resetTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(threshold)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetCircuitBreakerState(name, to.String())
			if to == gobreaker.StateOpen {
				reason := "threshold_exceeded"
				if from == gobreaker.StateHalfOpen {
					reason = "half_open_failure"
				}
				metrics.RecordCircuitBreakerTrip(name, reason)
			}
			l := log.WithComponent("resilience")
			l.Info().
				Str("breaker", name).
				Str(log.FieldOldState, from.String()).
				Str(log.FieldNewState, to.String()).
				Msg("circuit breaker state change")
		},
	}
	for _, opt := range opts {
		opt(&st)
	}

	metrics.SetCircuitBreakerState(name, string(StateClosed))
	return &CircuitBreaker{name: name, cb: gobreaker.NewCircuitBreaker[struct{}](st)}
}

// Execute runs fn unless the breaker is open. A rejected call returns
// ErrCircuitOpen without running fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	_, err := cb.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

// State returns the current state.
func (cb *CircuitBreaker) State() string {
	return cb.cb.State().String()
}

// Name returns the breaker name used in metrics.
func (cb *CircuitBreaker) Name() string { return cb.name }
