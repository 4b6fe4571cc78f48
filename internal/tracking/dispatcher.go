// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tracking

import (
	"context"
	"errors"
	"time"

	"github.com/ManuGH/smartplayer/internal/bus"
	"github.com/ManuGH/smartplayer/internal/log"
	"github.com/ManuGH/smartplayer/internal/metrics"
	"github.com/ManuGH/smartplayer/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
)

// Dispatcher forwards records from the tracking topic to every sink.
// Sink failures are logged and counted; nothing is retried.
type Dispatcher struct {
	bus     bus.Bus
	sinks   []Sink
	timeout time.Duration
	logger  zerolog.Logger
}

// NewDispatcher builds a dispatcher. timeout bounds each single delivery.
func NewDispatcher(b bus.Bus, timeout time.Duration, sinks ...Sink) *Dispatcher {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Dispatcher{
		bus:     b,
		sinks:   sinks,
		timeout: timeout,
		logger:  log.WithComponent("dispatcher"),
	}
}

// Sinks returns the configured sink names.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, 0, len(d.sinks))
	for _, s := range d.sinks {
		names = append(names, s.Name())
	}
	return names
}

// Run consumes the tracking topic until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	sub, err := d.bus.Subscribe(ctx, bus.TopicTracking)
	if err != nil {
		return err
	}
	defer func() { _ = sub.Close() }()

	d.logger.Info().
		Str(log.FieldEvent, "dispatcher.started").
		Strs("sinks", d.Sinks()).
		Msg("tracking dispatcher started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.C():
			if !ok {
				return nil
			}
			rec, ok := msg.(Record)
			if !ok {
				continue
			}
			d.deliver(ctx, rec)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, rec Record) {
	for _, s := range d.sinks {
		dctx, cancel := context.WithTimeout(ctx, d.timeout)
		dctx, span := telemetry.Tracer("tracking").Start(dctx, "sink.deliver")
		span.SetAttributes(telemetry.DeliveryAttributes(s.Name(), rec.PlayerID, rec.Event)...)
		err := s.Deliver(dctx, rec)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(telemetry.ErrorAttributes(deliveryErrorType(err))...)
			span.SetStatus(codes.Error, "delivery failed")
		}
		span.End()
		cancel()
		metrics.ObserveSinkDelivery(s.Name(), err)
		if err != nil {
			d.logger.Debug().
				Err(err).
				Str(log.FieldSink, s.Name()).
				Str(log.FieldPlayerID, rec.PlayerID).
				Str(log.FieldEvent, rec.Event).
				Msg("sink delivery failed")
		}
	}
}

// deliveryErrorType classifies a sink error for span attributes.
func deliveryErrorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "sink"
}
