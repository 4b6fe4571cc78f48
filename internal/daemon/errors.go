// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"errors"
	"fmt"
)

var (
	ErrMissingLogger     = errors.New("logger is required")
	ErrMissingAPIHandler = errors.New("control API handler is required")
	ErrMissingManager    = errors.New("manager is required")

	// ErrManagerNotStarted is returned by Shutdown before Start.
	ErrManagerNotStarted = errors.New("manager not started")
)

// SinkError reports a tracking sink that could not be built at startup.
// The daemon refuses to start rather than silently dropping a configured sink.
type SinkError struct {
	Sink string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("%s sink: %v", e.Sink, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

func sinkError(sink string, err error) error {
	return &SinkError{Sink: sink, Err: err}
}
