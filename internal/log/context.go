// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package log provides structured logging utilities.
package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	playerIDKey
)

// contextFields lists the context values copied onto loggers, in output order.
var contextFields = []struct {
	key   ctxKey
	field string
}{
	{requestIDKey, FieldRequestID},
	{playerIDKey, FieldPlayerID},
}

// ContextWithRequestID tags ctx with the API request id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return withValue(ctx, requestIDKey, id)
}

// ContextWithPlayerID tags ctx with the player a request or connection acts on.
func ContextWithPlayerID(ctx context.Context, id string) context.Context {
	return withValue(ctx, playerIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string { return stringValue(ctx, requestIDKey) }

func PlayerIDFromContext(ctx context.Context) string { return stringValue(ctx, playerIDKey) }

func withValue(ctx context.Context, key ctxKey, v string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, v)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// WithContext adds the request and player ids carried by ctx to logger.
// The logger is returned unchanged when ctx carries neither.
func WithContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	if ctx == nil {
		return logger
	}
	var builder zerolog.Context
	added := false
	for _, f := range contextFields {
		v := stringValue(ctx, f.key)
		if v == "" {
			continue
		}
		if !added {
			builder = logger.With()
			added = true
		}
		builder = builder.Str(f.field, v)
	}
	if !added {
		return logger
	}
	return builder.Logger()
}

// WithComponentFromContext returns the component logger enriched from ctx.
func WithComponentFromContext(ctx context.Context, component string) zerolog.Logger {
	return WithContext(ctx, WithComponent(component))
}
