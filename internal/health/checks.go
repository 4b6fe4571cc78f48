// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
)

type funcChecker struct {
	name string
	fn   func(ctx context.Context) CheckResult
}

func (c funcChecker) Name() string                          { return c.name }
func (c funcChecker) Check(ctx context.Context) CheckResult { return c.fn(ctx) }

// Func adapts fn into a Checker.
func Func(name string, fn func(ctx context.Context) CheckResult) Checker {
	return funcChecker{name: name, fn: fn}
}

// Ping reports unhealthy when ping fails. A non-critical dependency is
// reported degraded instead so it never makes the process unready.
func Ping(name string, critical bool, ping func(ctx context.Context) error) Checker {
	return Func(name, func(ctx context.Context) CheckResult {
		if err := ping(ctx); err != nil {
			status := StatusDegraded
			if critical {
				status = StatusUnhealthy
			}
			return CheckResult{Status: status, Error: err.Error()}
		}
		return CheckResult{Status: StatusHealthy}
	})
}

// Breaker maps a circuit breaker state to a status: closed is healthy,
// anything else is degraded.
func Breaker(name string, state func() string) Checker {
	return Func(name, func(context.Context) CheckResult {
		s := state()
		if s == "closed" {
			return CheckResult{Status: StatusHealthy, Message: "breaker " + s}
		}
		return CheckResult{Status: StatusDegraded, Message: "breaker " + s}
	})
}

// Count reports a gauge-like value such as the number of hosted players.
func Count(name, unit string, n func() int) Checker {
	return Func(name, func(context.Context) CheckResult {
		return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("%d %s", n(), unit)}
	})
}
