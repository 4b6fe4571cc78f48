// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"

	"github.com/ManuGH/smartplayer/internal/widget"
	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate runs struct tag validation followed by semantic checks.
// All failures are joined and wrapped with ErrInvalid.
func Validate(cfg AppConfig) error {
	var problems []string

	if err := structValidator().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			problems = append(problems, err.Error())
		}
	}

	if err := checkListenAddr(cfg.API.ListenAddr); err != nil && cfg.API.ListenAddr != "" {
		problems = append(problems, "api.listenAddr: "+err.Error())
	}
	if cfg.Metrics.Enabled {
		if err := checkListenAddr(cfg.Metrics.ListenAddr); err != nil {
			problems = append(problems, "metrics.listenAddr: "+err.Error())
		} else if cfg.Metrics.ListenAddr == cfg.API.ListenAddr {
			problems = append(problems, "metrics.listenAddr: must differ from api.listenAddr")
		}
	}
	if cfg.API.RateLimit.Requests > 0 && cfg.API.RateLimit.Window <= 0 {
		problems = append(problems, "api.rateLimit.window: must be positive when requests is set")
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		problems = append(problems, "telemetry.endpoint: required when telemetry is enabled")
	}

	unknown := make([]string, 0)
	for name := range cfg.Player.Defaults {
		if !widget.Known(name) {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		problems = append(problems, fmt.Sprintf("player.defaults: unknown attribute %q", name))
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}

func checkListenAddr(addr string) error {
	if addr == "" {
		return errors.New("required")
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return err
	}
	return nil
}
