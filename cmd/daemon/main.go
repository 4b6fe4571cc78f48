// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command smartplayer runs the smart player host daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/smartplayer/internal/config"
	"github.com/ManuGH/smartplayer/internal/daemon"
	splog "github.com/ManuGH/smartplayer/internal/log"
	"github.com/ManuGH/smartplayer/internal/version"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:], os.Stdout, os.Stderr))
		case "simulate":
			os.Exit(runSimulate(os.Args[2:], os.Stdout, os.Stderr))
		case "journal":
			os.Exit(runJournalCLI(os.Args[2:], os.Stdout, os.Stderr))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Safe defaults until the config is loaded.
	splog.Configure(splog.Config{
		Level:   "info",
		Service: "smartplayer",
		Version: version.Version,
	})
	logger := splog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := strings.TrimSpace(*configPath)
	if path == "" {
		path = strings.TrimSpace(config.ParseString(config.EnvPrefix+"CONFIG", ""))
	}

	loader := config.NewLoader(path, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
	}

	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	logger.Info().
		Str("event", "config.loaded").
		Str("source", source).
		Str("path", path).
		Int("env_keys", len(loader.ConsumedEnvKeys)).
		Msg("loaded configuration")

	rt, err := daemon.Bootstrap(ctx, config.NewHolder(cfg, loader))
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "daemon.bootstrap_failed").
			Msg("failed to assemble daemon")
	}

	if err := rt.App.Run(ctx); err != nil {
		logger.Error().
			Err(err).
			Str("event", "daemon.failed").
			Msg("daemon stopped with error")
		os.Exit(1)
	}
	stopLogger := splog.WithComponent("daemon")
	stopLogger.Info().Str("event", "daemon.stopped").Msg("daemon stopped")
}
