// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ManuGH/smartplayer/internal/journal"
	"github.com/ManuGH/smartplayer/internal/persistence/sqlite"
)

func runJournalCLI(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] != "verify" {
		fmt.Fprintln(stderr, "Usage:")
		fmt.Fprintln(stderr, "  smartplayer journal verify --path journal.db [--mode quick|full]")
		if len(args) == 0 {
			return 0
		}
		return 2
	}

	fs := flag.NewFlagSet("smartplayer journal verify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var path, mode string
	fs.StringVar(&path, "path", "", "path to the journal database")
	fs.StringVar(&mode, "mode", "quick", "check depth: quick or full")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	path = strings.TrimSpace(path)
	if path == "" {
		fmt.Fprintln(stderr, "Error: --path is required")
		return 2
	}
	verifyMode, err := sqlite.ParseVerifyMode(mode)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rep, err := journal.Inspect(ctx, path, verifyMode)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if len(rep.Problems) > 0 {
		for _, p := range rep.Problems {
			fmt.Fprintln(stderr, p)
		}
		return 1
	}
	fmt.Fprintf(stdout, "%s: ok (%d events)\n", path, rep.Events)
	return 0
}
