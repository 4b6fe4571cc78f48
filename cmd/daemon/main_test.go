// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bufio"
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ManuGH/smartplayer/internal/journal"
	"github.com/ManuGH/smartplayer/internal/tracking"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigInitValidateDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smartplayer.yaml")
	var out, errOut bytes.Buffer

	require.Equal(t, 0, runConfigCLI([]string{"init", "-f", path}, &out, &errOut), errOut.String())
	assert.Contains(t, out.String(), path)

	errOut.Reset()
	assert.Equal(t, 1, runConfigCLI([]string{"init", "-f", path}, &out, &errOut))
	assert.Contains(t, errOut.String(), "--force")

	out.Reset()
	require.Equal(t, 0, runConfigCLI([]string{"validate", "--file", path}, &out, &errOut))
	assert.Contains(t, out.String(), "is valid")

	t.Setenv("SMARTPLAYER_REDIS_PASSWORD", "hunter2")
	out.Reset()
	require.Equal(t, 0, runConfigCLI([]string{"dump", "-f", path, "--format", "json"}, &out, &errOut), errOut.String())
	assert.NotContains(t, out.String(), "hunter2")
	assert.Contains(t, out.String(), redacted)
}

func TestConfigValidateReportsErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logLevel: shouting\n"), 0o600))

	var out, errOut bytes.Buffer
	assert.Equal(t, 1, runConfigCLI([]string{"validate", "-f", path}, &out, &errOut))
	assert.Contains(t, errOut.String(), "LogLevel")
	assert.Equal(t, 2, runConfigCLI([]string{"validate"}, &out, &errOut))
	assert.Equal(t, 2, runConfigCLI([]string{"frobnicate"}, &out, &errOut))
}

func readEvents(t *testing.T, out *bytes.Buffer) []simulatedEvent {
	t.Helper()
	var events []simulatedEvent
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		var ev simulatedEvent
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		events = append(events, ev)
	}
	return events
}

func eventNames(events []simulatedEvent) []string {
	names := make([]string, 0, len(events))
	for _, ev := range events {
		names = append(names, ev.Event)
	}
	return names
}

func TestSimulateFullViewing(t *testing.T) {
	var out, errOut bytes.Buffer
	require.Equal(t, 0, runSimulate([]string{"-duration", "20", "-step", "1"}, &out, &errOut), errOut.String())

	assert.Equal(t, []string{
		tracking.EventVideoStart,
		tracking.EventFirstQuartile,
		tracking.EventMidpoint,
		tracking.EventThirdQuartile,
		tracking.EventCompleted,
		tracking.EventPause,
		tracking.EventVideoEnded,
	}, eventNames(readEvents(t, &out)))
}

func TestSimulatePauseAndReplay(t *testing.T) {
	var out, errOut bytes.Buffer
	code := runSimulate([]string{"-duration", "8", "-step", "2", "-pause-at", "4", "-replay"}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())

	names := eventNames(readEvents(t, &out))
	assert.Contains(t, names, tracking.EventResume)
	assert.Contains(t, names, tracking.EventReplay)
	assert.Equal(t, tracking.EventVideoEnded, names[len(names)-1])
}

func TestSimulateRejectsUnknownAttribute(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 2, runSimulate([]string{"-attr", "colour=red"}, &out, &errOut))
	assert.Contains(t, errOut.String(), "unknown attribute")
}

func TestTickBudget(t *testing.T) {
	tests := []struct {
		name           string
		duration, step float64
		want           int
	}{
		{"whole steps", 30, 1, 31},
		{"partial last step", 10, 3, 5},
		{"unknown duration", math.NaN(), 1, 1000},
		{"huge ratio is capped", math.MaxFloat64, 1e-300, maxSimulatedTicks},
		{"just over the cap", maxSimulatedTicks, 1, maxSimulatedTicks},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tickBudget(tt.duration, tt.step))
		})
	}
}

func TestJournalVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := journal.Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Deliver(context.Background(), tracking.Record{
		Event:    tracking.EventVideoStart,
		PlayerID: "p1",
		At:       time.Now(),
	}))
	require.NoError(t, j.Close())

	var out, errOut bytes.Buffer
	require.Equal(t, 0, runJournalCLI([]string{"verify", "--path", path}, &out, &errOut), errOut.String())
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out.String()), "(1 events)"))

	assert.Equal(t, 1, runJournalCLI([]string{"verify", "--path", filepath.Join(t.TempDir(), "missing.db")}, &out, &errOut))
	assert.Equal(t, 2, runJournalCLI([]string{"verify", "--path", path, "--mode", "deep"}, &out, &errOut))
}
