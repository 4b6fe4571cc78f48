// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader("", "v-test").Load()
	require.NoError(t, err)

	assert.Equal(t, "v-test", cfg.Version)
	assert.Equal(t, ":8080", cfg.API.ListenAddr)
	assert.Equal(t, time.Minute, cfg.API.RateLimit.Window)
	assert.True(t, cfg.Tracking.Enabled)
	assert.Equal(t, "smartplayer:events", cfg.Tracking.Redis.Stream)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
logLevel: debug
api:
  listenAddr: "127.0.0.1:7000"
  rateLimit:
    window: 30s
tracking:
  collector:
    url: https://collector.example.com/events
player:
  defaults:
    muted: ""
    fit: contain
`)
	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:7000", cfg.API.ListenAddr)
	assert.Equal(t, 30*time.Second, cfg.API.RateLimit.Window)
	assert.Equal(t, 120, cfg.API.RateLimit.Requests, "unset keys keep defaults")
	assert.Equal(t, "https://collector.example.com/events", cfg.Tracking.Collector.URL)
	assert.Equal(t, map[string]string{"muted": "", "fit": "contain"}, cfg.Player.Defaults)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yml", "logLevel: debug\n")
	t.Setenv("SMARTPLAYER_LOG_LEVEL", "warn")
	t.Setenv("SMARTPLAYER_COLLECTOR_ALLOW_HOSTS", "a.example.com, b.example.com,")
	t.Setenv("SMARTPLAYER_REDIS_MAXLEN", "42")

	l := NewLoader(path, "")
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, cfg.Tracking.Collector.AllowHosts)
	assert.Equal(t, int64(42), cfg.Tracking.Redis.MaxLen)
	assert.Contains(t, l.ConsumedEnvKeys, "SMARTPLAYER_LOG_LEVEL")
}

func TestInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("SMARTPLAYER_TRACKING_QUEUE_SIZE", "lots")
	cfg, err := NewLoader("", "").Load()
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.Tracking.QueueSize)
}

func TestUnknownFieldRejected(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "api:\n  listen: \":1\"\n")
	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownConfigField)
}

func TestUnsupportedExtension(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.json", "{}")
	_, err := NewLoader(path, "").Load()
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestEmptyFileUsesDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "")
	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults().API, cfg.API)
}

func TestMultipleDocumentsRejected(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "logLevel: info\n---\nlogLevel: debug\n")
	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		want   string
	}{
		{"bad log level", func(c *AppConfig) { c.LogLevel = "loud" }, "LogLevel"},
		{"bad collector url", func(c *AppConfig) { c.Tracking.Collector.URL = "not a url" }, "URL"},
		{"bad exporter", func(c *AppConfig) { c.Telemetry.Exporter = "zipkin" }, "Exporter"},
		{"sampling above one", func(c *AppConfig) { c.Telemetry.SamplingRate = 1.5 }, "SamplingRate"},
		{"listen without port", func(c *AppConfig) { c.API.ListenAddr = "localhost" }, "api.listenAddr"},
		{"metrics collides with api", func(c *AppConfig) { c.Metrics.ListenAddr = c.API.ListenAddr }, "must differ"},
		{"zero window", func(c *AppConfig) { c.API.RateLimit.Window = 0 }, "rateLimit.window"},
		{"unknown default attribute", func(c *AppConfig) { c.Player.Defaults = map[string]string{"colour": "red"} }, `"colour"`},
		{"telemetry without endpoint", func(c *AppConfig) {
			c.Telemetry.Enabled = true
			c.Telemetry.Endpoint = ""
		}, "telemetry.endpoint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.NoError(t, Validate(Defaults()))
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "smartplayer.yaml")
	require.NoError(t, WriteDefault(path, false))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults().Tracking.Collector, cfg.Tracking.Collector)

	err = WriteDefault(path, false)
	assert.ErrorIs(t, err, ErrExists)
	assert.NoError(t, WriteDefault(path, true))
}

func TestHolderReload(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "logLevel: info\n")
	loader := NewLoader(path, "")
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewHolder(initial, loader)
	ch := make(chan AppConfig, 1)
	h.RegisterListener(ch)

	writeFile(t, filepath.Dir(path), "config.yaml", "logLevel: debug\nplayer:\n  defaults:\n    loop: \"\"\n")
	require.NoError(t, h.Reload(context.Background()))
	assert.Equal(t, "debug", h.Get().LogLevel)

	select {
	case got := <-ch:
		assert.Equal(t, map[string]string{"loop": ""}, got.Player.Defaults)
	default:
		t.Fatal("listener not notified")
	}

	writeFile(t, filepath.Dir(path), "config.yaml", "logLevel: shouting\n")
	require.Error(t, h.Reload(context.Background()))
	assert.Equal(t, "debug", h.Get().LogLevel, "failed reload keeps current config")
}

func TestHolderWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "logLevel: info\n")
	loader := NewLoader(path, "")
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewHolder(initial, loader)
	ch := make(chan AppConfig, 1)
	h.RegisterListener(ch)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Watch(ctx) }()

	// Writes before the watch is armed are missed; retry until one lands.
	require.Eventually(t, func() bool {
		writeFile(t, dir, "config.yaml", "logLevel: error\n")
		select {
		case got := <-ch:
			return got.LogLevel == "error"
		case <-time.After(ReloadDebounce + 200*time.Millisecond):
			return false
		}
	}, 10*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
