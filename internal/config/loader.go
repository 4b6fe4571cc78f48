// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/smartplayer/internal/log"
	"gopkg.in/yaml.v3"
)

// Loader assembles an AppConfig from defaults, an optional YAML file and the environment.
type Loader struct {
	configPath string
	version    string

	// ConsumedEnvKeys lists the SMARTPLAYER_ keys the last Load read.
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a loader for configPath. An empty path skips the file layer.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the config file path, possibly empty.
func (l *Loader) Path() string { return l.configPath }

// Load returns the validated configuration.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()
	cfg.Version = l.version

	if l.configPath != "" {
		if err := loadFile(l.configPath, &cfg); err != nil {
			return AppConfig{}, err
		}
	}

	l.ConsumedEnvKeys = make(map[string]struct{})
	l.mergeEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return AppConfig{}, err
	}

	logger := log.WithComponent("config")
	logger.Debug().
		Str("path", l.configPath).
		Int("env_keys", len(l.ConsumedEnvKeys)).
		Msg("configuration loaded")
	return cfg, nil
}

// loadFile decodes the YAML file over dst. Fields the file omits keep their current values.
func loadFile(path string, dst *AppConfig) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "not found in type") {
			return fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("parse config file: %w", err)
	}

	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file: multiple YAML documents are not supported")
	}
	return nil
}

func (l *Loader) env(key string) string {
	full := EnvPrefix + key
	if _, ok := os.LookupEnv(full); ok {
		l.ConsumedEnvKeys[full] = struct{}{}
	}
	return full
}

func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.LogLevel = ParseString(l.env("LOG_LEVEL"), cfg.LogLevel)
	cfg.LogService = ParseString(l.env("LOG_SERVICE"), cfg.LogService)

	cfg.API.ListenAddr = ParseString(l.env("API_LISTEN"), cfg.API.ListenAddr)
	cfg.API.RateLimit.Requests = ParseInt(l.env("API_RATE_LIMIT_REQUESTS"), cfg.API.RateLimit.Requests)
	cfg.API.RateLimit.Window = ParseDuration(l.env("API_RATE_LIMIT_WINDOW"), cfg.API.RateLimit.Window)
	cfg.API.AllowedOrigins = ParseList(l.env("API_ALLOWED_ORIGINS"), cfg.API.AllowedOrigins)
	cfg.API.IngestPerSecond = ParseFloat(l.env("API_INGEST_RATE"), cfg.API.IngestPerSecond)
	cfg.API.IngestBurst = ParseInt(l.env("API_INGEST_BURST"), cfg.API.IngestBurst)
	cfg.API.TrustProxy = ParseBool(l.env("API_TRUST_PROXY"), cfg.API.TrustProxy)

	cfg.Metrics.Enabled = ParseBool(l.env("METRICS_ENABLED"), cfg.Metrics.Enabled)
	cfg.Metrics.ListenAddr = ParseString(l.env("METRICS_LISTEN"), cfg.Metrics.ListenAddr)

	t := &cfg.Tracking
	t.Enabled = ParseBool(l.env("TRACKING_ENABLED"), t.Enabled)
	t.QueueSize = ParseInt(l.env("TRACKING_QUEUE_SIZE"), t.QueueSize)
	t.Collector.URL = ParseString(l.env("COLLECTOR_URL"), t.Collector.URL)
	t.Collector.AllowHosts = ParseList(l.env("COLLECTOR_ALLOW_HOSTS"), t.Collector.AllowHosts)
	t.Collector.Timeout = ParseDuration(l.env("COLLECTOR_TIMEOUT"), t.Collector.Timeout)
	t.Collector.RatePerSecond = ParseFloat(l.env("COLLECTOR_RATE"), t.Collector.RatePerSecond)
	t.Collector.Burst = ParseInt(l.env("COLLECTOR_BURST"), t.Collector.Burst)
	t.Collector.FailureThreshold = ParseUint32(l.env("COLLECTOR_FAILURE_THRESHOLD"), t.Collector.FailureThreshold)
	t.Collector.OpenTimeout = ParseDuration(l.env("COLLECTOR_OPEN_TIMEOUT"), t.Collector.OpenTimeout)
	t.Redis.Addr = ParseString(l.env("REDIS_ADDR"), t.Redis.Addr)
	t.Redis.Password = ParseString(l.env("REDIS_PASSWORD"), t.Redis.Password)
	t.Redis.DB = ParseInt(l.env("REDIS_DB"), t.Redis.DB)
	t.Redis.Stream = ParseString(l.env("REDIS_STREAM"), t.Redis.Stream)
	t.Redis.MaxLen = ParseInt64(l.env("REDIS_MAXLEN"), t.Redis.MaxLen)
	t.Journal.Path = ParseString(l.env("JOURNAL_PATH"), t.Journal.Path)

	tel := &cfg.Telemetry
	tel.Enabled = ParseBool(l.env("TELEMETRY_ENABLED"), tel.Enabled)
	tel.Exporter = ParseString(l.env("TELEMETRY_EXPORTER"), tel.Exporter)
	tel.Endpoint = ParseString(l.env("TELEMETRY_ENDPOINT"), tel.Endpoint)
	tel.SamplingRate = ParseFloat(l.env("TELEMETRY_SAMPLING_RATE"), tel.SamplingRate)
	tel.Environment = ParseString(l.env("TELEMETRY_ENVIRONMENT"), tel.Environment)
}
