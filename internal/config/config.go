// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads, validates and hot-reloads the daemon configuration.
//
// Precedence is ENV > YAML file > defaults. Unknown YAML keys are rejected.
package config

import "time"

// EnvPrefix is prepended to every environment key the loader consumes.
const EnvPrefix = "SMARTPLAYER_"

// AppConfig is the effective daemon configuration.
type AppConfig struct {
	Version string `yaml:"-"`

	LogLevel   string `yaml:"logLevel" validate:"omitempty,oneof=trace debug info warn error"`
	LogService string `yaml:"logService"`

	API       APIConfig       `yaml:"api"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Player    PlayerConfig    `yaml:"player"`
}

// APIConfig configures the control API listener.
type APIConfig struct {
	ListenAddr string          `yaml:"listenAddr" validate:"required"`
	RateLimit  RateLimitConfig `yaml:"rateLimit"`
	// AllowedOrigins limits browser origins for CORS and websocket upgrades. Empty allows all.
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
	// IngestPerSecond bounds notifications accepted per player. Zero disables the limit.
	IngestPerSecond float64 `yaml:"ingestPerSecond" validate:"gte=0"`
	IngestBurst     int     `yaml:"ingestBurst" validate:"gte=0"`
	// TrustProxy takes client addresses from X-Forwarded-For for rate limiting.
	TrustProxy bool `yaml:"trustProxy"`
}

// RateLimitConfig bounds requests per client address.
type RateLimitConfig struct {
	Requests int           `yaml:"requests" validate:"gte=0"`
	Window   time.Duration `yaml:"window" validate:"gte=0"`
}

// MetricsConfig configures the Prometheus listener.
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listenAddr"`
}

// TrackingConfig configures event fan-out to sinks.
type TrackingConfig struct {
	Enabled   bool            `yaml:"enabled"`
	QueueSize int             `yaml:"queueSize" validate:"gte=1"`
	Collector CollectorConfig `yaml:"collector"`
	Redis     RedisConfig     `yaml:"redis"`
	Journal   JournalConfig   `yaml:"journal"`
}

// CollectorConfig configures the HTTP collector sink. An empty URL disables it.
type CollectorConfig struct {
	URL              string        `yaml:"url" validate:"omitempty,url"`
	AllowHosts       []string      `yaml:"allowHosts,omitempty"`
	Timeout          time.Duration `yaml:"timeout" validate:"gte=0"`
	RatePerSecond    float64       `yaml:"ratePerSecond" validate:"gte=0"`
	Burst            int           `yaml:"burst" validate:"gte=0"`
	FailureThreshold uint32        `yaml:"failureThreshold"`
	OpenTimeout      time.Duration `yaml:"openTimeout" validate:"gte=0"`
}

// RedisConfig configures the Redis stream sink. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
	Stream   string `yaml:"stream"`
	MaxLen   int64  `yaml:"maxLen" validate:"gte=0"`
}

// JournalConfig configures the sqlite journal sink. An empty Path disables it.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter" validate:"omitempty,oneof=grpc http"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate" validate:"gte=0,lte=1"`
	Environment  string  `yaml:"environment"`
}

// PlayerConfig holds defaults merged under every created player's attributes.
type PlayerConfig struct {
	Defaults map[string]string `yaml:"defaults"`
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		LogLevel:   "info",
		LogService: "smartplayer",
		API: APIConfig{
			ListenAddr: ":8080",
			RateLimit: RateLimitConfig{
				Requests: 120,
				Window:   time.Minute,
			},
			IngestPerSecond: 20,
			IngestBurst:     40,
		},
		Metrics: MetricsConfig{
			Enabled:    true,
			ListenAddr: ":9090",
		},
		Tracking: TrackingConfig{
			Enabled:   true,
			QueueSize: 256,
			Collector: CollectorConfig{
				Timeout:          5 * time.Second,
				RatePerSecond:    10,
				Burst:            20,
				FailureThreshold: 5,
				OpenTimeout:      30 * time.Second,
			},
			Redis: RedisConfig{
				Stream: "smartplayer:events",
				MaxLen: 10000,
			},
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "production",
		},
		Player: PlayerConfig{
			Defaults: map[string]string{},
		},
	}
}
