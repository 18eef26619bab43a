// Package config loads routewire configuration from YAML with environment
// variable overrides.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/routewire/routewire/pkg/command"
	"github.com/routewire/routewire/pkg/engine"
	"github.com/routewire/routewire/pkg/telemetry"
)

// Config is the top-level routewire configuration.
type Config struct {
	Protocol  ProtocolConfig  `yaml:"protocol"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Feed      FeedConfig      `yaml:"feed"`
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
}

// ProtocolConfig bounds command resolution and execution.
type ProtocolConfig struct {
	SupportedVersion int `yaml:"supported_version" env:"ROUTEWIRE_SUPPORTED_VERSION"`
	MaxDepth         int `yaml:"max_depth" env:"ROUTEWIRE_MAX_DEPTH"`
	MaxFallbackChain int `yaml:"max_fallback_chain" env:"ROUTEWIRE_MAX_FALLBACK_CHAIN"`
	DefaultTimeoutMs int `yaml:"default_timeout_ms" env:"ROUTEWIRE_DEFAULT_TIMEOUT_MS"`
}

// TelemetryConfig controls the execution history buffer and optional sink.
type TelemetryConfig struct {
	Capacity int    `yaml:"capacity" env:"ROUTEWIRE_TELEMETRY_CAPACITY"`
	SinkURL  string `yaml:"sink_url" env:"ROUTEWIRE_TELEMETRY_SINK_URL"`
}

// FeedConfig controls the websocket command feed subscriber.
type FeedConfig struct {
	Enabled        bool   `yaml:"enabled" env:"ROUTEWIRE_FEED_ENABLED"`
	URL            string `yaml:"url" env:"ROUTEWIRE_FEED_URL"`
	ReconnectMinMs int    `yaml:"reconnect_min_ms" env:"ROUTEWIRE_FEED_RECONNECT_MIN_MS"`
	ReconnectMaxMs int    `yaml:"reconnect_max_ms" env:"ROUTEWIRE_FEED_RECONNECT_MAX_MS"`
}

// StoreConfig controls local state persistence.
type StoreConfig struct {
	SnapshotPath string `yaml:"snapshot_path" env:"ROUTEWIRE_STORE_SNAPSHOT"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level  string `yaml:"level" env:"ROUTEWIRE_LOG_LEVEL"`
	Format string `yaml:"format" env:"ROUTEWIRE_LOG_FORMAT"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Protocol: ProtocolConfig{
			SupportedVersion: engine.SupportedVersion,
			MaxDepth:         command.DefaultMaxDepth,
			MaxFallbackChain: command.DefaultMaxFallbackChain,
			DefaultTimeoutMs: 30000,
		},
		Telemetry: TelemetryConfig{
			Capacity: telemetry.DefaultCapacity,
		},
		Feed: FeedConfig{
			ReconnectMinMs: 500,
			ReconnectMaxMs: 30000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the YAML file at path (when it exists) over the defaults, then
// applies environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the runtime cannot honor.
func (c *Config) Validate() error {
	if c.Protocol.SupportedVersion < 100 || c.Protocol.SupportedVersion > 999 {
		return fmt.Errorf("protocol.supported_version must be a three digit version, got %d", c.Protocol.SupportedVersion)
	}
	if c.Protocol.MaxDepth < 1 {
		return fmt.Errorf("protocol.max_depth must be positive, got %d", c.Protocol.MaxDepth)
	}
	if c.Protocol.MaxFallbackChain < 1 {
		return fmt.Errorf("protocol.max_fallback_chain must be positive, got %d", c.Protocol.MaxFallbackChain)
	}
	if c.Protocol.DefaultTimeoutMs < 0 {
		return fmt.Errorf("protocol.default_timeout_ms must not be negative, got %d", c.Protocol.DefaultTimeoutMs)
	}
	if c.Telemetry.Capacity < 1 {
		return fmt.Errorf("telemetry.capacity must be positive, got %d", c.Telemetry.Capacity)
	}
	if c.Feed.Enabled && c.Feed.URL == "" {
		return fmt.Errorf("feed.url is required when the feed is enabled")
	}
	if c.Feed.ReconnectMinMs < 1 || c.Feed.ReconnectMaxMs < c.Feed.ReconnectMinMs {
		return fmt.Errorf("feed reconnect window %d..%d is invalid", c.Feed.ReconnectMinMs, c.Feed.ReconnectMaxMs)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}
