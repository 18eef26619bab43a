package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Protocol.SupportedVersion != 200 {
		t.Fatalf("unexpected default supported version: %d", cfg.Protocol.SupportedVersion)
	}
	if cfg.Protocol.MaxDepth != 32 {
		t.Fatalf("unexpected default max depth: %d", cfg.Protocol.MaxDepth)
	}
	if cfg.Protocol.MaxFallbackChain != 10 {
		t.Fatalf("unexpected default fallback chain: %d", cfg.Protocol.MaxFallbackChain)
	}
	if cfg.Telemetry.Capacity != 100 {
		t.Fatalf("unexpected default telemetry capacity: %d", cfg.Telemetry.Capacity)
	}
	if cfg.Feed.Enabled {
		t.Fatal("feed should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Protocol.SupportedVersion != 200 {
		t.Fatalf("expected defaults, got version %d", cfg.Protocol.SupportedVersion)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routewire.yaml")
	body := `
protocol:
  supported_version: 310
  default_timeout_ms: 5000
telemetry:
  capacity: 25
  sink_url: http://collector.local/events
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Protocol.SupportedVersion != 310 {
		t.Fatalf("yaml override not applied: %d", cfg.Protocol.SupportedVersion)
	}
	if cfg.Telemetry.Capacity != 25 || cfg.Telemetry.SinkURL != "http://collector.local/events" {
		t.Fatalf("unexpected telemetry config: %+v", cfg.Telemetry)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.Log.Level)
	}
	if cfg.Protocol.MaxDepth != 32 {
		t.Fatalf("untouched fields should keep defaults, got max depth %d", cfg.Protocol.MaxDepth)
	}
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routewire.yaml")
	if err := os.WriteFile(path, []byte("protocol:\n  supported_version: 310\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ROUTEWIRE_SUPPORTED_VERSION", "420")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Protocol.SupportedVersion != 420 {
		t.Fatalf("env override not applied: %d", cfg.Protocol.SupportedVersion)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "version out of range",
			mutate: func(c *Config) { c.Protocol.SupportedVersion = 42 },
			want:   "supported_version",
		},
		{
			name:   "zero depth",
			mutate: func(c *Config) { c.Protocol.MaxDepth = 0 },
			want:   "max_depth",
		},
		{
			name:   "zero telemetry capacity",
			mutate: func(c *Config) { c.Telemetry.Capacity = 0 },
			want:   "telemetry.capacity",
		},
		{
			name:   "feed enabled without url",
			mutate: func(c *Config) { c.Feed.Enabled = true },
			want:   "feed.url",
		},
		{
			name:   "inverted reconnect window",
			mutate: func(c *Config) { c.Feed.ReconnectMaxMs = c.Feed.ReconnectMinMs - 1 },
			want:   "reconnect",
		},
		{
			name:   "unknown log level",
			mutate: func(c *Config) { c.Log.Level = "verbose" },
			want:   "log.level",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
