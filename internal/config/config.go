// Package config loads and validates application configuration from YAML files
// and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Config is the root application configuration.
type Config struct {
	Fixtures      FixturesConfig      `yaml:"fixtures"`
	Clock         ClockConfig         `yaml:"clock"`
	Journey       JourneyConfig       `yaml:"journey"`
	Timeline      TimelineConfig      `yaml:"timeline"`
	Cache         CacheConfig         `yaml:"cache"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// FixturesConfig describes where to find patient fixture files.
type FixturesConfig struct {
	Directories []string `yaml:"directories"`
}

// ClockConfig describes the reference clock used when a fixture carries no
// scenario time of its own.
type ClockConfig struct {
	Timezone       string `yaml:"timezone"`
	DefaultStateID string `yaml:"default_state_id"`
}

// JourneyConfig describes milestone journey settings.
type JourneyConfig struct {
	RecencyWindow time.Duration `yaml:"recency_window"`
}

// TimelineConfig describes timeline ordering and the compact card limit.
type TimelineConfig struct {
	SortMode             string `yaml:"sort_mode"`
	FallbackToEncounters bool   `yaml:"fallback_to_encounters"`
	CompactLimit         int    `yaml:"compact_limit"`
}

// CacheConfig describes cache settings.
type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

// ObservabilityConfig describes logging, tracing, and metrics settings.
type ObservabilityConfig struct {
	LogLevel string        `yaml:"log_level"`
	Tracing  TracingConfig `yaml:"tracing"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// TracingConfig describes distributed tracing settings.
type TracingConfig struct {
	Enabled           bool    `yaml:"enabled"`
	Exporter          string  `yaml:"exporter"`
	Endpoint          string  `yaml:"endpoint"`
	SamplingRate      float64 `yaml:"sampling_rate"`
	ForceSampleErrors bool    `yaml:"force_sample_errors"`
}

// MetricsConfig describes Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Fixtures: FixturesConfig{
			Directories: []string{"fixtures"},
		},
		Clock: ClockConfig{
			Timezone: "UTC",
		},
		Journey: JourneyConfig{
			RecencyWindow: 24 * time.Hour,
		},
		Timeline: TimelineConfig{
			SortMode:             "blocker-first",
			FallbackToEncounters: true,
			CompactLimit:         5,
		},
		Cache: CacheConfig{
			TTL:        5 * time.Minute,
			MaxEntries: 1000,
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
			Tracing: TracingConfig{
				Exporter:     "stdout",
				SamplingRate: 1.0,
			},
			Metrics: MetricsConfig{
				Enabled: true,
			},
		},
	}
}

// Load reads a YAML config file, applies environment variable overrides,
// and validates the result. An empty path skips the file and starts from
// Defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required fields are present and valid.
func (c *Config) Validate() error {
	var errs []string

	if len(c.Fixtures.Directories) == 0 {
		errs = append(errs, "fixtures.directories must not be empty")
	}
	if _, err := time.LoadLocation(c.Clock.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("clock.timezone %q is not a known location", c.Clock.Timezone))
	}
	switch c.Timeline.SortMode {
	case "", "blocker-first", "chronological":
	default:
		errs = append(errs, fmt.Sprintf("timeline.sort_mode %q must be blocker-first or chronological", c.Timeline.SortMode))
	}
	if c.Timeline.CompactLimit < 0 {
		errs = append(errs, "timeline.compact_limit must not be negative")
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, "cache.ttl must not be negative")
	}
	if c.Cache.MaxEntries < 0 {
		errs = append(errs, "cache.max_entries must not be negative")
	}
	switch strings.ToLower(c.Observability.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("observability.log_level %q must be debug, info, warn or error", c.Observability.LogLevel))
	}
	if t := c.Observability.Tracing; t.Enabled {
		if t.Exporter != "stdout" && t.Exporter != "otlp" {
			errs = append(errs, fmt.Sprintf("observability.tracing.exporter %q must be stdout or otlp", t.Exporter))
		}
		if t.SamplingRate < 0 || t.SamplingRate > 1 {
			errs = append(errs, "observability.tracing.sampling_rate must be between 0 and 1")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Location resolves Clock.Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Clock.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// applyEnvOverrides reads WORKLIST_* environment variables and overrides
// config values. Only the most commonly overridden fields are supported.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WORKLIST_FIXTURES_DIRECTORIES"); v != "" {
		var dirs []string
		for _, d := range strings.Split(v, ",") {
			if d = strings.TrimSpace(d); d != "" {
				dirs = append(dirs, d)
			}
		}
		cfg.Fixtures.Directories = dirs
	}
	if v := os.Getenv("WORKLIST_CLOCK_TIMEZONE"); v != "" {
		cfg.Clock.Timezone = v
	}
	if v := os.Getenv("WORKLIST_CLOCK_DEFAULT_STATE_ID"); v != "" {
		cfg.Clock.DefaultStateID = v
	}
	if v := os.Getenv("WORKLIST_JOURNEY_RECENCY_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Journey.RecencyWindow = d
		}
	}
	if v := os.Getenv("WORKLIST_TIMELINE_SORT_MODE"); v != "" {
		cfg.Timeline.SortMode = v
	}
	if v := os.Getenv("WORKLIST_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}
	if v := os.Getenv("WORKLIST_OBSERVABILITY_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("WORKLIST_TRACING_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Observability.Tracing.Enabled = b
		}
	}
}
