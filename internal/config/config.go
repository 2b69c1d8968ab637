// Package config loads worker configuration from defaults, an optional
// YAML file, and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvConfigPath names the environment variable pointing at a config file.
const EnvConfigPath = "HYTALED_CONFIG"

// envPrefix is the prefix for environment overrides, e.g.
// HYTALED_PLAYER_INTERVAL=30s.
const envPrefix = "HYTALED_"

// Config holds all worker settings. Relative-time behavior is expressed as
// explicit durations; callers resolve them to absolute instants.
type Config struct {
	// Unit is the systemd unit of the game server.
	Unit string `koanf:"unit"`

	// ProcessMatch is the command-line substring used for the fallback
	// PID search when the unit's process tree yields nothing.
	ProcessMatch string `koanf:"process_match"`

	// DataDir holds the SQLite database and the instance lock file.
	DataDir string `koanf:"data_dir"`

	// Task intervals.
	PerfInterval    time.Duration `koanf:"perf_interval"`
	PlayerInterval  time.Duration `koanf:"player_interval"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`

	// Retention horizons.
	PerfRetention  time.Duration `koanf:"perf_retention"`
	EventRetention time.Duration `koanf:"event_retention"`

	// Lookback bounds the first scan when no checkpoint exists;
	// BackfillWindow bounds the one-time startup sync.
	Lookback       time.Duration `koanf:"lookback"`
	BackfillWindow time.Duration `koanf:"backfill_window"`

	// Journal query timeouts. Backfill reads a much wider window and
	// gets its own, larger bound.
	QueryTimeout    time.Duration `koanf:"query_timeout"`
	BackfillTimeout time.Duration `koanf:"backfill_timeout"`

	// MetricTailLines is how many recent lines the metric scan reads.
	MetricTailLines int `koanf:"metric_tail_lines"`
}

// Default returns a Config with documented defaults.
func Default() Config {
	return Config{
		Unit:            "hytale",
		ProcessMatch:    "HytaleServer.jar",
		DataDir:         "/var/lib/hytale-companion",
		PerfInterval:    5 * time.Second,
		PlayerInterval:  10 * time.Second,
		CleanupInterval: time.Hour,
		PerfRetention:   24 * time.Hour,
		EventRetention:  7 * 24 * time.Hour,
		Lookback:        3 * 24 * time.Hour,
		BackfillWindow:  7 * 24 * time.Hour,
		QueryTimeout:    30 * time.Second,
		BackfillTimeout: 60 * time.Second,
		MetricTailLines: 200,
	}
}

// Load builds a Config by layering defaults, an optional YAML file, and
// environment variables.
//
// Order of precedence (low -> high):
//  1. defaults (Default())
//  2. file (YAML) if path or HYTALED_CONFIG is set
//  3. env (prefix HYTALED_)
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// Map env keys like HYTALED_PLAYER_INTERVAL -> player_interval,
	// preserving underscores to match the koanf tags on the struct.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg = normalize(cfg)
	if cfg.Unit == "" {
		return Config{}, errors.New("unit must not be empty")
	}
	return cfg, nil
}

// normalize replaces out-of-range values with defaults.
func normalize(cfg Config) Config {
	defaults := Default()

	if cfg.PerfInterval <= 0 {
		cfg.PerfInterval = defaults.PerfInterval
	}
	if cfg.PlayerInterval <= 0 {
		cfg.PlayerInterval = defaults.PlayerInterval
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaults.CleanupInterval
	}
	if cfg.PerfRetention <= 0 {
		cfg.PerfRetention = defaults.PerfRetention
	}
	if cfg.EventRetention <= 0 {
		cfg.EventRetention = defaults.EventRetention
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = defaults.Lookback
	}
	if cfg.BackfillWindow <= 0 {
		cfg.BackfillWindow = defaults.BackfillWindow
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = defaults.QueryTimeout
	}
	if cfg.BackfillTimeout <= 0 {
		cfg.BackfillTimeout = defaults.BackfillTimeout
	}
	if cfg.MetricTailLines <= 0 {
		cfg.MetricTailLines = defaults.MetricTailLines
	}
	return cfg
}
