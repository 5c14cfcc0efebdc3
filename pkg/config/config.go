package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables overriding oracle tunables.
const (
	EnvCacheTTL        = "DCORACLE_CACHE_TTL"
	EnvStaleBound      = "DCORACLE_STALE_BOUND"
	EnvMaxDeviationPct = "DCORACLE_MAX_DEVIATION_PCT"
	EnvTWAPWindow      = "DCORACLE_TWAP_WINDOW"
	EnvMinPrice        = "DCORACLE_MIN_PRICE"
	EnvMaxPrice        = "DCORACLE_MAX_PRICE"
)

// Load loads configuration from YAML file and environment variables.
func Load(path string) (*Config, error) {
	// Validate and sanitize path
	cleanPath := filepath.Clean(path)
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	// Read config file
	data, err := os.ReadFile(absPath) // #nosec G304 -- Path sanitized with filepath.Clean and filepath.Abs
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse builds a config from YAML bytes, expanding ${VAR} references and
// applying DCORACLE_* overrides and defaults.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables in YAML
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	return &cfg, nil
}

// applyDefaults sets default values for optional fields.
func applyDefaults(cfg *Config) {
	o := &cfg.Oracle
	if o.Symbol == "" {
		o.Symbol = "DC"
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = Duration(60 * time.Second)
	}
	if o.StaleBound == 0 {
		o.StaleBound = 5 * o.CacheTTL
	}
	if o.MaxDeviationPct == 0 {
		o.MaxDeviationPct = 50
	}
	if o.TWAPWindow == 0 {
		o.TWAPWindow = Duration(2 * time.Minute)
	}
	if o.MaxPrice == 0 {
		o.MaxPrice = 1000
	}
	if o.SourceTimeout == 0 {
		o.SourceTimeout = Duration(10 * time.Second)
	}
	if o.FetchTimeout == 0 {
		o.FetchTimeout = Duration(30 * time.Second)
	}

	// Server defaults
	if cfg.Server.HTTP.Addr == "" {
		cfg.Server.HTTP.Addr = ":8080"
	}

	if cfg.History.Enabled && cfg.History.Path == "" {
		cfg.History.Path = "data/price_history.db"
	}
	if cfg.History.BufferSize == 0 {
		cfg.History.BufferSize = 256
	}

	// Metrics defaults
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9091"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// applyEnvOverrides lets operators retune the oracle without editing the file.
func applyEnvOverrides(cfg *Config) error {
	durations := []struct {
		env string
		dst *Duration
	}{
		{EnvCacheTTL, &cfg.Oracle.CacheTTL},
		{EnvStaleBound, &cfg.Oracle.StaleBound},
		{EnvTWAPWindow, &cfg.Oracle.TWAPWindow},
	}
	for _, d := range durations {
		raw, ok := os.LookupEnv(d.env)
		if !ok || raw == "" {
			continue
		}
		v, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalidEnvOverride, d.env, raw, err)
		}
		*d.dst = Duration(v)
	}

	floats := []struct {
		env string
		dst *float64
	}{
		{EnvMaxDeviationPct, &cfg.Oracle.MaxDeviationPct},
		{EnvMinPrice, &cfg.Oracle.MinPrice},
		{EnvMaxPrice, &cfg.Oracle.MaxPrice},
	}
	for _, f := range floats {
		raw, ok := os.LookupEnv(f.env)
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalidEnvOverride, f.env, raw, err)
		}
		*f.dst = v
	}

	return nil
}

// EnabledSources returns enabled sources ordered by priority. Sources with
// equal priority keep their file order.
func (c *Config) EnabledSources() []SourceConfig {
	out := make([]SourceConfig, 0, len(c.Sources))
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// Key returns the registry key of the source.
func (sc *SourceConfig) Key() string {
	return sc.Type + "." + sc.Name
}
