package config

import (
	"time"

	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/server/oracle"
)

// Config is the root configuration structure
type Config struct {
	Oracle  OracleConfig   `yaml:"oracle"`
	Server  ServerConfig   `yaml:"server"`
	History HistoryConfig  `yaml:"history"`
	Sources []SourceConfig `yaml:"sources"`
	Metrics MetricsConfig  `yaml:"metrics"`
	Logging LoggingConfig  `yaml:"logging"`
}

// OracleConfig holds the price oracle tunables.
type OracleConfig struct {
	Symbol           string   `yaml:"symbol"`
	CacheTTL         Duration `yaml:"cache_ttl"`
	StaleBound       Duration `yaml:"stale_bound"`       // last-resort cache limit, defaults to 5x cache_ttl
	MaxDeviationPct  float64  `yaml:"max_deviation_pct"` // percent, 50 = 50%
	ExpireContinuity bool     `yaml:"expire_continuity_reference"`
	TWAPWindow       Duration `yaml:"twap_window"`
	MinPrice         float64  `yaml:"min_price"` // exclusive
	MaxPrice         float64  `yaml:"max_price"` // exclusive
	SourceTimeout    Duration `yaml:"source_timeout"`
	FetchTimeout     Duration `yaml:"fetch_timeout"`
	RefreshInterval  Duration `yaml:"refresh_interval"` // 0 disables the background refresher
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	HTTP      HTTPConfig  `yaml:"http"`
	WebSocket WSConfig    `yaml:"websocket"`
	Admin     AdminConfig `yaml:"admin"`
}

// HTTPConfig configures the HTTP server
type HTTPConfig struct {
	Addr string    `yaml:"addr"`
	TLS  TLSConfig `yaml:"tls"`
}

// WSConfig enables the /ws price stream
type WSConfig struct {
	Enabled bool `yaml:"enabled"`
}

// AdminConfig guards the manual price override endpoint
type AdminConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// TLSConfig holds TLS certificate configuration
type TLSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cert    string `yaml:"cert"`
	Key     string `yaml:"key"`
}

// HistoryConfig configures the SQLite price history
type HistoryConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"`
	BufferSize int    `yaml:"buffer_size"`
}

// SourceConfig configures a price source. Sources are tried by ascending
// priority, then in file order.
type SourceConfig struct {
	Type     string                 `yaml:"type"`
	Name     string                 `yaml:"name"`
	Enabled  bool                   `yaml:"enabled"`
	Priority int                    `yaml:"priority"`
	Config   map[string]interface{} `yaml:"config"`
}

// MetricsConfig configures Prometheus metrics
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Duration is a wrapper around time.Duration for YAML parsing
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	td, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(td)
	return nil
}

// ToDuration converts Duration to time.Duration
func (d Duration) ToDuration() time.Duration {
	return time.Duration(d)
}

// ToOracle converts the YAML view into the oracle's config.
func (c OracleConfig) ToOracle() oracle.Config {
	return oracle.Config{
		Symbol:                    c.Symbol,
		CacheTTL:                  c.CacheTTL.ToDuration(),
		StaleBound:                c.StaleBound.ToDuration(),
		MaxPriceDeviationPct:      c.MaxDeviationPct,
		ExpireContinuityReference: c.ExpireContinuity,
		TWAPWindow:                c.TWAPWindow.ToDuration(),
		AbsoluteMinPrice:          c.MinPrice,
		AbsoluteMaxPrice:          c.MaxPrice,
		SourceTimeout:             c.SourceTimeout.ToDuration(),
		FetchTimeout:              c.FetchTimeout.ToDuration(),
	}
}
