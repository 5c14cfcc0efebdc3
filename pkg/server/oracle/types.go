package oracle

import (
	"fmt"
	"time"
)

// Source tags the oracle assigns itself. Live sources report their
// registered name ("pool", "dexscreener", "geckoterminal").
const (
	SourceTagCache  = "cache"
	SourceTagManual = "manual"
)

// NoEntryAge is returned by age accessors while nothing has been accepted.
const NoEntryAge int64 = -1

// Config holds the oracle tunables. It is copied into the oracle at
// construction and never changes afterwards.
type Config struct {
	// Symbol names the priced asset in metadata.
	Symbol string

	// CacheTTL is how long an accepted price answers requests without
	// touching any source.
	CacheTTL time.Duration

	// StaleBound is the extended limit up to which a stale entry may still
	// be served when every source fails.
	StaleBound time.Duration

	// MaxPriceDeviationPct is the largest accepted move against the last
	// accepted price, in percent (50 means 50%).
	MaxPriceDeviationPct float64

	// ExpireContinuityReference drops the deviation rule once the cached
	// price is older than StaleBound, leaving only the absolute bounds.
	// Off by default: every reading is compared with the last accepted
	// price, however old.
	ExpireContinuityReference bool

	TWAPWindow time.Duration

	// Prices must satisfy AbsoluteMinPrice < p < AbsoluteMaxPrice.
	AbsoluteMinPrice float64
	AbsoluteMaxPrice float64

	// SourceTimeout bounds a single source call, FetchTimeout a whole
	// traversal of the chain.
	SourceTimeout time.Duration
	FetchTimeout  time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Symbol:               "DC",
		CacheTTL:             60 * time.Second,
		StaleBound:           5 * time.Minute,
		MaxPriceDeviationPct: 50,
		TWAPWindow:           2 * time.Minute,
		AbsoluteMinPrice:     0,
		AbsoluteMaxPrice:     1000,
		SourceTimeout:        10 * time.Second,
		FetchTimeout:         30 * time.Second,
	}
}

// withDefaults fills zero durations. StaleBound falls back to five TTLs.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Symbol == "" {
		c.Symbol = d.Symbol
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = d.CacheTTL
	}
	if c.StaleBound == 0 {
		c.StaleBound = 5 * c.CacheTTL
	}
	if c.TWAPWindow == 0 {
		c.TWAPWindow = d.TWAPWindow
	}
	if c.SourceTimeout == 0 {
		c.SourceTimeout = d.SourceTimeout
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = d.FetchTimeout
	}
	return c
}

// Validate checks the config for internal consistency.
func (c Config) Validate() error {
	switch {
	case c.CacheTTL <= 0:
		return fmt.Errorf("%w: cache ttl must be positive", ErrInvalidConfig)
	case c.StaleBound < c.CacheTTL:
		return fmt.Errorf("%w: stale bound %s is below cache ttl %s", ErrInvalidConfig, c.StaleBound, c.CacheTTL)
	case c.MaxPriceDeviationPct <= 0:
		return fmt.Errorf("%w: max deviation must be positive", ErrInvalidConfig)
	case c.TWAPWindow <= 0:
		return fmt.Errorf("%w: twap window must be positive", ErrInvalidConfig)
	case c.AbsoluteMinPrice < 0:
		return fmt.Errorf("%w: min price must not be negative", ErrInvalidConfig)
	case c.AbsoluteMaxPrice <= c.AbsoluteMinPrice:
		return fmt.Errorf("%w: max price must exceed min price", ErrInvalidConfig)
	case c.SourceTimeout <= 0 || c.FetchTimeout <= 0:
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	return nil
}

// PriceObservation is one accepted price.
type PriceObservation struct {
	Price       float64 `json:"price"`
	TimestampMs int64   `json:"timestamp_ms"`
	Source      string  `json:"source"`
}

// Metadata describes where a returned price came from.
type Metadata struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	TimestampMs int64   `json:"timestamp_ms"`
	Source      string  `json:"source"`
}

// SourceStatus is the health of one chain link as last seen by the source.
type SourceStatus struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Healthy      bool   `json:"healthy"`
	LastUpdateMs int64  `json:"last_update_ms,omitempty"`
	LastError    string `json:"last_error,omitempty"`
}

// Recorder receives every accepted observation. AddPrice must not block.
type Recorder interface {
	AddPrice(price float64, source string)
}

type nopRecorder struct{}

func (nopRecorder) AddPrice(float64, string) {}
