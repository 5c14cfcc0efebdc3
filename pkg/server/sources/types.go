// Package sources defines the price source contract and the registry used to
// build the oracle's fallback chain from configuration.
package sources

import (
	"context"
	"time"
)

// SourceType represents the family a price source belongs to.
type SourceType string

const (
	// SourceTypeEVM reads prices from on-chain liquidity pools.
	SourceTypeEVM SourceType = "evm"
	// SourceTypeDexAgg reads prices from external DEX aggregator HTTP APIs.
	SourceTypeDexAgg SourceType = "dexagg"
)

// Source is one link of the fallback chain. Fetch returns a raw DC/USD price
// or an error; it never returns a zero price in place of an error and it
// never retries on its own.
type Source interface {
	// Name returns the unique name of this source. It doubles as the
	// source tag reported to callers (e.g. "pool", "dexscreener").
	Name() string

	// Type returns the type of this source
	Type() SourceType

	// Fetch performs one read of the current price.
	Fetch(ctx context.Context) (float64, error)
}

// HealthReporter is implemented by sources that track their own health.
type HealthReporter interface {
	IsHealthy() bool
	LastUpdate() time.Time
	LastError() error
}

// SourceFactory is a function that creates a new Source instance
type SourceFactory func(config map[string]interface{}) (Source, error)
