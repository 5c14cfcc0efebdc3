package oracle

import (
	"errors"
	"fmt"
)

// Recoverable errors. They advance the fallback chain and are logged and
// counted, but GetPrice never returns them.
var (
	ErrSourceUnavailable  = errors.New("price source unavailable")
	ErrValidationRejected = errors.New("price rejected by validator")
)

// Validation reasons
var (
	ErrNotFinite         = fmt.Errorf("%w: price is not finite", ErrValidationRejected)
	ErrOutOfBounds       = fmt.Errorf("%w: price outside absolute bounds", ErrValidationRejected)
	ErrDeviationTooLarge = fmt.Errorf("%w: price deviates too far from last accepted price", ErrValidationRejected)
)

// Fatal errors returned once the whole chain, cache included, is exhausted.
var (
	ErrNoDataAvailable = errors.New("no price data available")
	ErrCacheTooOld     = errors.New("cached price data is too old")
)

// Configuration errors
var (
	ErrInvalidConfig = errors.New("invalid oracle config")
	ErrNoSources     = errors.New("at least one price source is required")
)
