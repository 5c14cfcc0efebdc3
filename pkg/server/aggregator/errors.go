// Package aggregator provides time-weighted smoothing of accepted prices.
package aggregator

import "errors"

var (
	// ErrInvalidWindow indicates a non-positive TWAP window.
	ErrInvalidWindow = errors.New("TWAP window must be positive")
)
