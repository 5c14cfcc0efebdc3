package oracle

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// deviationPlaces is the precision the deviation ratio is compared at.
// Candidates arrive as float64 products (prev*1.1 is 0.33000000000000007
// for prev 0.3), so a move of exactly the limit must not fail on the
// trailing binary noise.
const deviationPlaces = 9

var hundred = decimal.NewFromInt(100)

// Check runs the plausibility rules against candidate and returns the first
// one it breaks, or nil. previous is the last accepted price; nil (or a
// non-positive value) skips the continuity rule.
func Check(candidate float64, previous *float64, cfg Config) error {
	if math.IsNaN(candidate) || math.IsInf(candidate, 0) {
		return ErrNotFinite
	}

	if candidate <= cfg.AbsoluteMinPrice || candidate >= cfg.AbsoluteMaxPrice {
		return fmt.Errorf("%w: %g not in (%g, %g)", ErrOutOfBounds, candidate, cfg.AbsoluteMinPrice, cfg.AbsoluteMaxPrice)
	}

	if previous != nil && *previous > 0 {
		prev := decimal.NewFromFloat(*previous)
		deviation := decimal.NewFromFloat(candidate).Sub(prev).Abs().Div(prev).Round(deviationPlaces)
		limit := decimal.NewFromFloat(cfg.MaxPriceDeviationPct).Div(hundred)
		if deviation.GreaterThan(limit) {
			return fmt.Errorf("%w: %s%% against %g", ErrDeviationTooLarge, deviation.Mul(hundred).StringFixed(2), *previous)
		}
	}

	return nil
}

// Validate reports whether candidate passes every rule.
func Validate(candidate float64, previous *float64, cfg Config) bool {
	return Check(candidate, previous, cfg) == nil
}

// rejectionReason maps a Check error to a metric label.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrNotFinite):
		return "not_finite"
	case errors.Is(err, ErrOutOfBounds):
		return "out_of_bounds"
	case errors.Is(err, ErrDeviationTooLarge):
		return "deviation"
	default:
		return "unknown"
	}
}
