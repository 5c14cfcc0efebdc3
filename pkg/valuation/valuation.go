// Package valuation turns DC amounts into USD figures using the oracle price.
// It refuses to estimate when no trustworthy price is available rather than
// falling back to zero.
package valuation

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrPriceUnavailable = errors.New("DC price temporarily unavailable")
	ErrInvalidAmount    = errors.New("amount must not be negative")
)

// PriceProvider is the part of the oracle valuation needs.
type PriceProvider interface {
	GetDCPriceUSD(ctx context.Context) (float64, error)
	GetTWAPPrice() (float64, bool)
}

// Estimator prices DC amounts.
type Estimator struct {
	prices PriceProvider
}

// NewEstimator creates an estimator backed by prices.
func NewEstimator(prices PriceProvider) *Estimator {
	return &Estimator{prices: prices}
}

func (e *Estimator) spot(ctx context.Context) (decimal.Decimal, error) {
	p, err := e.prices.GetDCPriceUSD(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", ErrPriceUnavailable, err)
	}
	if p <= 0 {
		return decimal.Zero, ErrPriceUnavailable
	}
	return decimal.NewFromFloat(p), nil
}

// EstimateUSDValue returns the USD value of amount DC.
func (e *Estimator) EstimateUSDValue(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	price, err := e.spot(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(price), nil
}

// EstimateTokensForUSD returns how much DC usd buys at the current price.
func (e *Estimator) EstimateTokensForUSD(ctx context.Context, usd decimal.Decimal) (decimal.Decimal, error) {
	if usd.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	price, err := e.spot(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return usd.DivRound(price, 18), nil
}

// MarketCapUSD values supply at the TWAP, or at the spot price when the
// TWAP window is empty.
func (e *Estimator) MarketCapUSD(ctx context.Context, supply decimal.Decimal) (decimal.Decimal, error) {
	if supply.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}

	if twap, ok := e.prices.GetTWAPPrice(); ok && twap > 0 {
		return supply.Mul(decimal.NewFromFloat(twap)), nil
	}

	price, err := e.spot(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return supply.Mul(price), nil
}
