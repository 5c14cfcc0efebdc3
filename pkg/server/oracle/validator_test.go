package oracle

import (
	"fmt"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestCheck(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		name      string
		candidate float64
		previous  *float64
		wantErr   error
	}{
		{"plausible without history", 0.00001, nil, nil},
		{"NaN", math.NaN(), nil, ErrNotFinite},
		{"+Inf", math.Inf(1), nil, ErrNotFinite},
		{"-Inf", math.Inf(-1), nil, ErrNotFinite},
		{"zero", 0, nil, ErrOutOfBounds},
		{"negative", -0.5, nil, ErrOutOfBounds},
		{"at max", 1000, nil, ErrOutOfBounds},
		{"above max", 5000, ptr(4000), ErrOutOfBounds},
		{"small move", 0.000011, ptr(0.00001), nil},
		{"doubling", 0.00002, ptr(0.00001), ErrDeviationTooLarge},
		{"drop just inside the limit", 0.0000051, ptr(0.00001), nil},
		{"crash", 0.000001, ptr(0.00001), ErrDeviationTooLarge},
		{"zero previous skips continuity", 0.5, ptr(0), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.candidate, tt.previous, cfg)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				assert.True(t, Validate(tt.candidate, tt.previous, cfg))
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrValidationRejected)
			assert.False(t, Validate(tt.candidate, tt.previous, cfg))
		})
	}
}

func TestCheck_DeviationBoundary(t *testing.T) {
	for _, pct := range []float64{10, 50} {
		cfg := testConfig()
		cfg.MaxPriceDeviationPct = pct
		limit := pct / 100

		for _, prev := range []float64{0.3, 3e-05, 0.7, 7e-05, 3} {
			prev := prev
			t.Run(fmt.Sprintf("%g%%/%g", pct, prev), func(t *testing.T) {
				assert.NoError(t, Check(prev*(1+limit), &prev, cfg), "up by exactly the limit")
				assert.NoError(t, Check(prev*(1-limit), &prev, cfg), "down by exactly the limit")

				assert.ErrorIs(t, Check(prev*(1+limit+0.0001), &prev, cfg), ErrDeviationTooLarge)
				assert.ErrorIs(t, Check(prev*(1-limit-0.0001), &prev, cfg), ErrDeviationTooLarge)
			})
		}
	}
}

func TestCheck_DeviationMessage(t *testing.T) {
	err := Check(0.0003, ptr(0.0001), testConfig())
	require.ErrorIs(t, err, ErrDeviationTooLarge)
	assert.Contains(t, err.Error(), "200.00% against 0.0001")
}

func TestCheck_MinBoundIsExclusive(t *testing.T) {
	cfg := testConfig()
	cfg.AbsoluteMinPrice = 0.000001

	assert.ErrorIs(t, Check(0.000001, nil, cfg), ErrOutOfBounds)
	assert.NoError(t, Check(0.0000011, nil, cfg))
}

func TestRejectionReason(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, "not_finite", rejectionReason(Check(math.NaN(), nil, cfg)))
	assert.Equal(t, "out_of_bounds", rejectionReason(Check(-1, nil, cfg)))
	assert.Equal(t, "deviation", rejectionReason(Check(3, ptr(1), cfg)))
	assert.Equal(t, "unknown", rejectionReason(errBoom))
}

func TestValidator_Properties(t *testing.T) {
	cfg := testConfig()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("in-bounds finite price accepted without history", prop.ForAll(
		func(p float64) bool {
			return Validate(p, nil, cfg)
		},
		gen.Float64Range(1e-12, 999.999),
	))

	properties.Property("non-positive or too large prices always rejected", prop.ForAll(
		func(p float64, prev float64) bool {
			return !Validate(p, &prev, cfg) && !Validate(p, nil, cfg)
		},
		gen.OneGenOf(
			gen.Float64Range(-1e6, 0),
			gen.Float64Range(1000, 1e9),
		),
		gen.Float64Range(1e-8, 999),
	))

	properties.Property("non-finite prices always rejected", prop.ForAll(
		func(i int, prev float64) bool {
			p := []float64{math.NaN(), math.Inf(1), math.Inf(-1)}[i]
			return !Validate(p, &prev, cfg)
		},
		gen.IntRange(0, 2),
		gen.Float64Range(1e-8, 999),
	))

	properties.Property("moves up to and including the deviation limit accepted", prop.ForAll(
		func(prev float64, frac float64) bool {
			next := prev * (1 + frac)
			return Validate(next, &prev, cfg)
		},
		gen.Float64Range(1e-8, 1),
		gen.OneGenOf(
			gen.Float64Range(-0.5, 0.5),
			gen.OneConstOf(-0.5, 0.5),
		),
	))

	properties.Property("moves beyond the deviation limit rejected", prop.ForAll(
		func(prev float64, frac float64, up bool) bool {
			next := prev * (1 - frac)
			if up {
				next = prev * (1 + frac)
			}
			if next <= 0 {
				return true
			}
			return !Validate(next, &prev, cfg)
		},
		gen.Float64Range(1e-8, 1),
		gen.Float64Range(0.5001, 0.99),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
