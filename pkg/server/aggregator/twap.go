package aggregator

import (
	"fmt"
	"sort"
	"time"
)

// PricePoint is one accepted price observation.
type PricePoint struct {
	Price       float64
	TimestampMs int64
	Source      string
}

// TWAP keeps accepted observations inside a rolling time window and computes
// their time-weighted average. Each price is weighted by how long it stood:
// until the next observation, or until now for the latest one.
//
// TWAP is not safe for concurrent use; the oracle serializes access under
// the same lock that guards its cache.
type TWAP struct {
	window time.Duration
	points []PricePoint // ordered by TimestampMs, timestamps unique
}

// NewTWAP creates an accumulator with the given window.
func NewTWAP(window time.Duration) (*TWAP, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWindow, window)
	}
	return &TWAP{
		window: window,
		points: make([]PricePoint, 0, 64),
	}, nil
}

// Add records an observation. A second observation with the same timestamp
// replaces the first. Points older than the window are evicted afterwards.
func (a *TWAP) Add(p PricePoint, now time.Time) {
	i := sort.Search(len(a.points), func(i int) bool {
		return a.points[i].TimestampMs >= p.TimestampMs
	})

	switch {
	case i < len(a.points) && a.points[i].TimestampMs == p.TimestampMs:
		a.points[i] = p
	case i == len(a.points):
		a.points = append(a.points, p)
	default:
		a.points = append(a.points, PricePoint{})
		copy(a.points[i+1:], a.points[i:])
		a.points[i] = p
	}

	a.evict(now)
}

// Value returns the time-weighted average at now. With a single point it
// returns that point's price; with none it reports false and the caller
// decides on a substitute.
func (a *TWAP) Value(now time.Time) (float64, bool) {
	a.evict(now)

	switch len(a.points) {
	case 0:
		return 0, false
	case 1:
		return a.points[0].Price, true
	}

	nowMs := now.UnixMilli()
	var weighted, total float64
	for i, p := range a.points {
		end := nowMs
		if i+1 < len(a.points) {
			end = a.points[i+1].TimestampMs
		}
		d := end - p.TimestampMs
		if d < 0 {
			d = 0
		}
		weighted += p.Price * float64(d)
		total += float64(d)
	}

	if total == 0 {
		return a.points[len(a.points)-1].Price, true
	}
	return weighted / total, true
}

// Len returns the number of points inside the window at now.
func (a *TWAP) Len(now time.Time) int {
	a.evict(now)
	return len(a.points)
}

// Points returns a copy of the points inside the window at now.
func (a *TWAP) Points(now time.Time) []PricePoint {
	a.evict(now)
	out := make([]PricePoint, len(a.points))
	copy(out, a.points)
	return out
}

// Window returns the configured window.
func (a *TWAP) Window() time.Duration {
	return a.window
}

// evict removes points older than now-window, in place.
func (a *TWAP) evict(now time.Time) {
	cutoff := now.Add(-a.window).UnixMilli()

	n := 0
	for _, p := range a.points {
		if p.TimestampMs >= cutoff {
			a.points[n] = p
			n++
		}
	}
	a.points = a.points[:n]
}
