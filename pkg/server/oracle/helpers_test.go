package oracle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/server/sources"
)

var errBoom = errors.New("upstream down")

// fakeSource returns a configured price or error. When block is set, Fetch
// signals started and waits for block to close or ctx to end.
type fakeSource struct {
	name string

	mu    sync.Mutex
	price float64
	err   error

	block   chan struct{}
	started chan struct{}
	once    sync.Once

	calls atomic.Int32
}

func newFake(name string, price float64, err error) *fakeSource {
	return &fakeSource{name: name, price: price, err: err}
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Type() sources.SourceType { return "fake" }

func (f *fakeSource) Fetch(ctx context.Context) (float64, error) {
	f.calls.Add(1)

	if f.block != nil {
		if f.started != nil {
			f.once.Do(func() { close(f.started) })
		}
		select {
		case <-f.block:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.price, f.err
}

func (f *fakeSource) set(price float64, err error) {
	f.mu.Lock()
	f.price, f.err = price, err
	f.mu.Unlock()
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordedPrice struct {
	price  float64
	source string
}

type memRecorder struct {
	mu     sync.Mutex
	prices []recordedPrice
}

func (r *memRecorder) AddPrice(price float64, source string) {
	r.mu.Lock()
	r.prices = append(r.prices, recordedPrice{price, source})
	r.mu.Unlock()
}

func (r *memRecorder) all() []recordedPrice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedPrice(nil), r.prices...)
}

func testConfig() Config {
	return Config{
		Symbol:               "DC",
		CacheTTL:             60 * time.Second,
		StaleBound:           5 * time.Minute,
		MaxPriceDeviationPct: 50,
		TWAPWindow:           2 * time.Minute,
		AbsoluteMinPrice:     0,
		AbsoluteMaxPrice:     1000,
		SourceTimeout:        time.Second,
		FetchTimeout:         5 * time.Second,
	}
}

type chain struct {
	pool, dexscreener, gecko *fakeSource
	clock                    *fakeClock
	recorder                 *memRecorder
	oracle                   *Oracle
}

func newChain(t *testing.T, cfg Config) *chain {
	t.Helper()

	c := &chain{
		pool:        newFake("pool", 0, errBoom),
		dexscreener: newFake("dexscreener", 0, errBoom),
		gecko:       newFake("geckoterminal", 0, errBoom),
		clock:       newClock(),
		recorder:    &memRecorder{},
	}

	o, err := New(cfg, []sources.Source{c.pool, c.dexscreener, c.gecko}, nil,
		WithClock(c.clock.Now),
		WithRecorder(c.recorder),
	)
	require.NoError(t, err)
	c.oracle = o
	return c
}

func (c *chain) totalCalls() int32 {
	return c.pool.calls.Load() + c.dexscreener.calls.Load() + c.gecko.calls.Load()
}
