// Package oracle resolves the DC/USD price through an ordered fallback chain
// of sources, a validator, a short-lived cache and a TWAP window.
//
// Callers only ever talk to Oracle. A request is answered from the cache
// while it is fresh; otherwise the sources are tried in order and the first
// reading that passes validation wins. When every source fails, a cached
// price within the extended stale bound is served with source "cache".
// Only exhaustion of all of that is an error.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/singleflight"

	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/logging"
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/metrics"
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/server/aggregator"
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/server/sources"
)

const flightKey = "price"

// Oracle is the single entry point for DC price lookups.
type Oracle struct {
	cfg      Config
	sources  []sources.Source
	recorder Recorder
	logger   *logging.Logger
	now      func() time.Time

	// mu guards cache and twap. Both are written only after validation,
	// in one critical section.
	mu    sync.RWMutex
	cache *PriceCache
	twap  *aggregator.TWAP

	flight singleflight.Group

	subMu       sync.Mutex
	subscribers map[chan<- PriceObservation]struct{}
}

// Option customizes an Oracle.
type Option func(*Oracle)

// WithRecorder forwards every accepted price to r.
func WithRecorder(r Recorder) Option {
	return func(o *Oracle) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithClock replaces time.Now. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(o *Oracle) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an oracle trying srcs in the given order.
func New(cfg Config, srcs []sources.Source, logger *logging.Logger, opts ...Option) (*Oracle, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(srcs) == 0 {
		return nil, ErrNoSources
	}
	if logger == nil {
		logger = logging.NewNoopLogger()
	}

	o := &Oracle{
		cfg:         cfg,
		sources:     append([]sources.Source(nil), srcs...),
		recorder:    nopRecorder{},
		logger:      logger.With("component", "oracle"),
		now:         time.Now,
		subscribers: make(map[chan<- PriceObservation]struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}

	twap, err := aggregator.NewTWAP(cfg.TWAPWindow)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	o.twap = twap
	o.cache = NewPriceCache(cfg.CacheTTL, cfg.StaleBound, o.now)

	names := make([]string, len(o.sources))
	for i, s := range o.sources {
		names[i] = s.Name()
	}
	o.logger.Info("Price oracle initialized",
		"chain", names,
		"cache_ttl", cfg.CacheTTL.String(),
		"stale_bound", cfg.StaleBound.String(),
		"max_deviation_pct", cfg.MaxPriceDeviationPct,
	)

	return o, nil
}

// SourceHealth reports, in chain order, the health of every source that
// tracks it.
func (o *Oracle) SourceHealth() []SourceStatus {
	statuses := make([]SourceStatus, 0, len(o.sources))
	for _, src := range o.sources {
		hr, ok := src.(sources.HealthReporter)
		if !ok {
			continue
		}
		st := SourceStatus{
			Name:    src.Name(),
			Type:    string(src.Type()),
			Healthy: hr.IsHealthy(),
		}
		if t := hr.LastUpdate(); !t.IsZero() {
			st.LastUpdateMs = t.UnixMilli()
		}
		if err := hr.LastError(); err != nil {
			st.LastError = err.Error()
		}
		statuses = append(statuses, st)
	}
	return statuses
}

// Config returns the effective configuration.
func (o *Oracle) Config() Config {
	return o.cfg
}

type fetchResult struct {
	price float64
	meta  Metadata
}

// GetPrice returns the current price with its metadata.
func (o *Oracle) GetPrice(ctx context.Context) (float64, Metadata, error) {
	return o.get(ctx, false)
}

// Refresh is GetPrice without the fresh-cache fast path.
func (o *Oracle) Refresh(ctx context.Context) (float64, Metadata, error) {
	return o.get(ctx, true)
}

// GetDCPriceUSD returns the current DC price in USD.
func (o *Oracle) GetDCPriceUSD(ctx context.Context) (float64, error) {
	price, _, err := o.GetPrice(ctx)
	return price, err
}

// RefreshPrice forces a traversal of the source chain even when the cache
// is fresh.
func (o *Oracle) RefreshPrice(ctx context.Context) (float64, error) {
	price, _, err := o.Refresh(ctx)
	return price, err
}

func (o *Oracle) get(ctx context.Context, force bool) (float64, Metadata, error) {
	if !force {
		if r, ok := o.cached(); ok {
			metrics.RecordCacheHit()
			return r.price, r.meta, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return 0, Metadata{}, fmt.Errorf("price request cancelled: %w", err)
	}

	// The traversal outlives any single caller so that the remaining
	// waiters, and the cache, still get its result.
	detached := context.WithoutCancel(ctx)
	ch := o.flight.DoChan(flightKey, func() (interface{}, error) {
		return o.run(detached, force)
	})

	select {
	case res := <-ch:
		if res.Shared {
			metrics.RecordSharedFetch()
		}
		if res.Err != nil {
			return 0, Metadata{}, res.Err
		}
		r := res.Val.(fetchResult)
		return r.price, r.meta, nil
	case <-ctx.Done():
		return 0, Metadata{}, fmt.Errorf("price request cancelled: %w", ctx.Err())
	}
}

// cached returns the cache entry while it is fresh.
func (o *Oracle) cached() (fetchResult, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	entry, ok := o.cache.Get()
	if !ok || !o.cache.IsFresh() {
		return fetchResult{}, false
	}
	return fetchResult{price: entry.Price, meta: o.metadata(entry, SourceTagCache)}, true
}

// run is the body of one flight. A caller that found the cache stale may
// enter the flight just after another traversal refreshed it, so the
// freshness check is repeated here.
func (o *Oracle) run(ctx context.Context, force bool) (fetchResult, error) {
	if !force {
		if r, ok := o.cached(); ok {
			metrics.RecordCacheHit()
			return r, nil
		}
	}
	return o.traverse(ctx)
}

// traverse walks the chain once and falls back to the cache.
func (o *Oracle) traverse(parent context.Context) (fetchResult, error) {
	ctx, cancel := context.WithTimeout(parent, o.cfg.FetchTimeout)
	defer cancel()

	logger := o.logger.With("traversal", ulid.Make().String())

	for _, src := range o.sources {
		if ctx.Err() != nil {
			logger.Warn("Fetch budget exhausted before end of chain", "next", src.Name(), "budget", o.cfg.FetchTimeout.String())
			break
		}

		raw, err := o.fetchOne(ctx, src)
		if err != nil {
			logger.Warn("Price source failed", "source", src.Name(), "error", err)
			continue
		}

		obs, err := o.accept(raw, src.Name())
		if err != nil {
			metrics.RecordValidationRejection(src.Name(), rejectionReason(err))
			logger.Warn("Price rejected", "source", src.Name(), "price", raw, "error", err)
			continue
		}

		logger.Debug("Price accepted", "source", obs.Source, "price", obs.Price)
		return fetchResult{
			price: obs.Price,
			meta:  o.metadata(Entry(obs), obs.Source),
		}, nil
	}

	return o.fallback(logger)
}

func (o *Oracle) fetchOne(ctx context.Context, src sources.Source) (float64, error) {
	sctx, cancel := context.WithTimeout(ctx, o.cfg.SourceTimeout)
	defer cancel()

	start := time.Now()
	price, err := src.Fetch(sctx)
	if err == nil {
		metrics.RecordSourceFetch(src.Name(), "ok", time.Since(start))
		return price, nil
	}

	result := "error"
	if errors.Is(sctx.Err(), context.DeadlineExceeded) {
		result = "timeout"
	}
	metrics.RecordSourceFetch(src.Name(), result, time.Since(start))
	return 0, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, src.Name(), err)
}

// accept validates raw against the continuity reference and, on success,
// stores it in the cache and the TWAP window in one critical section.
func (o *Oracle) accept(raw float64, source string) (PriceObservation, error) {
	o.mu.Lock()
	var previous *float64
	if entry, ok := o.cache.Get(); ok && (!o.cfg.ExpireContinuityReference || o.cache.IsUsable()) {
		previous = &entry.Price
	}
	if err := Check(raw, previous, o.cfg); err != nil {
		o.mu.Unlock()
		return PriceObservation{}, err
	}
	entry := o.cache.Set(raw, source)
	o.twap.Add(aggregator.PricePoint{
		Price:       entry.Price,
		TimestampMs: entry.TimestampMs,
		Source:      entry.Source,
	}, o.now())
	o.mu.Unlock()

	obs := PriceObservation(entry)
	metrics.RecordAcceptedPrice(source, raw)
	o.recorder.AddPrice(obs.Price, obs.Source)
	o.publish(obs)
	return obs, nil
}

func (o *Oracle) fallback(logger *logging.Logger) (fetchResult, error) {
	o.mu.RLock()
	entry, ok := o.cache.Get()
	usable := o.cache.IsUsable()
	fresh := o.cache.IsFresh()
	age := o.cache.AgeMs()
	o.mu.RUnlock()

	if !ok {
		metrics.RecordChainExhausted("no_data")
		logger.Error("All price sources failed and nothing is cached")
		return fetchResult{}, ErrNoDataAvailable
	}

	if !usable {
		metrics.RecordChainExhausted("too_old")
		logger.Error("All price sources failed and the cached price is too old", "age_ms", age)
		return fetchResult{}, fmt.Errorf("%w: age %s exceeds %s",
			ErrCacheTooOld, time.Duration(age)*time.Millisecond, o.cfg.StaleBound)
	}

	state := "stale"
	if fresh {
		state = "fresh"
	}
	metrics.RecordCacheFallback(state)
	logger.Warn("All price sources failed, serving cached price", "price", entry.Price, "age_ms", age, "state", state)

	return fetchResult{
		price: entry.Price,
		meta:  o.metadata(entry, SourceTagCache),
	}, nil
}

func (o *Oracle) metadata(e Entry, source string) Metadata {
	return Metadata{
		Name:        o.cfg.Symbol,
		Price:       e.Price,
		TimestampMs: e.TimestampMs,
		Source:      source,
	}
}

// GetCurrentPrice returns the last accepted price without fetching, or nil.
func (o *Oracle) GetCurrentPrice() *float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()

	entry, ok := o.cache.Get()
	if !ok {
		return nil
	}
	price := entry.Price
	return &price
}

// GetPriceAge returns the cached price age in milliseconds, or NoEntryAge.
func (o *Oracle) GetPriceAge() int64 {
	o.mu.RLock()
	age := o.cache.AgeMs()
	o.mu.RUnlock()

	if age != NoEntryAge {
		metrics.RecordPriceAge(time.Duration(age) * time.Millisecond)
	}
	return age
}

// IsPriceStale reports whether the cached price is past its TTL. An oracle
// that has never accepted a price is stale.
func (o *Oracle) IsPriceStale() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	_, ok := o.cache.Get()
	return !ok || o.cache.IsStale()
}

// GetPriceSource describes the cached price and where it originally came from.
func (o *Oracle) GetPriceSource() Metadata {
	o.mu.RLock()
	defer o.mu.RUnlock()

	entry, ok := o.cache.Get()
	if !ok {
		return Metadata{Name: o.cfg.Symbol}
	}
	return o.metadata(entry, entry.Source)
}

// SetCachedPrice overwrites the cache with price, bypassing validation.
// The entry is tagged "manual".
func (o *Oracle) SetCachedPrice(price float64) {
	o.mu.Lock()
	entry := o.cache.Set(price, SourceTagManual)
	o.twap.Add(aggregator.PricePoint{
		Price:       entry.Price,
		TimestampMs: entry.TimestampMs,
		Source:      entry.Source,
	}, o.now())
	o.mu.Unlock()

	o.logger.Warn("Cached price overridden", "price", price)
	o.publish(PriceObservation(entry))
}

// GetTWAPPrice returns the time-weighted average over the window. With an
// empty window it falls back to the cached price; false means neither exists.
func (o *Oracle) GetTWAPPrice() (float64, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if v, ok := o.twap.Value(o.now()); ok {
		return v, true
	}
	if entry, ok := o.cache.Get(); ok {
		return entry.Price, true
	}
	return 0, false
}

// TWAPPoints returns the observations currently inside the TWAP window.
func (o *Oracle) TWAPPoints() []aggregator.PricePoint {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.twap.Points(o.now())
}

// Subscribe registers ch for every accepted or overridden price. Slow
// subscribers miss updates instead of blocking the oracle. The returned
// function unsubscribes.
func (o *Oracle) Subscribe(ch chan<- PriceObservation) func() {
	o.subMu.Lock()
	o.subscribers[ch] = struct{}{}
	o.subMu.Unlock()

	return func() {
		o.subMu.Lock()
		delete(o.subscribers, ch)
		o.subMu.Unlock()
	}
}

func (o *Oracle) publish(obs PriceObservation) {
	o.subMu.Lock()
	defer o.subMu.Unlock()

	for ch := range o.subscribers {
		select {
		case ch <- obs:
		default:
		}
	}
}

// RunRefresher refreshes the price every interval until ctx is done, so
// that most callers hit the fast path. A non-positive interval uses half
// the cache TTL.
func (o *Oracle) RunRefresher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = o.cfg.CacheTTL / 2
	}

	o.logger.Info("Starting price refresher", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, meta, err := o.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			o.logger.Warn("Background refresh failed", "error", err)
		} else {
			o.logger.Debug("Background refresh", "price", meta.Price, "source", meta.Source)
		}

		select {
		case <-ctx.Done():
			o.logger.Info("Price refresher stopped")
			return
		case <-ticker.C:
		}
	}
}
