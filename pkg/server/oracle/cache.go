package oracle

import "time"

// Entry is the most recently accepted price.
type Entry struct {
	Price       float64
	TimestampMs int64
	Source      string
}

// PriceCache holds a single entry and answers freshness questions about it.
// It is not safe for concurrent use; Oracle guards it together with the TWAP.
type PriceCache struct {
	ttl        time.Duration
	staleBound time.Duration
	now        func() time.Time

	entry Entry
	set   bool
}

// NewPriceCache creates an empty cache.
func NewPriceCache(ttl, staleBound time.Duration, now func() time.Time) *PriceCache {
	if now == nil {
		now = time.Now
	}
	return &PriceCache{ttl: ttl, staleBound: staleBound, now: now}
}

// Get returns a copy of the entry.
func (c *PriceCache) Get() (Entry, bool) {
	return c.entry, c.set
}

// Set replaces the entry, stamped with the current time.
func (c *PriceCache) Set(price float64, source string) Entry {
	c.entry = Entry{
		Price:       price,
		TimestampMs: c.now().UnixMilli(),
		Source:      source,
	}
	c.set = true
	return c.entry
}

// AgeMs returns the entry age in milliseconds, or NoEntryAge.
func (c *PriceCache) AgeMs() int64 {
	if !c.set {
		return NoEntryAge
	}
	age := c.now().UnixMilli() - c.entry.TimestampMs
	if age < 0 {
		return 0
	}
	return age
}

// IsFresh reports an entry no older than the TTL.
func (c *PriceCache) IsFresh() bool {
	return c.set && c.AgeMs() <= c.ttl.Milliseconds()
}

// IsStale reports an entry older than the TTL.
func (c *PriceCache) IsStale() bool {
	return c.set && c.AgeMs() > c.ttl.Milliseconds()
}

// IsUsable reports an entry within the extended stale bound.
func (c *PriceCache) IsUsable() bool {
	return c.set && c.AgeMs() <= c.staleBound.Milliseconds()
}
