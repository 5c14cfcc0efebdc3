package sources

import (
	"sync"
	"time"

	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/logging"
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/metrics"
)

// BaseSource provides name, type, logger and health bookkeeping for sources.
type BaseSource struct {
	name       string
	sourcetype SourceType
	logger     *logging.Logger

	mu         sync.RWMutex
	healthy    bool
	lastUpdate time.Time
	lastErr    error
}

var _ HealthReporter = (*BaseSource)(nil)

// NewBaseSource creates a new base source.
func NewBaseSource(name string, sourcetype SourceType, logger *logging.Logger) *BaseSource {
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	return &BaseSource{
		name:       name,
		sourcetype: sourcetype,
		logger:     logger.With("source", name),
	}
}

// Name returns the source name
func (b *BaseSource) Name() string {
	return b.name
}

// Type returns the source type
func (b *BaseSource) Type() SourceType {
	return b.sourcetype
}

// IsHealthy reports whether the last fetch succeeded.
func (b *BaseSource) IsHealthy() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.healthy
}

// LastUpdate returns the time of the last successful fetch.
func (b *BaseSource) LastUpdate() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastUpdate
}

// LastError returns the error of the last failed fetch, nil after a success.
func (b *BaseSource) LastError() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastErr
}

// MarkResult updates health after a fetch. It returns err unchanged so
// sources can end Fetch with `return price, s.MarkResult(err)`.
func (b *BaseSource) MarkResult(err error) error {
	b.mu.Lock()
	b.healthy = err == nil
	b.lastErr = err
	if err == nil {
		b.lastUpdate = time.Now()
	}
	b.mu.Unlock()

	metrics.RecordSourceHealth(b.name, string(b.sourcetype), err == nil)
	return err
}

// Logger returns the logger
func (b *BaseSource) Logger() *logging.Logger {
	return b.logger
}
