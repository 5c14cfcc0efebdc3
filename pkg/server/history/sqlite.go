// Package history persists accepted prices to SQLite.
//
// AddPrice never blocks: records go through a buffered channel drained by
// a single writer goroutine, and are dropped when the buffer is full.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/logging"
	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/metrics"
)

// DefaultBufferSize is used when NewSQLite gets a non-positive size.
const DefaultBufferSize = 256

// Record is one stored price.
type Record struct {
	ID         string    `json:"id"`
	Price      float64   `json:"price"`
	Source     string    `json:"source"`
	RecordedAt time.Time `json:"recorded_at"`
}

// SQLiteRecorder writes prices to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	logger *logging.Logger
	now    func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan Record
	done   chan struct{}
}

// NewSQLite opens (or creates) the database at path and starts the writer.
func NewSQLite(path string, bufferSize int, logger *logging.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// one writer; sqlite serializes anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if logger == nil {
		logger = logging.NewNoopLogger()
	}

	r := &SQLiteRecorder{
		db:     db,
		logger: logger.With("component", "history"),
		now:    time.Now,
		queue:  make(chan Record, bufferSize),
		done:   make(chan struct{}),
	}
	go r.run()

	return r, nil
}

// AddPrice queues a price for writing.
func (r *SQLiteRecorder) AddPrice(price float64, source string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return
	}

	rec := Record{Price: price, Source: source, RecordedAt: r.now()}
	select {
	case r.queue <- rec:
	default:
		metrics.RecordHistoryDrop()
		r.logger.Warn("History buffer full, dropping price", "price", price, "source", source)
	}
}

func (r *SQLiteRecorder) run() {
	defer close(r.done)

	for rec := range r.queue {
		if err := r.insert(rec); err != nil {
			r.logger.Error("Failed to record price", "error", err, "source", rec.Source)
		}
	}
}

func (r *SQLiteRecorder) insert(rec Record) error {
	id, err := newID(rec.RecordedAt)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`
		INSERT INTO prices (id, price, source, recorded_at)
		VALUES (?, ?, ?, ?)`,
		id, rec.Price, rec.Source, rec.RecordedAt.UnixMilli(),
	)
	return err
}

// Recent returns up to limit records, newest first.
func (r *SQLiteRecorder) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, price, source, recorded_at
		FROM prices
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0, limit)
	for rows.Next() {
		var rec Record
		var ms int64
		if err := rows.Scan(&rec.ID, &rec.Price, &rec.Source, &ms); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		rec.RecordedAt = time.UnixMilli(ms).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close stops accepting prices, drains the queue and closes the database.
func (r *SQLiteRecorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRecorderClosed
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	<-r.done
	return r.db.Close()
}
