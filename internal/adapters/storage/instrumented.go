package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"formgate/internal/observability"
)

// DefaultSlowQueryMs is the default threshold for slow query warnings.
const DefaultSlowQueryMs = 50

var slowQueryMs int64
var slowQueryOnce sync.Once

// getSlowQueryThreshold returns the slow-query threshold in milliseconds.
func getSlowQueryThreshold() float64 {
	slowQueryOnce.Do(func() {
		ms := DefaultSlowQueryMs
		if v := os.Getenv("FORMGATE_SLOW_QUERY_MS"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				ms = n
			}
		}
		atomic.StoreInt64(&slowQueryMs, int64(ms))
	})
	return float64(atomic.LoadInt64(&slowQueryMs))
}

// InstrumentedDB wraps a *sql.DB to record query durations to prometheus
// and log slow queries. Satisfies the SQLDB interface so it can be passed
// to any store constructor.
type InstrumentedDB struct {
	db        *sql.DB
	threshold float64
}

// Compile-time check that *InstrumentedDB satisfies SQLDB.
var _ SQLDB = (*InstrumentedDB)(nil)

// NewInstrumentedDB wraps a *sql.DB with timing instrumentation.
// PRE: db is a valid database connection
// POST: Returns a wrapper recording every query's duration
func NewInstrumentedDB(db *sql.DB) *InstrumentedDB {
	return &InstrumentedDB{db: db, threshold: getSlowQueryThreshold()}
}

// record observes the query duration and warns when it crosses the
// slow-query threshold.
func (t *InstrumentedDB) record(query string, start time.Time) {
	elapsed := time.Since(start)
	observability.QueryDuration.Observe(elapsed.Seconds())
	if ms := float64(elapsed.Milliseconds()); ms >= t.threshold {
		slog.Warn("slow_query", "ms", ms, "query", query)
	}
}

// ExecContext executes a query with timing instrumentation.
func (t *InstrumentedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	defer t.record(query, time.Now())
	return t.db.ExecContext(ctx, query, args...)
}

// QueryContext runs a query with timing instrumentation.
func (t *InstrumentedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	defer t.record(query, time.Now())
	return t.db.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query with timing instrumentation.
func (t *InstrumentedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	defer t.record(query, time.Now())
	return t.db.QueryRowContext(ctx, query, args...)
}

// BeginTx starts a transaction. Statements inside the transaction are not
// individually instrumented.
func (t *InstrumentedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return t.db.BeginTx(ctx, opts)
}
