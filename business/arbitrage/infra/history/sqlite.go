// Package history persists observed cross-venue spreads in SQLite and
// serves the rolling statistics the outlier check runs on. Only real
// observations land here; a series with too few samples simply makes
// the outlier check abstain.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/camsyl/crypto-arbitrage-bot/business/arbitrage/app"
	"github.com/camsyl/crypto-arbitrage-bot/internal/apperror"
)

const schema = `
CREATE TABLE IF NOT EXISTS spread_observations (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    series_key  TEXT     NOT NULL,
    spread_pct  REAL     NOT NULL,
    observed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_spread_series ON spread_observations(series_key, id DESC);
`

// retention bounds how far back observations are kept. The outlier
// window is much smaller; this just caps disk growth.
const retention = 7 * 24 * time.Hour

// SQLiteHistory implements app.SpreadHistory on a local SQLite file
// (pure Go driver, no CGo).
type SQLiteHistory struct {
	db *sql.DB
}

var _ app.SpreadHistory = (*SQLiteHistory)(nil)

// NewSQLiteHistory opens (or creates) the database at the given path,
// applies the schema and prunes stale rows.
func NewSQLiteHistory(path string) (*SQLiteHistory, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeHistoryStoreFailed, "open spread history at "+path)
	}
	// SQLite is single-writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperror.Wrap(err, apperror.CodeHistoryStoreFailed, "apply spread history schema")
	}

	h := &SQLiteHistory{db: db}
	h.pruneOld(context.Background())
	return h, nil
}

// Record appends one spread observation for the series.
func (h *SQLiteHistory) Record(ctx context.Context, key string, spreadPct decimal.Decimal) error {
	pct, _ := spreadPct.Float64()
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO spread_observations (series_key, spread_pct, observed_at) VALUES (?, ?, ?)`,
		key, pct, time.Now().UTC(),
	)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeHistoryStoreFailed, "record spread for "+key)
	}
	return nil
}

// Stats returns count, mean and standard deviation over the most
// recent window observations of the series.
func (h *SQLiteHistory) Stats(ctx context.Context, key string, window int) (*app.SpreadStats, error) {
	if window <= 0 {
		return nil, fmt.Errorf("history.Stats: window must be positive, got %d", window)
	}

	rows, err := h.db.QueryContext(ctx,
		`SELECT spread_pct FROM spread_observations WHERE series_key = ? ORDER BY id DESC LIMIT ?`,
		key, window,
	)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeHistoryStoreFailed, "query spread stats for "+key)
	}
	defer rows.Close()

	var samples []float64
	for rows.Next() {
		var pct float64
		if err := rows.Scan(&pct); err != nil {
			return nil, apperror.Wrap(err, apperror.CodeHistoryStoreFailed, "scan spread row for "+key)
		}
		samples = append(samples, pct)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeHistoryStoreFailed, "iterate spread rows for "+key)
	}

	stats := &app.SpreadStats{Count: len(samples)}
	if len(samples) == 0 {
		stats.Mean = decimal.Zero
		stats.StdDev = decimal.Zero
		return stats, nil
	}

	var sum float64
	for _, s := range samples {
		sum += s
	}
	mean := sum / float64(len(samples))

	var sq float64
	for _, s := range samples {
		d := s - mean
		sq += d * d
	}
	// Population variance: the window IS the population the ceiling is
	// computed over.
	stdDev := math.Sqrt(sq / float64(len(samples)))

	stats.Mean = decimal.NewFromFloat(mean)
	stats.StdDev = decimal.NewFromFloat(stdDev)
	return stats, nil
}

// Close releases the underlying database handle.
func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}

func (h *SQLiteHistory) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retention)
	// Best effort; a failed prune never blocks startup.
	h.db.ExecContext(ctx, `DELETE FROM spread_observations WHERE observed_at < ?`, cutoff)
}
