package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHistory(t *testing.T) *SQLiteHistory {
	t.Helper()
	h, err := NewSQLiteHistory(filepath.Join(t.TempDir(), "spreads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func TestSQLiteHistory_EmptySeries(t *testing.T) {
	h := newTestHistory(t)

	stats, err := h.Stats(context.Background(), "WETH/USDC|a>b", 50)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Count)
	assert.True(t, stats.Mean.IsZero())
	assert.True(t, stats.StdDev.IsZero())
}

func TestSQLiteHistory_RecordAndStats(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()
	key := "WETH/USDC|a>b"

	for _, s := range []float64{0.2, 0.3, 0.4} {
		require.NoError(t, h.Record(ctx, key, decimal.NewFromFloat(s)))
	}
	// Another series must not leak into this one.
	require.NoError(t, h.Record(ctx, "WBTC/USDC|a>b", decimal.NewFromFloat(9.9)))

	stats, err := h.Stats(ctx, key, 50)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Count)
	assert.InDelta(t, 0.3, mustFloat(stats.Mean), 1e-9)
	// Population stddev of {0.2, 0.3, 0.4}.
	assert.InDelta(t, 0.0816497, mustFloat(stats.StdDev), 1e-6)
}

func TestSQLiteHistory_WindowTakesMostRecent(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()
	key := "WETH/USDC|a>b"

	// Ten old observations at 1.0, then five recent at 2.0.
	for i := 0; i < 10; i++ {
		require.NoError(t, h.Record(ctx, key, decimal.NewFromInt(1)))
	}
	for i := 0; i < 5; i++ {
		require.NoError(t, h.Record(ctx, key, decimal.NewFromInt(2)))
	}

	stats, err := h.Stats(ctx, key, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Count)
	assert.InDelta(t, 2.0, mustFloat(stats.Mean), 1e-9)
	assert.InDelta(t, 0.0, mustFloat(stats.StdDev), 1e-9)
}

func TestSQLiteHistory_RejectsBadWindow(t *testing.T) {
	h := newTestHistory(t)

	_, err := h.Stats(context.Background(), "k", 0)
	assert.Error(t, err)
}

func mustFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
