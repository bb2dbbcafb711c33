package app

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camsyl/crypto-arbitrage-bot/business/arbitrage/domain"
	marketdomain "github.com/camsyl/crypto-arbitrage-bot/business/market/domain"
	"github.com/camsyl/crypto-arbitrage-bot/internal/asset"
	"github.com/camsyl/crypto-arbitrage-bot/internal/config"
	"github.com/camsyl/crypto-arbitrage-bot/internal/logger"
)

// memHistory is an in-memory SpreadHistory for tests.
type memHistory struct {
	samples   map[string][]float64
	statsErr  error
	recordErr error
}

func newMemHistory() *memHistory {
	return &memHistory{samples: make(map[string][]float64)}
}

func (h *memHistory) seed(key string, spreads ...float64) {
	h.samples[key] = append(h.samples[key], spreads...)
}

func (h *memHistory) Record(_ context.Context, key string, spreadPct decimal.Decimal) error {
	if h.recordErr != nil {
		return h.recordErr
	}
	pct, _ := spreadPct.Float64()
	h.samples[key] = append(h.samples[key], pct)
	return nil
}

func (h *memHistory) Stats(_ context.Context, key string, window int) (*SpreadStats, error) {
	if h.statsErr != nil {
		return nil, h.statsErr
	}
	all := h.samples[key]
	if len(all) > window {
		all = all[len(all)-window:]
	}

	stats := &SpreadStats{Count: len(all)}
	if len(all) == 0 {
		return stats, nil
	}
	var sum float64
	for _, s := range all {
		sum += s
	}
	mean := sum / float64(len(all))
	var sq float64
	for _, s := range all {
		sq += (s - mean) * (s - mean)
	}
	stats.Mean = decimal.NewFromFloat(mean)
	stats.StdDev = decimal.NewFromFloat(math.Sqrt(sq / float64(len(all))))
	return stats, nil
}

// stubReference answers every pair with a fixed mid price.
type stubReference struct {
	mid decimal.Decimal
	err error
}

func (s *stubReference) Price(_ context.Context, base, quote *asset.Asset) (*marketdomain.ReferencePrice, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &marketdomain.ReferencePrice{
		Symbol:    base.Symbol() + quote.Symbol(),
		Mid:       s.mid,
		Bid:       s.mid,
		Ask:       s.mid,
		Source:    "stub",
		Timestamp: time.Now(),
	}, nil
}

func spreadConfig() config.ValidationConfig {
	return config.ValidationConfig{
		StablePairSpreadPct:   0.3,
		MajorPairSpreadPct:    1.0,
		DefaultPairSpreadPct:  2.0,
		OutlierStdDevs:        3.0,
		SpreadWindowSize:      100,
		ReferenceTolerancePct: 1.0,
		ManipulationSpreadPct: 5.0,
		LargeTradeUSD:         100_000,
	}
}

func majorInput(spreadPct float64) SpreadCheckInput {
	return SpreadCheckInput{
		TokenA:       asset.WETH,
		TokenB:       asset.USDC,
		BuyVenue:     "pool-a",
		SellVenue:    "pool-b",
		SpreadPct:    decimal.NewFromFloat(spreadPct),
		BuyPrice:     decimal.NewFromInt(3000),
		TradeSizeUSD: decimal.NewFromInt(30_000),
	}
}

func TestTierThresholds_StableTighterThanMajor(t *testing.T) {
	v := NewSpreadValidator(spreadConfig(), newMemHistory(), nil, logger.NewNop())

	// The same 0.5% spread: over the stable-pair bar, under the major
	// one. With no history and no reference there is nothing to
	// corroborate the stable-pair exceedance, so it is rejected.
	stable := v.CheckSpread(context.Background(), SpreadCheckInput{
		TokenA:       asset.USDC,
		TokenB:       asset.USDT,
		BuyVenue:     "pool-a",
		SellVenue:    "pool-b",
		SpreadPct:    decimal.NewFromFloat(0.5),
		TradeSizeUSD: decimal.NewFromInt(30_000),
	})
	require.False(t, stable.Valid)
	assert.True(t, strings.HasPrefix(stable.Reason, domain.ReasonImplausibleSpread), "got %q", stable.Reason)

	major := v.CheckSpread(context.Background(), majorInput(0.5))
	assert.True(t, major.Valid, "reason: %s", major.Reason)
}

func TestCheckSpread_OutlierAgainstOwnHistory(t *testing.T) {
	history := newMemHistory()
	key := domain.SpreadKey("WETH/USDC", "pool-a", "pool-b")
	// Twelve calm observations around 0.30%, σ ≈ 0.01.
	history.seed(key, 0.29, 0.30, 0.31, 0.30, 0.29, 0.31, 0.30, 0.30, 0.29, 0.31, 0.30, 0.30)

	v := NewSpreadValidator(spreadConfig(), history, nil, logger.NewNop())

	// 0.8% is under the 1% major threshold but far over mean+3σ.
	res := v.CheckSpread(context.Background(), majorInput(0.8))
	require.False(t, res.Valid)
	assert.True(t, strings.HasPrefix(res.Reason, domain.ReasonSpreadOutlier), "got %q", res.Reason)

	// The rejected observation still lands in the history.
	stats, err := history.Stats(context.Background(), key, 100)
	require.NoError(t, err)
	assert.Equal(t, 13, stats.Count)
}

func TestCheckSpread_ShortHistorySkipsOutlierCheck(t *testing.T) {
	history := newMemHistory()
	key := domain.SpreadKey("WETH/USDC", "pool-a", "pool-b")
	history.seed(key, 0.30, 0.30, 0.30) // below the sample minimum

	v := NewSpreadValidator(spreadConfig(), history, nil, logger.NewNop())

	res := v.CheckSpread(context.Background(), majorInput(0.8))
	assert.True(t, res.Valid, "reason: %s", res.Reason)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "history too short")
}

func TestCheckSpread_ReferenceMismatch(t *testing.T) {
	ref := &stubReference{mid: decimal.NewFromInt(3000)}
	v := NewSpreadValidator(spreadConfig(), newMemHistory(), ref, logger.NewNop())

	in := majorInput(0.5)
	in.BuyPrice = decimal.NewFromInt(3100) // 3.3% off the reference

	res := v.CheckSpread(context.Background(), in)
	require.False(t, res.Valid)
	assert.True(t, strings.HasPrefix(res.Reason, domain.ReasonReferenceMismatch), "got %q", res.Reason)
	assert.True(t, res.DeviationPct.GreaterThan(decimal.NewFromInt(3)))
}

func TestCheckSpread_ReferenceFeedDownDegradesToWarning(t *testing.T) {
	ref := &stubReference{err: errors.New("feed down")}
	v := NewSpreadValidator(spreadConfig(), newMemHistory(), ref, logger.NewNop())

	res := v.CheckSpread(context.Background(), majorInput(0.5))
	assert.True(t, res.Valid, "reason: %s", res.Reason)
	assert.Contains(t, strings.Join(res.Warnings, "; "), "reference feed unavailable")
}

func TestCheckSpread_ManipulationShape(t *testing.T) {
	history := newMemHistory()
	key := domain.SpreadKey("WETH/USDC", "pool-a", "pool-b")
	// A history that normalizes very wide spreads, so only the
	// manipulation check can catch this one.
	history.seed(key, 6.0, 6.1, 5.9, 6.0, 6.2, 5.8, 6.0, 6.1, 5.9, 6.0, 6.0, 6.1)

	ref := &stubReference{mid: decimal.NewFromInt(3000)}
	v := NewSpreadValidator(spreadConfig(), history, ref, logger.NewNop())

	in := majorInput(6.0)
	in.TradeSizeUSD = decimal.NewFromInt(250_000)

	res := v.CheckSpread(context.Background(), in)
	require.False(t, res.Valid)
	assert.True(t, strings.HasPrefix(res.Reason, domain.ReasonManipulationRisk), "got %q", res.Reason)
}

func TestCheckSpread_CorroboratedExceedancePassesLoudly(t *testing.T) {
	history := newMemHistory()
	key := domain.SpreadKey("WETH/USDC", "pool-a", "pool-b")
	history.seed(key, 2.0, 2.1, 1.9, 2.0, 2.2, 1.8, 2.0, 2.1, 1.9, 2.0, 2.0, 2.1)

	ref := &stubReference{mid: decimal.NewFromInt(3000)}
	v := NewSpreadValidator(spreadConfig(), history, ref, logger.NewNop())

	// 2.1% on a major pair is over the 1% threshold, but both the
	// rolling history and the reference clear it.
	res := v.CheckSpread(context.Background(), majorInput(2.1))
	require.True(t, res.Valid, "reason: %s", res.Reason)
	assert.Contains(t, strings.Join(res.Warnings, "; "), "exceeds major_pair threshold")
}

func TestCheckSpread_UncorroboratedExceedanceRejected(t *testing.T) {
	// Reference configured but down, history empty: the exceedance
	// stands alone and is rejected.
	ref := &stubReference{err: errors.New("feed down")}
	v := NewSpreadValidator(spreadConfig(), newMemHistory(), ref, logger.NewNop())

	res := v.CheckSpread(context.Background(), majorInput(2.1))
	require.False(t, res.Valid)
	assert.True(t, strings.HasPrefix(res.Reason, domain.ReasonImplausibleSpread), "got %q", res.Reason)
}

func TestCheckSpread_HistoryStoreFailureIsNonFatal(t *testing.T) {
	history := newMemHistory()
	history.statsErr = errors.New("disk gone")
	history.recordErr = errors.New("disk gone")

	v := NewSpreadValidator(spreadConfig(), history, nil, logger.NewNop())

	res := v.CheckSpread(context.Background(), majorInput(0.5))
	assert.True(t, res.Valid, "reason: %s", res.Reason)
	assert.Contains(t, strings.Join(res.Warnings, "; "), "history unavailable")
}
