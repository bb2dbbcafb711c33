package app

import (
	"math/big"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camsyl/crypto-arbitrage-bot/business/arbitrage/domain"
	marketdomain "github.com/camsyl/crypto-arbitrage-bot/business/market/domain"
	"github.com/camsyl/crypto-arbitrage-bot/internal/config"
)

func analyzerConfig() config.ValidationConfig {
	return config.ValidationConfig{
		MaxGasPriceGwei:         100,
		MinProfitUSD:            50,
		MinProfitMultiplier:     3.0,
		HighVolProfitMultiplier: 5.0,
		LowVolProfitMultiplier:  2.0,
		FlashLoanFeeRate:        0.0009,
		SingleHopGasUnits:       150_000,
		MultiHopGasUnits:        300_000,
	}
}

// gwei builds a gas price from whole-gwei base and tip.
func gwei(base, tip int64) *marketdomain.GasPrice {
	g := big.NewInt(1_000_000_000)
	return marketdomain.NewGasPrice(
		new(big.Int).Mul(big.NewInt(base), g),
		new(big.Int).Mul(big.NewInt(tip), g),
	)
}

func TestCostAnalyzer_Analyze(t *testing.T) {
	// 300k units at 20 gwei effective, native at $3000: gas = $18.
	// Borrowed $10k at 9 bps: flash fee = $9.
	in := AnalyzeInput{
		BorrowedAmountUSD: decimal.NewFromInt(10_000),
		GasPrice:          gwei(15, 5),
		NativeUSD:         decimal.NewFromInt(3000),
		MultiHop:          true,
	}

	t.Run("passes both gates", func(t *testing.T) {
		a := NewCostAnalyzer(analyzerConfig())
		in := in
		in.GrossProfitUSD = decimal.NewFromInt(100)

		costs, reason := a.Analyze(in)
		require.Empty(t, reason)
		assert.True(t, costs.GasCostUSD.Equal(decimal.NewFromInt(18)), "gas cost %s", costs.GasCostUSD)
		assert.True(t, costs.FlashLoanFeeUSD.Equal(decimal.NewFromInt(9)))
		assert.True(t, costs.NetProfitUSD.Equal(decimal.NewFromInt(73)))
	})

	t.Run("net equal to floor is rejected", func(t *testing.T) {
		a := NewCostAnalyzer(analyzerConfig())
		in := in
		// gross 77 - gas 18 - fee 9 = exactly the 50 floor
		in.GrossProfitUSD = decimal.NewFromInt(77)

		costs, reason := a.Analyze(in)
		require.True(t, strings.HasPrefix(reason, domain.ReasonBelowProfitFloor), "got %q", reason)
		assert.True(t, costs.NetProfitUSD.Equal(decimal.NewFromInt(50)))
	})

	t.Run("floor passes but ratio fails", func(t *testing.T) {
		cfg := analyzerConfig()
		cfg.MinProfitUSD = 10
		cfg.MinProfitMultiplier = 4.0
		a := NewCostAnalyzer(cfg)
		in := in
		// net = 100 - 18 - 9 = 73, ratio 73/18 ≈ 4.06 passes at 4.0;
		// gross 90 → net 63, ratio 3.5 fails.
		in.GrossProfitUSD = decimal.NewFromInt(90)

		_, reason := a.Analyze(in)
		assert.True(t, strings.HasPrefix(reason, domain.ReasonBelowProfitRatio), "got %q", reason)
	})

	t.Run("single hop uses the cheaper gas estimate", func(t *testing.T) {
		a := NewCostAnalyzer(analyzerConfig())
		in := in
		in.MultiHop = false
		in.GrossProfitUSD = decimal.NewFromInt(100)

		costs, _ := a.Analyze(in)
		assert.True(t, costs.GasCostUSD.Equal(decimal.NewFromInt(9)), "gas cost %s", costs.GasCostUSD)
	})
}

func TestCostAnalyzer_RegimeMovesTheRatioGate(t *testing.T) {
	a := NewCostAnalyzer(analyzerConfig())
	in := AnalyzeInput{
		GrossProfitUSD:    decimal.NewFromInt(100),
		BorrowedAmountUSD: decimal.NewFromInt(10_000),
		GasPrice:          gwei(15, 5),
		NativeUSD:         decimal.NewFromInt(3000),
		MultiHop:          true,
	}

	// ratio ≈ 4.06: passes normal (3.0), fails high volatility (5.0).
	_, reason := a.Analyze(in)
	require.Empty(t, reason)

	a.SetRegime(RegimeHighVol)
	_, reason = a.Analyze(in)
	assert.True(t, strings.HasPrefix(reason, domain.ReasonBelowProfitRatio))

	a.SetRegime(RegimeLowVol)
	_, reason = a.Analyze(in)
	assert.Empty(t, reason)
}

func TestCostAnalyzer_ExceedsGasCeiling(t *testing.T) {
	a := NewCostAnalyzer(analyzerConfig())

	assert.False(t, a.ExceedsGasCeiling(gwei(90, 10)), "exactly at the ceiling passes")
	assert.True(t, a.ExceedsGasCeiling(gwei(95, 10)))
	assert.False(t, a.ExceedsGasCeiling(gwei(30, 2)))
}
