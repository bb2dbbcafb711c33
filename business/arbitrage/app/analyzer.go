package app

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/camsyl/crypto-arbitrage-bot/business/arbitrage/domain"
	marketdomain "github.com/camsyl/crypto-arbitrage-bot/business/market/domain"
	"github.com/camsyl/crypto-arbitrage-bot/internal/config"
)

// Regime is the market-condition signal that moves the relative profit
// gate: high volatility demands more edge per unit of gas risk.
type Regime string

const (
	RegimeNormal  Regime = "normal"
	RegimeHighVol Regime = "high-volatility"
	RegimeLowVol  Regime = "low-volatility"
)

// AnalyzeInput carries the figures the profitability gates run on.
type AnalyzeInput struct {
	GrossProfitUSD    decimal.Decimal
	BorrowedAmountUSD decimal.Decimal // flash-loan principal
	GasPrice          *marketdomain.GasPrice
	NativeUSD         decimal.Decimal // USD price of the gas coin

	// MultiHop selects the gas model. A two-leg buy/sell candidate is
	// always multi-hop; the single-hop model exists for direct swaps.
	MultiHop bool
}

// CostAnalyzer applies the cost model and the two profitability gates.
// The regime can be moved by an external market-conditions signal; each
// Analyze call works on a consistent snapshot of it.
type CostAnalyzer struct {
	cfg config.ValidationConfig

	mu     sync.RWMutex
	regime Regime
}

// NewCostAnalyzer creates an analyzer in the normal regime.
func NewCostAnalyzer(cfg config.ValidationConfig) *CostAnalyzer {
	return &CostAnalyzer{cfg: cfg, regime: RegimeNormal}
}

// SetRegime moves the volatility regime. Safe to call concurrently
// with Analyze.
func (a *CostAnalyzer) SetRegime(r Regime) {
	a.mu.Lock()
	a.regime = r
	a.mu.Unlock()
}

// Regime returns the current regime.
func (a *CostAnalyzer) Regime() Regime {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.regime
}

// ProfitMultiplier returns the relative gate for the current regime.
func (a *CostAnalyzer) ProfitMultiplier() decimal.Decimal {
	switch a.Regime() {
	case RegimeHighVol:
		return decimal.NewFromFloat(a.cfg.HighVolProfitMultiplier)
	case RegimeLowVol:
		return decimal.NewFromFloat(a.cfg.LowVolProfitMultiplier)
	default:
		return decimal.NewFromFloat(a.cfg.MinProfitMultiplier)
	}
}

// ExceedsGasCeiling is the hard gas gate that runs before any other
// validation work is spent on a candidate.
func (a *CostAnalyzer) ExceedsGasCeiling(gasPrice *marketdomain.GasPrice) bool {
	return gasPrice.EffectiveGwei().GreaterThan(decimal.NewFromFloat(a.cfg.MaxGasPriceGwei))
}

// Analyze computes the full cost breakdown and applies both
// profitability gates. An empty reason means the candidate passed.
func (a *CostAnalyzer) Analyze(in AnalyzeInput) (*domain.CostBreakdown, string) {
	gasUnits := a.cfg.SingleHopGasUnits
	if in.MultiHop {
		gasUnits = a.cfg.MultiHopGasUnits
	}

	gasCostUSD := domain.GasCostUSD(gasUnits, in.GasPrice.EffectiveWei(), in.NativeUSD)
	flashFeeUSD := in.BorrowedAmountUSD.Mul(decimal.NewFromFloat(a.cfg.FlashLoanFeeRate))

	costs := domain.NewCostBreakdown(in.GrossProfitUSD, gasCostUSD, flashFeeUSD)

	minProfit := decimal.NewFromFloat(a.cfg.MinProfitUSD)
	if !costs.NetProfitUSD.GreaterThan(minProfit) {
		return costs, fmt.Sprintf("%s: net %s USD, floor %s USD (short %s)",
			domain.ReasonBelowProfitFloor,
			costs.NetProfitUSD.StringFixed(2), minProfit.StringFixed(2),
			minProfit.Sub(costs.NetProfitUSD).StringFixed(2))
	}

	multiplier := a.ProfitMultiplier()
	if costs.ProfitToGasRatio.LessThan(multiplier) {
		return costs, fmt.Sprintf("%s: ratio %s, minimum %s (regime %s)",
			domain.ReasonBelowProfitRatio,
			costs.ProfitToGasRatio.StringFixed(2), multiplier.StringFixed(2), a.Regime())
	}

	return costs, ""
}
