package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/camsyl/crypto-arbitrage-bot/business/arbitrage/domain"
	market "github.com/camsyl/crypto-arbitrage-bot/business/market/app"
	"github.com/camsyl/crypto-arbitrage-bot/internal/asset"
	"github.com/camsyl/crypto-arbitrage-bot/internal/config"
	"github.com/camsyl/crypto-arbitrage-bot/internal/logger"
)

// minOutlierSamples is how many recorded observations a series needs
// before the rolling-window check is trusted.
const minOutlierSamples = 10

// SpreadCheckInput carries everything the plausibility gates need for
// one candidate.
type SpreadCheckInput struct {
	TokenA, TokenB *asset.Asset
	BuyVenue       string
	SellVenue      string
	SpreadPct      decimal.Decimal // realized round-trip spread
	BuyPrice       decimal.Decimal // buy-leg execution price, TokenB per TokenA
	TradeSizeUSD   decimal.Decimal
}

// SpreadValidator decides whether an observed spread is plausible or a
// sign of manipulated or broken pricing. A spread over the tier
// threshold is not rejected on its own; it must also fail the history,
// reference, or manipulation check. Surviving all of them with an
// elevated spread yields a warning, never a silent pass.
type SpreadValidator struct {
	cfg       config.ValidationConfig
	history   SpreadHistory
	reference market.ReferenceSource
	log       logger.LoggerInterface
}

// NewSpreadValidator creates a validator. reference may be nil, which
// degrades the reference check to a warning.
func NewSpreadValidator(cfg config.ValidationConfig, history SpreadHistory, reference market.ReferenceSource, log logger.LoggerInterface) *SpreadValidator {
	return &SpreadValidator{cfg: cfg, history: history, reference: reference, log: log}
}

// TierThresholdPct returns the spread ceiling for a pair, by class.
func (v *SpreadValidator) TierThresholdPct(tokenA, tokenB *asset.Asset) decimal.Decimal {
	switch asset.ClassifyPair(tokenA, tokenB) {
	case asset.PairStable:
		return decimal.NewFromFloat(v.cfg.StablePairSpreadPct)
	case asset.PairMajor:
		return decimal.NewFromFloat(v.cfg.MajorPairSpreadPct)
	default:
		return decimal.NewFromFloat(v.cfg.DefaultPairSpreadPct)
	}
}

// CheckSpread runs the tiered threshold plus the secondary (rolling
// outlier), tertiary (external reference), and quaternary
// (manipulation heuristic) checks.
func (v *SpreadValidator) CheckSpread(ctx context.Context, in SpreadCheckInput) *domain.SpreadResult {
	threshold := v.TierThresholdPct(in.TokenA, in.TokenB)
	spread := in.SpreadPct.Abs()

	result := &domain.SpreadResult{
		SpreadPct:    in.SpreadPct,
		ThresholdPct: threshold,
	}

	exceeded := spread.GreaterThan(threshold)
	key := domain.SpreadKey(in.TokenA.Symbol()+"/"+in.TokenB.Symbol(), in.BuyVenue, in.SellVenue)

	// Secondary: rolling-window outlier check. Stats are taken before
	// the current observation is recorded so it cannot dilute its own
	// baseline.
	outlierRan := false
	stats, err := v.history.Stats(ctx, key, v.cfg.SpreadWindowSize)
	if err != nil {
		v.log.Warn(ctx, "spread history unavailable", "key", key, "error", err)
		result.Warnings = append(result.Warnings, "spread history unavailable, outlier check skipped")
	} else if stats.Count >= minOutlierSamples {
		outlierRan = true
		ceiling := stats.Mean.Add(stats.StdDev.Mul(decimal.NewFromFloat(v.cfg.OutlierStdDevs)))
		if spread.GreaterThan(ceiling) {
			result.Reason = fmt.Sprintf("%s: %s%% vs rolling mean %s%% (ceiling %s%%)",
				domain.ReasonSpreadOutlier, spread.StringFixed(3), stats.Mean.StringFixed(3), ceiling.StringFixed(3))
			v.record(ctx, key, spread)
			return result
		}
	} else {
		result.Warnings = append(result.Warnings, "spread history too short, outlier check skipped")
	}

	v.record(ctx, key, spread)

	// Tertiary: cross-reference the buy-leg price against the external
	// feed when one is configured and answering.
	referenceRan := false
	if v.reference != nil && in.BuyPrice.IsPositive() {
		ref, err := v.reference.Price(ctx, in.TokenA, in.TokenB)
		if err != nil {
			result.Warnings = append(result.Warnings, "reference feed unavailable, reference check skipped")
		} else {
			referenceRan = true
			result.DeviationPct = ref.DeviationPct(in.BuyPrice)
			if result.DeviationPct.GreaterThan(decimal.NewFromFloat(v.cfg.ReferenceTolerancePct)) {
				result.Reason = fmt.Sprintf("%s: venue price deviates %s%% from %s reference",
					domain.ReasonReferenceMismatch, result.DeviationPct.StringFixed(2), ref.Source)
				return result
			}
		}
	}

	// Quaternary: a very high spread on a very large trade is the
	// classic thin-liquidity manipulation shape.
	if spread.GreaterThan(decimal.NewFromFloat(v.cfg.ManipulationSpreadPct)) &&
		in.TradeSizeUSD.GreaterThan(decimal.NewFromFloat(v.cfg.LargeTradeUSD)) {
		result.Reason = fmt.Sprintf("%s: spread %s%% with trade size %s USD",
			domain.ReasonManipulationRisk, spread.StringFixed(2), in.TradeSizeUSD.StringFixed(0))
		return result
	}

	// An over-threshold spread stands only when the corroborating
	// checks actually ran and cleared it. Uncorroborated exceedance is
	// a rejection, corroborated exceedance is a loud pass.
	if exceeded {
		if !outlierRan || !referenceRan {
			result.Reason = fmt.Sprintf("%s: spread %s%% exceeds %s threshold %s%% without corroboration",
				domain.ReasonImplausibleSpread, spread.StringFixed(3), asset.ClassifyPair(in.TokenA, in.TokenB), threshold.StringFixed(2))
			return result
		}
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("spread %s%% exceeds %s threshold %s%%",
				spread.StringFixed(3), asset.ClassifyPair(in.TokenA, in.TokenB), threshold.StringFixed(2)))
	}

	result.Valid = true
	return result
}

func (v *SpreadValidator) record(ctx context.Context, key string, spread decimal.Decimal) {
	if err := v.history.Record(ctx, key, spread); err != nil {
		v.log.Warn(ctx, "failed to record spread observation", "key", key, "error", err)
	}
}
