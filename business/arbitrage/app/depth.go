package app

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/camsyl/crypto-arbitrage-bot/business/arbitrage/domain"
	liquidity "github.com/camsyl/crypto-arbitrage-bot/business/liquidity/app"
	liquiditydomain "github.com/camsyl/crypto-arbitrage-bot/business/liquidity/domain"
	"github.com/camsyl/crypto-arbitrage-bot/internal/asset"
)

// probeDivisor sizes the near-spot probe trade for venues without
// inspectable reserves: 1/1000 of the real trade is small enough that
// its own impact is negligible.
const probeDivisor = 1000

// DepthValidator applies the liquidity depth gates to one leg of a
// candidate. Thresholds come from configuration, snapshotted at
// construction; build a new validator to tighten them under an
// elevated risk regime.
type DepthValidator struct {
	maxReserveRatioPct decimal.Decimal
	maxPriceImpactPct  decimal.Decimal
}

// NewDepthValidator creates a validator with the given ceilings, both
// in percent.
func NewDepthValidator(maxReserveRatioPct, maxPriceImpactPct float64) *DepthValidator {
	return &DepthValidator{
		maxReserveRatioPct: decimal.NewFromFloat(maxReserveRatioPct),
		maxPriceImpactPct:  decimal.NewFromFloat(maxPriceImpactPct),
	}
}

// CheckDepth validates one swap leg against the venue's depth. minOut
// is an optional slippage floor in whole tokenOut units; pass zero to
// skip it. An Unavailable venue propagates as an error, it is not a
// rejection.
func (v *DepthValidator) CheckDepth(
	ctx context.Context,
	adapter liquidity.VenueAdapter,
	tokenIn, tokenOut *asset.Asset,
	amountIn asset.Amount,
	minOut decimal.Decimal,
) (*domain.DepthResult, error) {
	reserves, err := adapter.Reserves(ctx, tokenIn, tokenOut)
	switch {
	case err == nil:
		return v.checkWithReserves(reserves, amountIn, minOut), nil
	case errors.Is(err, liquiditydomain.ErrReservesUnsupported):
		return v.checkWithQuotes(ctx, adapter, tokenIn, tokenOut, amountIn, minOut)
	default:
		return nil, err
	}
}

// checkWithReserves runs the full gate set against a reserve snapshot.
func (v *DepthValidator) checkWithReserves(reserves *liquiditydomain.Reserves, amountIn asset.Amount, minOut decimal.Decimal) *domain.DepthResult {
	result := &domain.DepthResult{
		ReserveRatioPct: reserves.ReserveRatioPct(amountIn),
		PriceImpactPct:  reserves.PriceImpactPct(amountIn),
		ExpectedOutput:  reserves.AmountOut(amountIn).ToDecimal(),
	}

	if result.ReserveRatioPct.GreaterThan(v.maxReserveRatioPct) {
		result.Reason = fmt.Sprintf("%s: trade is %s%% of reserves, max %s%%",
			domain.ReasonInsufficientDepth, result.ReserveRatioPct.StringFixed(2), v.maxReserveRatioPct)
		return result
	}
	if result.PriceImpactPct.GreaterThan(v.maxPriceImpactPct) {
		result.Reason = fmt.Sprintf("%s: impact %s%%, max %s%%",
			domain.ReasonExcessiveImpact, result.PriceImpactPct.StringFixed(2), v.maxPriceImpactPct)
		return result
	}
	if minOut.IsPositive() && result.ExpectedOutput.LessThan(minOut) {
		result.Reason = fmt.Sprintf("%s: expected %s, minimum %s",
			domain.ReasonBelowMinOutput, result.ExpectedOutput.StringFixed(6), minOut.StringFixed(6))
		return result
	}

	result.Valid = true
	return result
}

// checkWithQuotes approximates the gates for venues without pool-wide
// reserves. Impact is derived from a near-spot probe quote, which
// understates the true tick-by-tick figure for concentrated liquidity;
// it is a heuristic, not an exact model. The reserve-ratio gate cannot
// run at all and is reported as a warning.
func (v *DepthValidator) checkWithQuotes(
	ctx context.Context,
	adapter liquidity.VenueAdapter,
	tokenIn, tokenOut *asset.Asset,
	amountIn asset.Amount,
	minOut decimal.Decimal,
) (*domain.DepthResult, error) {
	quote, err := adapter.Quote(ctx, tokenIn, tokenOut, amountIn)
	if err != nil {
		return nil, err
	}

	result := &domain.DepthResult{
		ExpectedOutput: quote.AmountOut.ToDecimal(),
		Warnings:       []string{"reserve ratio not observable on this venue kind"},
	}

	probe := probeAmount(tokenIn, amountIn)
	probeQuote, err := adapter.Quote(ctx, tokenIn, tokenOut, probe)
	if err == nil {
		spot := probeQuote.ExecutionPrice()
		exec := quote.ExecutionPrice()
		if spot.IsPositive() {
			result.PriceImpactPct = spot.Sub(exec).Div(spot).Mul(decimal.NewFromInt(100))
		}
	} else {
		result.Warnings = append(result.Warnings, "price impact probe unavailable")
	}

	if result.PriceImpactPct.GreaterThan(v.maxPriceImpactPct) {
		result.Reason = fmt.Sprintf("%s: impact %s%%, max %s%%",
			domain.ReasonExcessiveImpact, result.PriceImpactPct.StringFixed(2), v.maxPriceImpactPct)
		return result, nil
	}
	if minOut.IsPositive() && result.ExpectedOutput.LessThan(minOut) {
		result.Reason = fmt.Sprintf("%s: expected %s, minimum %s",
			domain.ReasonBelowMinOutput, result.ExpectedOutput.StringFixed(6), minOut.StringFixed(6))
		return result, nil
	}

	result.Valid = true
	return result, nil
}

func probeAmount(tokenIn *asset.Asset, amountIn asset.Amount) asset.Amount {
	raw := new(big.Int).Div(amountIn.Raw(), big.NewInt(probeDivisor))
	if raw.Sign() == 0 {
		raw = big.NewInt(1)
	}
	return asset.NewAmount(tokenIn, raw)
}
