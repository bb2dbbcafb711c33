package domain

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/camsyl/crypto-arbitrage-bot/internal/asset"
)

// Reserves is a snapshot of a pool's depth on both sides of a swap,
// oriented so In is the side being sold into the pool.
type Reserves struct {
	Venue  Venue
	In     asset.Amount
	Out    asset.Amount
	FeeBps int // swap fee in basis points (30 = 0.30%)
}

// AmountOut prices a swap against this snapshot with the constant
// product formula, fee taken on the input side:
//
//	inWithFee = amountIn * (10000 - feeBps)
//	out       = inWithFee * reserveOut / (reserveIn*10000 + inWithFee)
//
// All math is integer in smallest units.
func (r *Reserves) AmountOut(amountIn asset.Amount) asset.Amount {
	if r.In.IsZero() || r.Out.IsZero() || amountIn.IsZero() {
		return asset.Zero(r.Out.Asset())
	}

	feeFactor := big.NewInt(int64(10000 - r.FeeBps))
	inWithFee := new(big.Int).Mul(amountIn.Raw(), feeFactor)

	numerator := new(big.Int).Mul(inWithFee, r.Out.Raw())
	denominator := new(big.Int).Mul(r.In.Raw(), big.NewInt(10000))
	denominator.Add(denominator, inWithFee)

	return asset.NewAmount(r.Out.Asset(), numerator.Div(numerator, denominator))
}

// SpotPrice returns reserveOut/reserveIn in whole-token terms: the
// marginal price before the trade moves the pool.
func (r *Reserves) SpotPrice() decimal.Decimal {
	in := r.In.ToDecimal()
	if in.IsZero() {
		return decimal.Zero
	}
	return r.Out.ToDecimal().Div(in)
}

// ReserveRatioPct returns amountIn as a percentage of the input-side
// reserve. The depth gate rejects trades above a configured ceiling.
func (r *Reserves) ReserveRatioPct(amountIn asset.Amount) decimal.Decimal {
	in := r.In.ToDecimal()
	if in.IsZero() {
		return decimal.NewFromInt(100)
	}
	return amountIn.ToDecimal().Div(in).Mul(decimal.NewFromInt(100))
}

// PriceImpactPct returns (spot - execution)/spot as a percentage for a
// trade of amountIn against this snapshot.
func (r *Reserves) PriceImpactPct(amountIn asset.Amount) decimal.Decimal {
	spot := r.SpotPrice()
	if spot.IsZero() || amountIn.IsZero() {
		return decimal.Zero
	}
	out := r.AmountOut(amountIn)
	exec := out.ToDecimal().Div(amountIn.ToDecimal())
	return spot.Sub(exec).Div(spot).Mul(decimal.NewFromInt(100))
}
