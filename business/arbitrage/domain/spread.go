package domain

import (
	"github.com/shopspring/decimal"

	"github.com/camsyl/crypto-arbitrage-bot/internal/asset"
)

// RealizedSpreadPct is the round-trip return of buying on one venue and
// selling on the other: (finalOut - amountIn) / amountIn, as a
// percentage. Both amounts are in TokenA.
func RealizedSpreadPct(amountIn, finalOut asset.Amount) decimal.Decimal {
	in := amountIn.ToDecimal()
	if in.IsZero() {
		return decimal.Zero
	}
	return finalOut.ToDecimal().Sub(in).Div(in).Mul(decimal.NewFromInt(100))
}

// SpreadKey identifies one rolling-history series: a pair traded across
// a specific venue pair. Venue order matters, buy side first.
func SpreadKey(pair, buyVenue, sellVenue string) string {
	return pair + "|" + buyVenue + ">" + sellVenue
}
