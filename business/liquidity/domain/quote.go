package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/camsyl/crypto-arbitrage-bot/internal/asset"
)

// Quote is one venue's answer for swapping amountIn of tokenIn into
// tokenOut. Quotes are produced fresh per validation pass and never
// cached: a stale price is a correctness risk, not a performance one.
type Quote struct {
	Venue       Venue
	TokenIn     *asset.Asset
	TokenOut    *asset.Asset
	AmountIn    asset.Amount
	AmountOut   asset.Amount
	FeeTierUsed int // hundredths of a bip for CL venues, bps otherwise
	GasEstimate uint64
	Timestamp   time.Time
}

// NewQuote creates a Quote stamped with the current time.
func NewQuote(venue Venue, tokenIn, tokenOut *asset.Asset, amountIn, amountOut asset.Amount, feeTier int, gasEstimate uint64) *Quote {
	return &Quote{
		Venue:       venue,
		TokenIn:     tokenIn,
		TokenOut:    tokenOut,
		AmountIn:    amountIn,
		AmountOut:   amountOut,
		FeeTierUsed: feeTier,
		GasEstimate: gasEstimate,
		Timestamp:   time.Now(),
	}
}

// ExecutionPrice returns amountOut/amountIn in whole-token terms.
func (q *Quote) ExecutionPrice() decimal.Decimal {
	in := q.AmountIn.ToDecimal()
	if in.IsZero() {
		return decimal.Zero
	}
	return q.AmountOut.ToDecimal().Div(in)
}
