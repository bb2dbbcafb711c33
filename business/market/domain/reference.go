package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReferencePrice is an externally observed price for a pair, used as an
// independent sanity check against on-chain quotes. Mid is the bid/ask
// midpoint in quote units per base unit.
type ReferencePrice struct {
	Symbol    string // exchange symbol, e.g. ETHUSDC
	Mid       decimal.Decimal
	Bid       decimal.Decimal
	Ask       decimal.Decimal
	Source    string
	Timestamp time.Time
}

// IsStale reports whether the observation is older than maxAge.
func (r *ReferencePrice) IsStale(maxAge time.Duration) bool {
	return time.Since(r.Timestamp) > maxAge
}

// DeviationPct returns |price - mid| / mid as a percentage, the figure
// the plausibility gate compares against its tolerance.
func (r *ReferencePrice) DeviationPct(price decimal.Decimal) decimal.Decimal {
	if r.Mid.IsZero() {
		return decimal.Zero
	}
	return price.Sub(r.Mid).Abs().Div(r.Mid).Mul(decimal.NewFromInt(100))
}
