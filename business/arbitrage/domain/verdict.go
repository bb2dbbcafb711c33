package domain

import (
	"github.com/shopspring/decimal"
)

// Rejection reasons used across the pipeline. Machine-readable; the
// human detail travels in Verdict.Detail.
const (
	ReasonBreakerActive     = "circuit breaker active"
	ReasonGasPriceTooHigh   = "gas price above ceiling"
	ReasonNoComparableQuote = "no comparable quotes"
	ReasonInsufficientDepth = "insufficient liquidity depth"
	ReasonExcessiveImpact   = "excessive price impact"
	ReasonBelowMinOutput    = "expected output below minimum"
	ReasonImplausibleSpread = "implausible spread"
	ReasonSpreadOutlier     = "spread outlier versus history"
	ReasonReferenceMismatch = "spread inconsistent with reference price"
	ReasonManipulationRisk  = "manipulation pattern"
	ReasonBelowProfitFloor  = "net profit below floor"
	ReasonBelowProfitRatio  = "profit-to-gas ratio below minimum"
	ReasonPriceUnavailable  = "token USD price unavailable"
	ReasonMalformed         = "malformed candidate"
	ReasonValidationError   = "validation error"
)

// DepthResult is the liquidity depth check outcome for one leg.
type DepthResult struct {
	Valid           bool
	Reason          string
	ExpectedOutput  decimal.Decimal // whole-token units
	ReserveRatioPct decimal.Decimal
	PriceImpactPct  decimal.Decimal
	Warnings        []string
}

// SpreadResult is the price plausibility check outcome.
type SpreadResult struct {
	Valid        bool
	Reason       string
	SpreadPct    decimal.Decimal
	ThresholdPct decimal.Decimal
	DeviationPct decimal.Decimal // versus the external reference, when available
	Warnings     []string
}

// Verdict is the synchronous answer to one candidate validation. Not
// persisted; callers may log it.
type Verdict struct {
	Valid    bool
	Reason   string // empty when valid
	Detail   string
	Side     string // "buy" or "sell" when a depth check failed
	Warnings []string

	SpreadPct decimal.Decimal
	Costs     *CostBreakdown
	BuyDepth  *DepthResult
	SellDepth *DepthResult

	BreakerSnapshot any // risk status snapshot when rejected by the breaker
}

// Reject builds an invalid verdict.
func Reject(reason, detail string) *Verdict {
	return &Verdict{Reason: reason, Detail: detail}
}

// RejectSide builds an invalid verdict for one leg's depth failure.
func RejectSide(reason, detail, side string) *Verdict {
	return &Verdict{Reason: reason, Detail: detail, Side: side}
}

// Accept builds a valid verdict carrying the numeric breakdown.
func Accept(costs *CostBreakdown, warnings []string) *Verdict {
	return &Verdict{Valid: true, Costs: costs, Warnings: warnings}
}
