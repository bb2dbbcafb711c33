// Package domain contains the core domain types for the risk context.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BreachReason classifies why the breaker tripped.
type BreachReason string

const (
	BreachConsecutiveFailures BreachReason = "consecutive_failures"
	BreachDailyLoss           BreachReason = "daily_loss"
	BreachPriceDeviation      BreachReason = "price_deviation"
	BreachLowLiquidity        BreachReason = "low_liquidity"
	BreachManual              BreachReason = "manual"
)

// ExecutionRecord is one settled trade outcome as reported by the
// execution layer. NetProfitUSD is profit minus gas.
type ExecutionRecord struct {
	ID           uuid.UUID
	Pair         string
	ProfitUSD    decimal.Decimal
	GasCostUSD   decimal.Decimal
	NetProfitUSD decimal.Decimal
	Timestamp    time.Time
}

// NewExecutionRecord stamps a record with an ID and the current time.
func NewExecutionRecord(pair string, profitUSD, gasCostUSD decimal.Decimal) ExecutionRecord {
	return ExecutionRecord{
		ID:           uuid.New(),
		Pair:         pair,
		ProfitUSD:    profitUSD,
		GasCostUSD:   gasCostUSD,
		NetProfitUSD: profitUSD.Sub(gasCostUSD),
		Timestamp:    time.Now(),
	}
}

// IsLoss reports whether the execution lost money net of gas.
func (r ExecutionRecord) IsLoss() bool {
	return r.NetProfitUSD.Sign() <= 0
}

// Breach is one trip event, kept for audit.
type Breach struct {
	Reason    BreachReason
	Detail    string
	Timestamp time.Time
}

// Status is a point-in-time snapshot of the breaker, safe to hand to
// callers without exposing the live state.
type Status struct {
	Active              bool
	ConsecutiveFailures int
	DailyLossUSD        decimal.Decimal
	CooldownUntil       time.Time
	ExecutionCount      int
	RecentBreaches      []Breach
}
