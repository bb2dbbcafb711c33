// Package app contains the validation pipeline for the arbitrage context.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/camsyl/crypto-arbitrage-bot/business/arbitrage/domain"
)

// CandidateSource yields the candidate set for one scan pass.
// Discovery itself happens upstream; this port only hands over its
// output.
type CandidateSource interface {
	Candidates(ctx context.Context) ([]*domain.Candidate, error)
}

// ExecutionOutcome is the settlement executor's answer for one trade.
type ExecutionOutcome struct {
	Success    bool
	TxHash     string
	ProfitUSD  decimal.Decimal
	GasCostUSD decimal.Decimal
	Err        error
}

// Executor submits a validated opportunity for settlement. The pipeline
// only consumes the outcome shape to feed the circuit breaker.
type Executor interface {
	Execute(ctx context.Context, candidate *domain.Candidate) (*ExecutionOutcome, error)
}

// Reporter receives verdicts for display or logging.
type Reporter interface {
	Report(ctx context.Context, candidate *domain.Candidate, verdict *domain.Verdict)
}

// SpreadStats is the rolling-window summary for one spread series.
type SpreadStats struct {
	Count  int
	Mean   decimal.Decimal
	StdDev decimal.Decimal
}

// SpreadHistory persists observed spreads and serves rolling statistics
// for the outlier check. Real observations only; an empty series means
// the outlier check cannot run yet.
type SpreadHistory interface {
	Record(ctx context.Context, key string, spreadPct decimal.Decimal) error
	Stats(ctx context.Context, key string, window int) (*SpreadStats, error)
}
