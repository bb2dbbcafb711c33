package app

import (
	"context"
	"time"

	"github.com/camsyl/crypto-arbitrage-bot/business/arbitrage/domain"
	risk "github.com/camsyl/crypto-arbitrage-bot/business/risk/app"
	"github.com/camsyl/crypto-arbitrage-bot/internal/logger"
)

// Scanner drives the repeating validation pass: every interval it
// pulls the current candidate set and walks it sequentially. A
// candidate rejected in one pass gets a fresh evaluation on the next;
// nothing carries over between passes.
type Scanner struct {
	source    CandidateSource
	validator *Validator
	executor  Executor
	reporter  Reporter
	breaker   *risk.Breaker
	log       logger.LoggerInterface

	interval       time.Duration
	executeEnabled bool
}

// NewScanner creates a scanner. executor may be nil when execution is
// disabled; verdicts are still reported.
func NewScanner(
	source CandidateSource,
	validator *Validator,
	executor Executor,
	reporter Reporter,
	breaker *risk.Breaker,
	interval time.Duration,
	executeEnabled bool,
	log logger.LoggerInterface,
) *Scanner {
	return &Scanner{
		source:         source,
		validator:      validator,
		executor:       executor,
		reporter:       reporter,
		breaker:        breaker,
		log:            log,
		interval:       interval,
		executeEnabled: executeEnabled,
	}
}

// Run blocks until ctx ends, scanning on every tick. The first pass
// runs immediately.
func (s *Scanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info(ctx, "scanner started",
		"interval", s.interval.String(),
		"execute_enabled", s.executeEnabled)

	s.ScanOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info(ctx, "scanner stopped")
			return
		case <-ticker.C:
			s.ScanOnce(ctx)
		}
	}
}

// ScanOnce runs a single validation pass over the current candidates.
func (s *Scanner) ScanOnce(ctx context.Context) {
	candidates, err := s.source.Candidates(ctx)
	if err != nil {
		s.log.Error(ctx, "candidate source failed, skipping pass", "error", err)
		return
	}

	for _, c := range candidates {
		verdict := s.validator.ValidateOpportunity(ctx, c)
		if s.reporter != nil {
			s.reporter.Report(ctx, c, verdict)
		}
		if verdict.Valid {
			s.log.Info(ctx, "candidate valid",
				"candidate_id", c.ID.String(),
				"pair", c.Pair(),
				"net_profit_usd", verdict.Costs.NetProfitUSD.StringFixed(2),
				"warnings", len(verdict.Warnings))
			s.execute(ctx, c)
		} else {
			s.log.Debug(ctx, "candidate rejected",
				"candidate_id", c.ID.String(),
				"pair", c.Pair(),
				"reason", verdict.Reason,
				"side", verdict.Side)
		}
	}

	if f, ok := s.reporter.(interface{ Flush() }); ok {
		f.Flush()
	}
}

func (s *Scanner) execute(ctx context.Context, c *domain.Candidate) {
	if !s.executeEnabled || s.executor == nil {
		return
	}

	outcome, err := s.executor.Execute(ctx, c)
	if err != nil {
		s.log.Error(ctx, "execution failed",
			"candidate_id", c.ID.String(), "error", err)
		return
	}

	// Settled outcomes, win or lose, feed the breaker.
	rec := s.breaker.RecordExecution(ctx, c.Pair(), outcome.ProfitUSD, outcome.GasCostUSD)
	s.log.Info(ctx, "execution recorded",
		"candidate_id", c.ID.String(),
		"tx_hash", outcome.TxHash,
		"success", outcome.Success,
		"net_profit_usd", rec.NetProfitUSD.StringFixed(2))
}
