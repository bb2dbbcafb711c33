package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camsyl/crypto-arbitrage-bot/business/arbitrage/domain"
	"github.com/camsyl/crypto-arbitrage-bot/internal/asset"
	"github.com/camsyl/crypto-arbitrage-bot/internal/logger"
)

type staticSource struct {
	candidates []*domain.Candidate
	err        error
}

func (s *staticSource) Candidates(context.Context) ([]*domain.Candidate, error) {
	return s.candidates, s.err
}

type recordingReporter struct {
	mu       sync.Mutex
	verdicts []*domain.Verdict
	flushes  int
}

func (r *recordingReporter) Report(_ context.Context, _ *domain.Candidate, v *domain.Verdict) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verdicts = append(r.verdicts, v)
}

func (r *recordingReporter) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes++
}

type recordingExecutor struct {
	outcome  *ExecutionOutcome
	executed int
}

func (e *recordingExecutor) Execute(context.Context, *domain.Candidate) (*ExecutionOutcome, error) {
	e.executed++
	return e.outcome, nil
}

func TestScanner_ValidCandidateIsExecutedAndSettles(t *testing.T) {
	f := newFixture(t, fixtureOpts{sellPoolUSDC: "2985000000"})
	reporter := &recordingReporter{}
	executor := &recordingExecutor{outcome: &ExecutionOutcome{
		Success:    true,
		TxHash:     "0xabc",
		ProfitUSD:  decimal.NewFromInt(120),
		GasCostUSD: decimal.NewFromInt(18),
	}}
	source := &staticSource{candidates: []*domain.Candidate{tenWETHCandidate()}}

	s := NewScanner(source, f.validator, executor, reporter, f.breaker, 1, true, logger.NewNop())
	s.ScanOnce(context.Background())

	assert.Equal(t, 1, executor.executed)
	require.Len(t, reporter.verdicts, 1)
	assert.True(t, reporter.verdicts[0].Valid)
	assert.Equal(t, 1, reporter.flushes)

	// The win settles into the breaker's daily books.
	status := f.breaker.Status(context.Background())
	assert.Equal(t, 0, status.ConsecutiveFailures)
	assert.False(t, status.Active)
}

func TestScanner_RejectedCandidateIsReportedNotExecuted(t *testing.T) {
	f := newFixture(t, fixtureOpts{sellPoolUSDC: "2999000000"})
	reporter := &recordingReporter{}
	executor := &recordingExecutor{outcome: &ExecutionOutcome{Success: true}}
	source := &staticSource{candidates: []*domain.Candidate{tenWETHCandidate()}}

	s := NewScanner(source, f.validator, executor, reporter, f.breaker, 1, true, logger.NewNop())
	s.ScanOnce(context.Background())

	assert.Equal(t, 0, executor.executed)
	require.Len(t, reporter.verdicts, 1)
	assert.False(t, reporter.verdicts[0].Valid)
}

func TestScanner_ExecutionDisabledStillReports(t *testing.T) {
	f := newFixture(t, fixtureOpts{sellPoolUSDC: "2985000000"})
	reporter := &recordingReporter{}
	executor := &recordingExecutor{outcome: &ExecutionOutcome{Success: true}}
	source := &staticSource{candidates: []*domain.Candidate{tenWETHCandidate()}}

	s := NewScanner(source, f.validator, executor, reporter, f.breaker, 1, false, logger.NewNop())
	s.ScanOnce(context.Background())

	assert.Equal(t, 0, executor.executed)
	assert.Len(t, reporter.verdicts, 1)
}

func TestScanner_SourceFailureSkipsThePass(t *testing.T) {
	f := newFixture(t, fixtureOpts{sellPoolUSDC: "2985000000"})
	reporter := &recordingReporter{}
	source := &staticSource{err: errors.New("discovery down")}

	s := NewScanner(source, f.validator, nil, reporter, f.breaker, 1, false, logger.NewNop())
	s.ScanOnce(context.Background())

	assert.Empty(t, reporter.verdicts)
	assert.Equal(t, 0, reporter.flushes)
}

func TestScanner_FreshEvaluationEveryPass(t *testing.T) {
	f := newFixture(t, fixtureOpts{sellPoolUSDC: "2985000000"})
	reporter := &recordingReporter{}
	c := domain.NewCandidate(asset.WBTC, asset.USDC,
		asset.MustParse(asset.WBTC, "1"), "pool-a", "pool-b", decimal.Zero)
	source := &staticSource{candidates: []*domain.Candidate{c}}

	s := NewScanner(source, f.validator, nil, reporter, f.breaker, 1, false, logger.NewNop())
	s.ScanOnce(context.Background())
	s.ScanOnce(context.Background())

	// Nothing carries over between passes: the same unlisted pair gets
	// the same verdict twice.
	require.Len(t, reporter.verdicts, 2)
	assert.Equal(t, reporter.verdicts[0].Reason, reporter.verdicts[1].Reason)
}
