package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/camsyl/crypto-arbitrage-bot/business/risk/domain"
	"github.com/camsyl/crypto-arbitrage-bot/internal/config"
	"github.com/camsyl/crypto-arbitrage-bot/internal/logger"
)

const meterName = "risk"

// retainedBreaches is how many trip events survive the daily reset.
const retainedBreaches = 10

type breakerMetrics struct {
	trips        metric.Int64Counter
	dailyLossUSD metric.Float64Gauge
	failures     metric.Int64Gauge
}

// Breaker is the shared risk gate for the whole pipeline. All state
// transitions happen under one mutex so that two concurrent recordings
// cannot both read a pre-update count and miss a threshold crossing.
type Breaker struct {
	mu sync.Mutex

	cfg      config.RiskConfig
	logger   logger.LoggerInterface
	notifier Notifier

	active              bool
	consecutiveFailures int
	dailyLossUSD        decimal.Decimal
	cooldownUntil       time.Time
	history             []domain.ExecutionRecord
	breaches            []domain.Breach

	now func() time.Time

	metrics *breakerMetrics
}

// NewBreaker creates a circuit breaker in the Normal state.
func NewBreaker(cfg config.RiskConfig, notifier Notifier, log logger.LoggerInterface) (*Breaker, error) {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	b := &Breaker{
		cfg:          cfg,
		logger:       log,
		notifier:     notifier,
		dailyLossUSD: decimal.Zero,
		now:          time.Now,
	}
	if err := b.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return b, nil
}

func (b *Breaker) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	b.metrics = &breakerMetrics{}

	b.metrics.trips, err = meter.Int64Counter(
		"breaker_trips_total",
		metric.WithDescription("Total circuit breaker trips"),
	)
	if err != nil {
		return err
	}

	b.metrics.dailyLossUSD, err = meter.Float64Gauge(
		"breaker_daily_loss_usd",
		metric.WithDescription("Accumulated daily loss in USD"),
	)
	if err != nil {
		return err
	}

	b.metrics.failures, err = meter.Int64Gauge(
		"breaker_consecutive_failures",
		metric.WithDescription("Current consecutive failure count"),
	)
	if err != nil {
		return err
	}

	return nil
}

// RecordExecution folds one settled trade outcome into the breaker.
// The update and the trip-condition checks are one atomic unit.
func (b *Breaker) RecordExecution(ctx context.Context, pair string, profitUSD, gasCostUSD decimal.Decimal) domain.ExecutionRecord {
	rec := domain.NewExecutionRecord(pair, profitUSD, gasCostUSD)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.history = append(b.history, rec)
	if max := b.cfg.ExecutionHistorySize; max > 0 && len(b.history) > max {
		b.history = b.history[len(b.history)-max:]
	}

	if !rec.IsLoss() {
		b.consecutiveFailures = 0
		b.metrics.failures.Record(ctx, 0)
		return rec
	}

	b.consecutiveFailures++
	b.dailyLossUSD = b.dailyLossUSD.Add(rec.NetProfitUSD.Abs())

	b.metrics.failures.Record(ctx, int64(b.consecutiveFailures))
	loss, _ := b.dailyLossUSD.Float64()
	b.metrics.dailyLossUSD.Record(ctx, loss)

	if b.consecutiveFailures >= b.cfg.MaxConsecutiveFailures {
		b.tripLocked(ctx, domain.BreachConsecutiveFailures,
			fmt.Sprintf("%d consecutive losing executions", b.consecutiveFailures))
	} else if b.dailyLossUSD.GreaterThan(decimal.NewFromFloat(b.cfg.MaxDailyLossUSD)) {
		b.tripLocked(ctx, domain.BreachDailyLoss,
			fmt.Sprintf("daily loss %s USD exceeds limit %.2f", b.dailyLossUSD.StringFixed(2), b.cfg.MaxDailyLossUSD))
	}

	return rec
}

// IsTripped is the sole read gate. An expired cooldown is cleared here,
// lazily, and the transition back to Normal is announced.
func (b *Breaker) IsTripped(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.active && !b.now().Before(b.cooldownUntil) {
		b.active = false
		b.logger.Info(ctx, "circuit breaker cooldown expired, resuming")
		b.notifier.Notify(ctx, "info", "circuit breaker reset after cooldown", map[string]any{
			"cooldown_until": b.cooldownUntil,
		})
	}
	return b.active
}

// Trip forces the breaker open, independent of execution outcomes.
func (b *Breaker) Trip(ctx context.Context, reason domain.BreachReason, detail string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tripLocked(ctx, reason, detail)
}

// CheckMarketConditions applies the coarse system-wide safety checks:
// cross-venue price deviation and overall liquidity availability. These
// are independent of the per-candidate validators.
func (b *Breaker) CheckMarketConditions(ctx context.Context, priceDeviationPct, liquidityAvailablePct decimal.Decimal) {
	if priceDeviationPct.GreaterThan(decimal.NewFromFloat(b.cfg.MaxPriceDeviationPct)) {
		b.Trip(ctx, domain.BreachPriceDeviation,
			fmt.Sprintf("cross-venue price deviation %s%% exceeds %.1f%%", priceDeviationPct.StringFixed(2), b.cfg.MaxPriceDeviationPct))
		return
	}
	if liquidityAvailablePct.LessThan(decimal.NewFromFloat(b.cfg.MinLiquidityPct)) {
		b.Trip(ctx, domain.BreachLowLiquidity,
			fmt.Sprintf("liquidity availability %s%% below %.1f%%", liquidityAvailablePct.StringFixed(2), b.cfg.MinLiquidityPct))
	}
}

// Status returns a point-in-time snapshot.
func (b *Breaker) Status(ctx context.Context) domain.Status {
	// Run the lazy cooldown transition first so a snapshot never shows
	// an expired-but-still-active breaker.
	active := b.IsTripped(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	breaches := make([]domain.Breach, len(b.breaches))
	copy(breaches, b.breaches)

	return domain.Status{
		Active:              active,
		ConsecutiveFailures: b.consecutiveFailures,
		DailyLossUSD:        b.dailyLossUSD,
		CooldownUntil:       b.cooldownUntil,
		ExecutionCount:      len(b.history),
		RecentBreaches:      breaches,
	}
}

// StartDailyReset schedules the rollover at each local midnight until
// ctx ends.
func (b *Breaker) StartDailyReset(ctx context.Context) {
	go func() {
		for {
			now := b.now()
			next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)

			select {
			case <-ctx.Done():
				return
			case <-time.After(next.Sub(now)):
				b.ResetDaily(ctx)
			}
		}
	}()
}

// ResetDaily zeroes the daily loss accumulator and the execution
// history, clears the breaker, and keeps only the most recent breaches
// for audit.
func (b *Breaker) ResetDaily(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dailyLossUSD = decimal.Zero
	b.history = nil
	b.consecutiveFailures = 0
	b.active = false

	if len(b.breaches) > retainedBreaches {
		b.breaches = b.breaches[len(b.breaches)-retainedBreaches:]
	}

	b.metrics.dailyLossUSD.Record(ctx, 0)
	b.metrics.failures.Record(ctx, 0)

	b.logger.Info(ctx, "daily risk state reset",
		"retained_breaches", len(b.breaches))
}

// tripLocked must be called with b.mu held.
func (b *Breaker) tripLocked(ctx context.Context, reason domain.BreachReason, detail string) {
	b.active = true
	b.cooldownUntil = b.now().Add(time.Duration(b.cfg.CooldownPeriodMinutes) * time.Minute)
	b.breaches = append(b.breaches, domain.Breach{
		Reason:    reason,
		Detail:    detail,
		Timestamp: b.now(),
	})

	b.metrics.trips.Add(ctx, 1)

	b.logger.Warn(ctx, "circuit breaker tripped",
		"reason", string(reason),
		"detail", detail,
		"cooldown_until", b.cooldownUntil)

	b.notifier.Notify(ctx, "warn", "circuit breaker tripped", map[string]any{
		"reason":         string(reason),
		"detail":         detail,
		"cooldown_until": b.cooldownUntil,
	})
}
