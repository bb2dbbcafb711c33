package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camsyl/crypto-arbitrage-bot/business/risk/domain"
	"github.com/camsyl/crypto-arbitrage-bot/internal/config"
	"github.com/camsyl/crypto-arbitrage-bot/internal/logger"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(ctx context.Context, level, message string, data map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func testRiskConfig() config.RiskConfig {
	return config.RiskConfig{
		MaxConsecutiveFailures: 3,
		MaxDailyLossUSD:        500,
		CooldownPeriodMinutes:  60,
		MaxPriceDeviationPct:   10,
		MinLiquidityPct:        50,
		ExecutionHistorySize:   100,
	}
}

func newTestBreaker(t *testing.T, notifier Notifier) (*Breaker, *time.Time) {
	t.Helper()
	b, err := NewBreaker(testRiskConfig(), notifier, logger.NewNop())
	require.NoError(t, err)

	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	clock := &now
	b.now = func() time.Time { return *clock }
	return b, clock
}

func usd(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func recordLoss(b *Breaker, amount string) {
	b.RecordExecution(context.Background(), "WETH/USDC", decimal.Zero, usd(amount))
}

func TestBreaker_TripResetCycle(t *testing.T) {
	ctx := context.Background()
	b, clock := newTestBreaker(t, nil)

	// Two losses: still below the consecutive-failure limit.
	recordLoss(b, "10")
	recordLoss(b, "10")
	assert.False(t, b.IsTripped(ctx))

	// Third consecutive loss trips.
	recordLoss(b, "10")
	assert.True(t, b.IsTripped(ctx))

	// A winning execution while tripped resets the failure count but
	// does not clear the breaker.
	b.RecordExecution(ctx, "WETH/USDC", usd("100"), usd("20"))
	assert.True(t, b.IsTripped(ctx))
	assert.Equal(t, 0, b.Status(ctx).ConsecutiveFailures)

	// Cooldown expiry clears it lazily on the next read.
	*clock = clock.Add(61 * time.Minute)
	assert.False(t, b.IsTripped(ctx))
}

func TestBreaker_DailyLossAccumulation(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBreaker(t, nil)

	// First loss alone is under the 500 limit.
	recordLoss(b, "300")
	assert.False(t, b.IsTripped(ctx))

	// A win in between keeps consecutive failures from tripping first.
	b.RecordExecution(ctx, "WETH/USDC", usd("50"), usd("10"))

	// Combined losses cross the limit only now.
	recordLoss(b, "300")
	assert.True(t, b.IsTripped(ctx))

	status := b.Status(ctx)
	require.NotEmpty(t, status.RecentBreaches)
	assert.Equal(t, domain.BreachDailyLoss, status.RecentBreaches[len(status.RecentBreaches)-1].Reason)
}

func TestBreaker_CooldownExpiryNotifies(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	b, clock := newTestBreaker(t, notifier)

	b.Trip(ctx, domain.BreachManual, "operator halt")
	require.True(t, b.IsTripped(ctx))
	tripped := notifier.count()

	*clock = clock.Add(2 * time.Hour)
	assert.False(t, b.IsTripped(ctx))
	assert.Greater(t, notifier.count(), tripped, "reset transition should notify")

	// Subsequent reads do not re-notify.
	after := notifier.count()
	assert.False(t, b.IsTripped(ctx))
	assert.Equal(t, after, notifier.count())
}

func TestBreaker_DailyResetRetainsRecentBreaches(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBreaker(t, nil)

	for i := 0; i < 15; i++ {
		b.Trip(ctx, domain.BreachManual, "repeated trip")
	}
	recordLoss(b, "100")

	b.ResetDaily(ctx)

	status := b.Status(ctx)
	assert.False(t, status.Active)
	assert.True(t, status.DailyLossUSD.IsZero())
	assert.Equal(t, 0, status.ExecutionCount)
	assert.Len(t, status.RecentBreaches, retainedBreaches)
}

func TestBreaker_MarketConditionTrips(t *testing.T) {
	ctx := context.Background()

	b, _ := newTestBreaker(t, nil)
	b.CheckMarketConditions(ctx, usd("12"), usd("90"))
	assert.True(t, b.IsTripped(ctx))

	b2, _ := newTestBreaker(t, nil)
	b2.CheckMarketConditions(ctx, usd("2"), usd("40"))
	assert.True(t, b2.IsTripped(ctx))

	b3, _ := newTestBreaker(t, nil)
	b3.CheckMarketConditions(ctx, usd("2"), usd("90"))
	assert.False(t, b3.IsTripped(ctx))
}

func TestBreaker_ConcurrentRecordingsTripOnce(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBreaker(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recordLoss(b, "1")
		}()
	}
	wg.Wait()

	assert.True(t, b.IsTripped(ctx))
	status := b.Status(ctx)
	assert.Equal(t, 10, status.ExecutionCount)
	assert.True(t, status.DailyLossUSD.Equal(usd("10")))
}
