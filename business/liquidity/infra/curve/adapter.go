// Package curve implements the liquidity VenueAdapter for Curve style
// stable-swap pools. The pool address and coin order are fixed at
// configuration time; get_dy prices the swap net of fees.
package curve

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/camsyl/crypto-arbitrage-bot/business/liquidity/app"
	"github.com/camsyl/crypto-arbitrage-bot/business/liquidity/domain"
	"github.com/camsyl/crypto-arbitrage-bot/internal/apperror"
	"github.com/camsyl/crypto-arbitrage-bot/internal/asset"
	"github.com/camsyl/crypto-arbitrage-bot/internal/circuitbreaker"
	"github.com/camsyl/crypto-arbitrage-bot/internal/config"
	"github.com/camsyl/crypto-arbitrage-bot/internal/logger"
	"github.com/camsyl/crypto-arbitrage-bot/internal/ratelimit"
)

const (
	tracerName = "liquidity.curve"
	meterName  = "liquidity.curve"
)

// ContractCaller is the slice of the Ethereum client this adapter needs.
// *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

var _ app.VenueAdapter = (*Adapter)(nil)

type adapterMetrics struct {
	quotesTotal  metric.Int64Counter
	quoteLatency metric.Float64Histogram
	quoteErrors  metric.Int64Counter
}

// Adapter quotes swaps against one stable-swap pool. Pairs outside the
// pool's configured coin list are unavailable, not errors.
type Adapter struct {
	client    ContractCaller
	venue     domain.Venue
	pool      common.Address
	poolABI   abi.ABI
	coinIndex map[string]int
	feeBps    int

	logger  logger.LoggerInterface
	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[[]byte]

	tracer  trace.Tracer
	metrics *adapterMetrics
}

// New creates an adapter for one stable-swap venue.
func New(client ContractCaller, cfg config.VenueConfig, limiter *ratelimit.Limiter, log logger.LoggerInterface) (*Adapter, error) {
	poolABI, err := abi.JSON(strings.NewReader(PoolABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool ABI: %w", err)
	}
	if len(cfg.Coins) < 2 {
		return nil, fmt.Errorf("venue %s: stable-swap needs at least two coins", cfg.Name)
	}

	coinIndex := make(map[string]int, len(cfg.Coins))
	for i, symbol := range cfg.Coins {
		coinIndex[strings.ToUpper(symbol)] = i
	}

	a := &Adapter{
		client:    client,
		venue:     domain.Venue{Name: cfg.Name, Kind: domain.KindStableSwap},
		pool:      common.HexToAddress(cfg.PoolAddress),
		poolABI:   poolABI,
		coinIndex: coinIndex,
		feeBps:    cfg.FeeBps,
		logger:    log,
		limiter:   limiter,
		tracer:    otel.Tracer(tracerName),
	}

	a.cb = circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig(cfg.Name + "-pool"))

	if err := a.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return a, nil
}

func (a *Adapter) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	a.metrics = &adapterMetrics{}

	a.metrics.quotesTotal, err = meter.Int64Counter(
		"venue_quotes_total",
		metric.WithDescription("Total quote requests"),
	)
	if err != nil {
		return err
	}

	a.metrics.quoteLatency, err = meter.Float64Histogram(
		"venue_quote_latency_ms",
		metric.WithDescription("Quote request latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	a.metrics.quoteErrors, err = meter.Int64Counter(
		"venue_quote_errors_total",
		metric.WithDescription("Total quote errors"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Venue identifies the adapter.
func (a *Adapter) Venue() domain.Venue { return a.venue }

// Quote calls get_dy for the pair's coin indices. get_dy is already net
// of the pool fee.
func (a *Adapter) Quote(ctx context.Context, tokenIn, tokenOut *asset.Asset, amountIn asset.Amount) (*domain.Quote, error) {
	ctx, span := a.tracer.Start(ctx, "curve.quote",
		trace.WithAttributes(
			attribute.String("venue", a.venue.Name),
			attribute.String("token_in", tokenIn.Symbol()),
			attribute.String("token_out", tokenOut.Symbol()),
			attribute.String("amount_in", amountIn.Raw().String()),
		),
	)
	defer span.End()

	start := time.Now()
	a.metrics.quotesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("venue", a.venue.Name)))

	i, j, ok := a.pairIndices(tokenIn, tokenOut)
	if !ok {
		span.SetStatus(codes.Error, "pair not in pool")
		return nil, fmt.Errorf("%s %s/%s: pair not in pool: %w", a.venue.Name, tokenIn.Symbol(), tokenOut.Symbol(), domain.ErrUnavailable)
	}

	out, err := a.call(ctx, "get_dy", big.NewInt(int64(i)), big.NewInt(int64(j)), amountIn.Raw())
	a.metrics.quoteLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	if err != nil {
		a.metrics.quoteErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("venue", a.venue.Name)))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	dy := out[0].(*big.Int)
	if dy.Sign() <= 0 {
		span.SetStatus(codes.Error, "zero output")
		return nil, fmt.Errorf("%s %s/%s: zero output: %w", a.venue.Name, tokenIn.Symbol(), tokenOut.Symbol(), domain.ErrUnavailable)
	}

	amountOut := asset.NewAmount(tokenOut, dy)
	quote := domain.NewQuote(a.venue, tokenIn, tokenOut, amountIn, amountOut, a.feeBps, exchangeGasEstimate)

	span.SetAttributes(attribute.String("amount_out", dy.String()))
	span.SetStatus(codes.Ok, "quote received")

	a.logger.Debug(ctx, "curve quote",
		"venue", a.venue.Name,
		"token_in", tokenIn.Symbol(),
		"token_out", tokenOut.Symbol(),
		"amount_out", dy.String(),
	)

	return quote, nil
}

// Reserves reads the pool balances for both sides of the pair. The
// constant-product impact formula overstates slippage for a stable-swap
// curve, which only errs conservative for the depth gate.
func (a *Adapter) Reserves(ctx context.Context, tokenIn, tokenOut *asset.Asset) (*domain.Reserves, error) {
	ctx, span := a.tracer.Start(ctx, "curve.reserves",
		trace.WithAttributes(
			attribute.String("venue", a.venue.Name),
			attribute.String("token_in", tokenIn.Symbol()),
			attribute.String("token_out", tokenOut.Symbol()),
		),
	)
	defer span.End()

	i, j, ok := a.pairIndices(tokenIn, tokenOut)
	if !ok {
		span.SetStatus(codes.Error, "pair not in pool")
		return nil, fmt.Errorf("%s %s/%s: pair not in pool: %w", a.venue.Name, tokenIn.Symbol(), tokenOut.Symbol(), domain.ErrUnavailable)
	}

	balanceIn, err := a.balance(ctx, i)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	balanceOut, err := a.balance(ctx, j)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if balanceIn.Sign() == 0 || balanceOut.Sign() == 0 {
		span.SetStatus(codes.Error, "empty pool")
		return nil, fmt.Errorf("%s %s/%s: empty pool: %w", a.venue.Name, tokenIn.Symbol(), tokenOut.Symbol(), domain.ErrUnavailable)
	}

	span.SetStatus(codes.Ok, "balances read")

	return &domain.Reserves{
		Venue:  a.venue,
		In:     asset.NewAmount(tokenIn, balanceIn),
		Out:    asset.NewAmount(tokenOut, balanceOut),
		FeeBps: a.feeBps,
	}, nil
}

func (a *Adapter) pairIndices(tokenIn, tokenOut *asset.Asset) (int, int, bool) {
	i, okIn := a.coinIndex[strings.ToUpper(tokenIn.Symbol())]
	j, okOut := a.coinIndex[strings.ToUpper(tokenOut.Symbol())]
	return i, j, okIn && okOut
}

func (a *Adapter) balance(ctx context.Context, index int) (*big.Int, error) {
	out, err := a.call(ctx, "balances", big.NewInt(int64(index)))
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (a *Adapter) call(ctx context.Context, method string, args ...any) ([]any, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	callData, err := a.poolABI.Pack(method, args...)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeContractCallFailed,
			fmt.Sprintf("failed to encode %s for %s", method, a.venue.Name))
	}

	result, err := a.cb.Execute(func() ([]byte, error) {
		return a.client.CallContract(ctx, ethereum.CallMsg{
			To:   &a.pool,
			Data: callData,
		}, nil)
	})
	if err != nil {
		// A revert or RPC failure means this venue cannot be compared
		// right now. Only encode/decode faults are real errors.
		return nil, fmt.Errorf("%s call failed on %s: %v: %w", method, a.venue.Name, err, domain.ErrUnavailable)
	}

	outputs, err := a.poolABI.Unpack(method, result)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeContractCallFailed,
			fmt.Sprintf("failed to decode %s result from %s", method, a.venue.Name))
	}
	return outputs, nil
}
