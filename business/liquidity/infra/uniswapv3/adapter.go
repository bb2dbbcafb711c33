// Package uniswapv3 implements the liquidity VenueAdapter for Uniswap V3
// style concentrated-liquidity venues via the QuoterV2 contract.
package uniswapv3

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
	tracerName = "liquidity.uniswapv3"
	meterName  = "liquidity.uniswapv3"
)

// ContractCaller is the slice of the Ethereum client this adapter needs.
// *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Ensure Adapter implements the venue port.
var _ app.VenueAdapter = (*Adapter)(nil)

type adapterMetrics struct {
	quotesTotal  metric.Int64Counter
	quoteLatency metric.Float64Histogram
	quoteErrors  metric.Int64Counter
}

// Adapter quotes swaps against a QuoterV2 contract, probing every
// configured fee tier and keeping the best output.
type Adapter struct {
	client    ContractCaller
	venue     domain.Venue
	quoter    common.Address
	quoterABI abi.ABI
	feeTiers  []int

	logger  logger.LoggerInterface
	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[[]byte]

	tracer  trace.Tracer
	metrics *adapterMetrics
}

// New creates an adapter for one concentrated-liquidity venue.
func New(client ContractCaller, cfg config.VenueConfig, limiter *ratelimit.Limiter, log logger.LoggerInterface) (*Adapter, error) {
	parsedABI, err := abi.JSON(strings.NewReader(QuoterV2ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse quoter ABI: %w", err)
	}

	feeTiers := cfg.FeeTiers
	if len(feeTiers) == 0 {
		feeTiers = DefaultFeeTiers
	}

	a := &Adapter{
		client:    client,
		venue:     domain.Venue{Name: cfg.Name, Kind: domain.KindConcentratedLiquidity},
		quoter:    common.HexToAddress(cfg.QuoterAddress),
		quoterABI: parsedABI,
		feeTiers:  feeTiers,
		logger:    log,
		limiter:   limiter,
		tracer:    otel.Tracer(tracerName),
	}

	a.cb = circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig(cfg.Name + "-quoter"))

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

// Quote probes each configured fee tier and returns the quote with the
// highest output. When no tier answers the venue is reported unavailable,
// not failed: pools can legitimately not exist for a pair.
func (a *Adapter) Quote(ctx context.Context, tokenIn, tokenOut *asset.Asset, amountIn asset.Amount) (*domain.Quote, error) {
	ctx, span := a.tracer.Start(ctx, "uniswapv3.quote",
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

	var best *QuoteResult
	var bestFeeTier int

	for _, feeTier := range a.feeTiers {
		result, err := a.quoteFeeTier(ctx, tokenIn.Address(), tokenOut.Address(), amountIn.Raw(), feeTier)
		if err != nil {
			span.AddEvent("fee_tier_failed",
				trace.WithAttributes(
					attribute.Int("fee_tier", feeTier),
					attribute.String("error", err.Error()),
				),
			)
			continue
		}
		if result.AmountOut.Sign() <= 0 {
			continue
		}
		if best == nil || result.AmountOut.Cmp(best.AmountOut) > 0 {
			best = result
			bestFeeTier = feeTier
		}
	}

	a.metrics.quoteLatency.Record(ctx, float64(time.Since(start).Milliseconds()))

	if best == nil {
		a.metrics.quoteErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("venue", a.venue.Name)))
		span.SetStatus(codes.Error, "no tier answered")
		return nil, fmt.Errorf("%s %s/%s: %w", a.venue.Name, tokenIn.Symbol(), tokenOut.Symbol(), domain.ErrUnavailable)
	}

	amountOut := asset.NewAmount(tokenOut, best.AmountOut)
	quote := domain.NewQuote(a.venue, tokenIn, tokenOut, amountIn, amountOut, bestFeeTier, best.GasEstimate.Uint64())

	span.SetAttributes(
		attribute.String("amount_out", best.AmountOut.String()),
		attribute.Int("fee_tier", bestFeeTier),
		attribute.Int64("gas_estimate", best.GasEstimate.Int64()),
	)
	span.SetStatus(codes.Ok, "quote received")

	a.logger.Debug(ctx, "uniswapv3 quote",
		"venue", a.venue.Name,
		"token_in", tokenIn.Symbol(),
		"token_out", tokenOut.Symbol(),
		"amount_out", best.AmountOut.String(),
		"fee_tier", bestFeeTier,
	)

	return quote, nil
}

// Reserves is not meaningful for concentrated liquidity: depth is a
// function of the tick range, not two pool-wide balances.
func (a *Adapter) Reserves(ctx context.Context, tokenIn, tokenOut *asset.Asset) (*domain.Reserves, error) {
	return nil, domain.ErrReservesUnsupported
}

// quoteFeeTier calls QuoterV2.quoteExactInputSingle for one fee tier.
func (a *Adapter) quoteFeeTier(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int, feeTier int) (*QuoteResult, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	callData, err := a.quoterABI.Pack("quoteExactInputSingle", QuoteExactInputSingleParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		AmountIn:          amountIn,
		Fee:               big.NewInt(int64(feeTier)),
		SqrtPriceLimitX96: big.NewInt(0), // no price limit
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}

	result, err := a.cb.Execute(func() ([]byte, error) {
		return a.client.CallContract(ctx, ethereum.CallMsg{
			To:   &a.quoter,
			Data: callData,
		}, nil)
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("quoter call failed for fee tier %d", feeTier)))
	}

	outputs, err := a.quoterABI.Unpack("quoteExactInputSingle", result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	if len(outputs) < 4 {
		return nil, fmt.Errorf("unexpected output length: %d", len(outputs))
	}

	return &QuoteResult{
		AmountOut:               outputs[0].(*big.Int),
		SqrtPriceX96After:       outputs[1].(*big.Int),
		InitializedTicksCrossed: outputs[2].(uint32),
		GasEstimate:             outputs[3].(*big.Int),
	}, nil
}
