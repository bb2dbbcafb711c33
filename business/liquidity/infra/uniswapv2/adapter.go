// Package uniswapv2 implements the liquidity VenueAdapter for Uniswap V2
// style constant-product venues. Quotes are priced locally from a fresh
// reserve snapshot rather than through a quoter contract.
package uniswapv2

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
	tracerName = "liquidity.uniswapv2"
	meterName  = "liquidity.uniswapv2"
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

// Adapter resolves pairs through the venue's factory and prices swaps
// against on-chain reserves with the constant-product formula.
type Adapter struct {
	client     ContractCaller
	venue      domain.Venue
	factory    common.Address
	factoryABI abi.ABI
	pairABI    abi.ABI
	feeBps     int

	logger  logger.LoggerInterface
	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[[]byte]

	tracer  trace.Tracer
	metrics *adapterMetrics
}

// New creates an adapter for one constant-product venue.
func New(client ContractCaller, cfg config.VenueConfig, limiter *ratelimit.Limiter, log logger.LoggerInterface) (*Adapter, error) {
	factoryABI, err := abi.JSON(strings.NewReader(FactoryABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse factory ABI: %w", err)
	}
	pairABI, err := abi.JSON(strings.NewReader(PairABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pair ABI: %w", err)
	}

	a := &Adapter{
		client:     client,
		venue:      domain.Venue{Name: cfg.Name, Kind: domain.KindConstantProduct},
		factory:    common.HexToAddress(cfg.FactoryAddress),
		factoryABI: factoryABI,
		pairABI:    pairABI,
		feeBps:     cfg.FeeBps,
		logger:     log,
		limiter:    limiter,
		tracer:     otel.Tracer(tracerName),
	}

	a.cb = circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig(cfg.Name + "-pair"))

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

// Quote snapshots reserves for the pair and prices the swap locally.
func (a *Adapter) Quote(ctx context.Context, tokenIn, tokenOut *asset.Asset, amountIn asset.Amount) (*domain.Quote, error) {
	ctx, span := a.tracer.Start(ctx, "uniswapv2.quote",
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

	reserves, err := a.Reserves(ctx, tokenIn, tokenOut)
	a.metrics.quoteLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	if err != nil {
		a.metrics.quoteErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("venue", a.venue.Name)))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	amountOut := reserves.AmountOut(amountIn)
	if amountOut.IsZero() {
		span.SetStatus(codes.Error, "zero output")
		return nil, fmt.Errorf("%s %s/%s: zero output: %w", a.venue.Name, tokenIn.Symbol(), tokenOut.Symbol(), domain.ErrUnavailable)
	}

	quote := domain.NewQuote(a.venue, tokenIn, tokenOut, amountIn, amountOut, a.feeBps, swapGasEstimate)

	span.SetAttributes(attribute.String("amount_out", amountOut.Raw().String()))
	span.SetStatus(codes.Ok, "quote computed")

	a.logger.Debug(ctx, "uniswapv2 quote",
		"venue", a.venue.Name,
		"token_in", tokenIn.Symbol(),
		"token_out", tokenOut.Symbol(),
		"amount_out", amountOut.Raw().String(),
	)

	return quote, nil
}

// Reserves resolves the pair through the factory and reads its current
// reserves, oriented so the In side is tokenIn. Missing pairs, empty
// pools and failed calls all report the venue unavailable.
func (a *Adapter) Reserves(ctx context.Context, tokenIn, tokenOut *asset.Asset) (*domain.Reserves, error) {
	ctx, span := a.tracer.Start(ctx, "uniswapv2.reserves",
		trace.WithAttributes(
			attribute.String("venue", a.venue.Name),
			attribute.String("token_in", tokenIn.Symbol()),
			attribute.String("token_out", tokenOut.Symbol()),
		),
	)
	defer span.End()

	pair, err := a.getPair(ctx, tokenIn.Address(), tokenOut.Address())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if pair == (common.Address{}) {
		span.SetStatus(codes.Error, "pair not deployed")
		return nil, fmt.Errorf("%s %s/%s: no pair: %w", a.venue.Name, tokenIn.Symbol(), tokenOut.Symbol(), domain.ErrUnavailable)
	}

	token0, err := a.pairToken0(ctx, pair)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	reserve0, reserve1, err := a.pairReserves(ctx, pair)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// getReserves reports in token0/token1 order; flip to in/out order.
	reserveIn, reserveOut := reserve0, reserve1
	if token0 != tokenIn.Address() {
		reserveIn, reserveOut = reserve1, reserve0
	}

	if reserveIn.Sign() == 0 || reserveOut.Sign() == 0 {
		span.SetStatus(codes.Error, "empty pool")
		return nil, fmt.Errorf("%s %s/%s: empty pool: %w", a.venue.Name, tokenIn.Symbol(), tokenOut.Symbol(), domain.ErrUnavailable)
	}

	span.SetStatus(codes.Ok, "reserves read")

	return &domain.Reserves{
		Venue:  a.venue,
		In:     asset.NewAmount(tokenIn, reserveIn),
		Out:    asset.NewAmount(tokenOut, reserveOut),
		FeeBps: a.feeBps,
	}, nil
}

func (a *Adapter) getPair(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	out, err := a.call(ctx, a.factory, a.factoryABI, "getPair", tokenA, tokenB)
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

func (a *Adapter) pairToken0(ctx context.Context, pair common.Address) (common.Address, error) {
	out, err := a.call(ctx, pair, a.pairABI, "token0")
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

func (a *Adapter) pairReserves(ctx context.Context, pair common.Address) (*big.Int, *big.Int, error) {
	out, err := a.call(ctx, pair, a.pairABI, "getReserves")
	if err != nil {
		return nil, nil, err
	}
	if len(out) < 2 {
		return nil, nil, fmt.Errorf("unexpected getReserves output length: %d", len(out))
	}
	return out[0].(*big.Int), out[1].(*big.Int), nil
}

func (a *Adapter) call(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...any) ([]any, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	callData, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeContractCallFailed,
			fmt.Sprintf("failed to encode %s for %s", method, a.venue.Name))
	}

	result, err := a.cb.Execute(func() ([]byte, error) {
		return a.client.CallContract(ctx, ethereum.CallMsg{
			To:   &to,
			Data: callData,
		}, nil)
	})
	if err != nil {
		// A revert or RPC failure means this venue cannot be compared
		// right now. Only encode/decode faults are real errors.
		return nil, fmt.Errorf("%s call failed on %s: %v: %w", method, a.venue.Name, err, domain.ErrUnavailable)
	}

	outputs, err := contractABI.Unpack(method, result)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeContractCallFailed,
			fmt.Sprintf("failed to decode %s result from %s", method, a.venue.Name))
	}
	return outputs, nil
}
