package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/camsyl/crypto-arbitrage-bot/business/arbitrage/domain"
	liquidity "github.com/camsyl/crypto-arbitrage-bot/business/liquidity/app"
	liquiditydomain "github.com/camsyl/crypto-arbitrage-bot/business/liquidity/domain"
	market "github.com/camsyl/crypto-arbitrage-bot/business/market/app"
	risk "github.com/camsyl/crypto-arbitrage-bot/business/risk/app"
	"github.com/camsyl/crypto-arbitrage-bot/internal/asset"
	"github.com/camsyl/crypto-arbitrage-bot/internal/logger"
)

const (
	tracerName = "arbitrage"
	meterName  = "arbitrage"
)

type validatorMetrics struct {
	validations metric.Int64Counter
	rejections  metric.Int64Counter
	duration    metric.Float64Histogram
}

// Validator runs the sequential short-circuit pipeline over one
// candidate: breaker, gas gate, depth on both legs, spread
// plausibility, profitability. Cheapest checks come first so most
// invalid candidates never cost an on-chain probe.
type Validator struct {
	breaker  *risk.Breaker
	quotes   *liquidity.QuoteService
	market   *market.MarketService
	depth    *DepthValidator
	spread   *SpreadValidator
	analyzer *CostAnalyzer
	registry *asset.Registry
	log      logger.LoggerInterface

	tracer  trace.Tracer
	metrics *validatorMetrics
}

// NewValidator wires the pipeline.
func NewValidator(
	breaker *risk.Breaker,
	quotes *liquidity.QuoteService,
	marketSvc *market.MarketService,
	depth *DepthValidator,
	spread *SpreadValidator,
	analyzer *CostAnalyzer,
	registry *asset.Registry,
	log logger.LoggerInterface,
) (*Validator, error) {
	v := &Validator{
		breaker:  breaker,
		quotes:   quotes,
		market:   marketSvc,
		depth:    depth,
		spread:   spread,
		analyzer: analyzer,
		registry: registry,
		log:      log,
		tracer:   otel.Tracer(tracerName),
	}
	if err := v.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return v, nil
}

func (v *Validator) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	v.metrics = &validatorMetrics{}

	v.metrics.validations, err = meter.Int64Counter(
		"validations_total",
		metric.WithDescription("Total candidate validations by outcome"),
	)
	if err != nil {
		return err
	}

	v.metrics.rejections, err = meter.Int64Counter(
		"rejections_total",
		metric.WithDescription("Total rejections by reason"),
	)
	if err != nil {
		return err
	}

	v.metrics.duration, err = meter.Float64Histogram(
		"validation_duration_ms",
		metric.WithDescription("Validation pipeline duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// ValidateOpportunity runs the full pipeline on one candidate. It
// never panics outward: an unexpected failure inside any step becomes
// a rejection so a single broken venue cannot kill the scan loop.
func (v *Validator) ValidateOpportunity(ctx context.Context, c *domain.Candidate) (verdict *domain.Verdict) {
	ctx, span := v.tracer.Start(ctx, "arbitrage.validate",
		trace.WithAttributes(
			attribute.String("candidate_id", c.ID.String()),
			attribute.String("pair", c.Pair()),
			attribute.String("buy_venue", c.BuyVenue),
			attribute.String("sell_venue", c.SellVenue),
		),
	)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			v.log.Error(ctx, "validation panicked",
				"candidate_id", c.ID.String(), "panic", fmt.Sprint(r))
			verdict = domain.Reject(domain.ReasonValidationError,
				fmt.Sprintf("validation error: %v", r))
		}

		outcome := "rejected"
		if verdict.Valid {
			outcome = "valid"
		} else {
			v.metrics.rejections.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", verdict.Reason)))
			span.SetAttributes(attribute.String("reject_reason", verdict.Reason))
		}
		v.metrics.validations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
		v.metrics.duration.Record(ctx, float64(time.Since(start).Milliseconds()))
		span.SetAttributes(attribute.Bool("valid", verdict.Valid))
		span.SetStatus(codes.Ok, outcome)
		span.End()
	}()

	if err := c.Validate(); err != nil {
		return domain.Reject(domain.ReasonMalformed, err.Error())
	}

	// 1. Breaker gate.
	if v.breaker.IsTripped(ctx) {
		status := v.breaker.Status(ctx)
		vd := domain.Reject(domain.ReasonBreakerActive,
			fmt.Sprintf("cooldown until %s", status.CooldownUntil.Format(time.RFC3339)))
		vd.BreakerSnapshot = status
		return vd
	}

	// 2. Gas gate.
	gasPrice, err := v.market.GasPrice(ctx)
	if err != nil {
		return domain.Reject(domain.ReasonValidationError,
			fmt.Sprintf("validation error: gas price unavailable: %v", err))
	}
	if v.analyzer.ExceedsGasCeiling(gasPrice) {
		return domain.Reject(domain.ReasonGasPriceTooHigh,
			fmt.Sprintf("%s gwei effective", gasPrice.EffectiveGwei().StringFixed(1)))
	}

	// 3. Depth, buy leg.
	buyAdapter, ok := v.quotes.Adapter(c.BuyVenue)
	if !ok {
		return domain.RejectSide(domain.ReasonNoComparableQuote,
			fmt.Sprintf("venue %s not configured", c.BuyVenue), "buy")
	}
	buyDepth, err := v.depth.CheckDepth(ctx, buyAdapter, c.TokenA, c.TokenB, c.AmountIn, decimal.Zero)
	if err != nil {
		return v.rejectLeg(err, "buy", c.BuyVenue)
	}
	if !buyDepth.Valid {
		vd := domain.RejectSide(buyDepth.Reason, buyDepth.Reason, "buy")
		vd.BuyDepth = buyDepth
		return vd
	}

	// 4. Depth, sell leg, fed by the buy leg's expected output.
	sellAdapter, ok := v.quotes.Adapter(c.SellVenue)
	if !ok {
		return domain.RejectSide(domain.ReasonNoComparableQuote,
			fmt.Sprintf("venue %s not configured", c.SellVenue), "sell")
	}
	sellIn, err := asset.ParseDecimal(c.TokenB, buyDepth.ExpectedOutput)
	if err != nil {
		return domain.Reject(domain.ReasonValidationError,
			fmt.Sprintf("validation error: %v", err))
	}
	sellDepth, err := v.depth.CheckDepth(ctx, sellAdapter, c.TokenB, c.TokenA, sellIn, decimal.Zero)
	if err != nil {
		return v.rejectLeg(err, "sell", c.SellVenue)
	}
	if !sellDepth.Valid {
		vd := domain.RejectSide(sellDepth.Reason, sellDepth.Reason, "sell")
		vd.BuyDepth = buyDepth
		vd.SellDepth = sellDepth
		return vd
	}

	// 5. Spread plausibility on the realized round trip.
	amountInDec := c.AmountIn.ToDecimal()
	spreadPct := decimal.Zero
	if amountInDec.IsPositive() {
		spreadPct = sellDepth.ExpectedOutput.Sub(amountInDec).Div(amountInDec).Mul(decimal.NewFromInt(100))
	}

	priceA, err := v.usdPrice(ctx, c.TokenA)
	if err != nil {
		return domain.Reject(domain.ReasonPriceUnavailable,
			fmt.Sprintf("%s: %v", c.TokenA.Symbol(), err))
	}
	tradeSizeUSD := amountInDec.Mul(priceA)

	buyPrice := decimal.Zero
	if amountInDec.IsPositive() {
		buyPrice = buyDepth.ExpectedOutput.Div(amountInDec)
	}

	spreadRes := v.spread.CheckSpread(ctx, SpreadCheckInput{
		TokenA:       c.TokenA,
		TokenB:       c.TokenB,
		BuyVenue:     c.BuyVenue,
		SellVenue:    c.SellVenue,
		SpreadPct:    spreadPct,
		BuyPrice:     buyPrice,
		TradeSizeUSD: tradeSizeUSD,
	})
	if !spreadRes.Valid {
		vd := domain.Reject(spreadRes.Reason, spreadRes.Reason)
		vd.SpreadPct = spreadPct
		vd.BuyDepth = buyDepth
		vd.SellDepth = sellDepth
		return vd
	}

	// 6. Costs and profitability.
	grossProfitUSD := sellDepth.ExpectedOutput.Sub(amountInDec).Mul(priceA)
	nativeUSD, err := v.market.NativeUSDPrice(ctx, c.TokenA.ChainID())
	if err != nil {
		return domain.Reject(domain.ReasonPriceUnavailable,
			fmt.Sprintf("native coin: %v", err))
	}
	costs, reason := v.analyzer.Analyze(AnalyzeInput{
		GrossProfitUSD:    grossProfitUSD,
		BorrowedAmountUSD: tradeSizeUSD,
		GasPrice:          gasPrice,
		NativeUSD:         nativeUSD,
		MultiHop:          true, // two legs, always
	})
	if reason != "" {
		vd := domain.Reject(reason, reason)
		vd.Costs = costs
		vd.SpreadPct = spreadPct
		vd.BuyDepth = buyDepth
		vd.SellDepth = sellDepth
		return vd
	}

	// 7. All gates passed.
	warnings := append([]string{}, buyDepth.Warnings...)
	warnings = append(warnings, sellDepth.Warnings...)
	warnings = append(warnings, spreadRes.Warnings...)

	vd := domain.Accept(costs, warnings)
	vd.SpreadPct = spreadPct
	vd.BuyDepth = buyDepth
	vd.SellDepth = sellDepth
	return vd
}

// rejectLeg maps a leg failure to the right rejection category: an
// unavailable venue is "cannot compare", anything else is unexpected.
func (v *Validator) rejectLeg(err error, side, venue string) *domain.Verdict {
	if errors.Is(err, liquiditydomain.ErrUnavailable) {
		return domain.RejectSide(domain.ReasonNoComparableQuote,
			fmt.Sprintf("venue %s unavailable: %v", venue, err), side)
	}
	return domain.RejectSide(domain.ReasonValidationError,
		fmt.Sprintf("validation error: %v", err), side)
}

// usdPrice converts a token to USD through the reference feed. A
// stablecoin is taken at par; a missing price is a validation failure,
// not a process error.
func (v *Validator) usdPrice(ctx context.Context, a *asset.Asset) (decimal.Decimal, error) {
	if a.Class() == asset.ClassStablecoin {
		return decimal.NewFromInt(1), nil
	}
	usdc, ok := v.registry.GetBySymbolAndChain("USDC", a.ChainID())
	if !ok {
		usdc = asset.USDC
	}
	ref, err := v.market.ReferencePrice(ctx, a, usdc)
	if err != nil {
		return decimal.Zero, err
	}
	return ref.Mid, nil
}
