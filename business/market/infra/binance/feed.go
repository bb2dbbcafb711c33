package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/camsyl/crypto-arbitrage-bot/business/market/app"
	"github.com/camsyl/crypto-arbitrage-bot/business/market/domain"
	"github.com/camsyl/crypto-arbitrage-bot/internal/apperror"
	"github.com/camsyl/crypto-arbitrage-bot/internal/asset"
	"github.com/camsyl/crypto-arbitrage-bot/internal/httpclient"
	"github.com/camsyl/crypto-arbitrage-bot/internal/logger"
	"github.com/camsyl/crypto-arbitrage-bot/internal/wsconn"
)

const (
	tracerName = "market.binance"
	meterName  = "market.binance"

	sourceName = "binance"

	// BaseWSURL is the combined-streams WebSocket endpoint.
	BaseWSURL = "wss://stream.binance.com:9443"
	// BaseAPIURL is the REST endpoint used as fallback.
	BaseAPIURL = "https://api.binance.com"

	bookTickerEndpoint = "/api/v3/ticker/bookTicker"
	httpTimeout        = 5 * time.Second
	defaultStale       = 10 * time.Second
)

// FeedConfig holds configuration for the reference price feed.
type FeedConfig struct {
	WebSocketURL string
	HTTPURL      string
	Symbols      []string // exchange symbols to stream, e.g. ETHUSDC
	StaleTimeout time.Duration
}

// DefaultFeedConfig returns sensible defaults for the given symbols.
func DefaultFeedConfig(symbols []string) FeedConfig {
	return FeedConfig{
		WebSocketURL: BaseWSURL,
		HTTPURL:      BaseAPIURL,
		Symbols:      symbols,
		StaleTimeout: defaultStale,
	}
}

type feedMetrics struct {
	messagesReceived metric.Int64Counter
	parseErrors      metric.Int64Counter
	httpFallbacks    metric.Int64Counter
	staleReads       metric.Int64Counter
}

// Ensure Feed implements the market port.
var _ app.ReferenceSource = (*Feed)(nil)

// Feed streams best bid/ask for the configured symbols and serves them
// as reference prices. A stream gap falls back to one REST call; only
// when both paths fail is the feed reported down.
type Feed struct {
	config FeedConfig
	logger logger.LoggerInterface

	conn   *wsconn.Client
	connMu sync.RWMutex

	http httpclient.Client

	prices   map[string]*domain.ReferencePrice
	pricesMu sync.RWMutex

	tracer  trace.Tracer
	metrics *feedMetrics
}

// NewFeed creates a reference price feed.
func NewFeed(cfg FeedConfig, log logger.LoggerInterface) (*Feed, error) {
	if cfg.WebSocketURL == "" {
		cfg.WebSocketURL = BaseWSURL
	}
	if cfg.HTTPURL == "" {
		cfg.HTTPURL = BaseAPIURL
	}
	if cfg.StaleTimeout == 0 {
		cfg.StaleTimeout = defaultStale
	}

	tracer := otel.Tracer(tracerName)

	httpc, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("binance"),
		httpclient.WithBaseURL(cfg.HTTPURL),
		httpclient.WithRequestTimeout(httpTimeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest, httpclient.TraceResponse),
		httpclient.WithHeaders(map[string]string{
			"Accept": "application/json",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	f := &Feed{
		config: cfg,
		logger: log,
		http:   httpc,
		prices: make(map[string]*domain.ReferencePrice),
		tracer: tracer,
	}

	if err := f.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return f, nil
}

func (f *Feed) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	f.metrics = &feedMetrics{}

	f.metrics.messagesReceived, err = meter.Int64Counter(
		"reference_messages_total",
		metric.WithDescription("Total stream messages received"),
	)
	if err != nil {
		return err
	}

	f.metrics.parseErrors, err = meter.Int64Counter(
		"reference_parse_errors_total",
		metric.WithDescription("Total unparseable stream messages"),
	)
	if err != nil {
		return err
	}

	f.metrics.httpFallbacks, err = meter.Int64Counter(
		"reference_http_fallbacks_total",
		metric.WithDescription("Reads served by the REST fallback"),
	)
	if err != nil {
		return err
	}

	f.metrics.staleReads, err = meter.Int64Counter(
		"reference_stale_total",
		metric.WithDescription("Reads that found only stale stream data"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Connect dials the combined bookTicker stream for all configured symbols.
func (f *Feed) Connect(ctx context.Context) error {
	ctx, span := f.tracer.Start(ctx, "binance.connect",
		trace.WithAttributes(attribute.StringSlice("symbols", f.config.Symbols)),
	)
	defer span.End()

	wsURL, err := f.buildStreamURL()
	if err != nil {
		span.RecordError(err)
		return err
	}

	conn, err := wsconn.New(wsconn.DefaultConfig(wsURL, "binance"))
	if err != nil {
		return apperror.New(apperror.CodeWebSocketConnection,
			apperror.WithCause(err),
			apperror.WithContext("failed to create wsconn"))
	}

	conn.OnMessage(f.handleMessage)

	if err := conn.ConnectWithRetry(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "connect failed")
		return apperror.New(apperror.CodeWebSocketConnection,
			apperror.WithCause(err),
			apperror.WithContext("failed to connect reference feed"))
	}

	f.connMu.Lock()
	f.conn = conn
	f.connMu.Unlock()

	span.SetStatus(codes.Ok, "connected")
	f.logger.Info(ctx, "reference feed connected", "url", wsURL, "symbols", f.config.Symbols)

	return nil
}

func (f *Feed) buildStreamURL() (string, error) {
	if len(f.config.Symbols) == 0 {
		return "", apperror.New(apperror.CodeReferenceFeedDown,
			apperror.WithContext("no reference symbols configured"))
	}

	streams := make([]string, 0, len(f.config.Symbols))
	for _, sym := range f.config.Symbols {
		streams = append(streams, BookTickerStream(sym))
	}

	u, err := url.Parse(f.config.WebSocketURL)
	if err != nil {
		return "", err
	}
	u.Path = "/stream"
	u.RawQuery = "streams=" + strings.Join(streams, "/")

	return u.String(), nil
}

func (f *Feed) handleMessage(ctx context.Context, data []byte) {
	f.metrics.messagesReceived.Add(ctx, 1)

	var event StreamEvent
	if err := json.Unmarshal(data, &event); err != nil {
		var resp WSResponse
		if json.Unmarshal(data, &resp) == nil {
			return // subscription confirmation
		}
		f.metrics.parseErrors.Add(ctx, 1)
		return
	}

	var ticker BookTickerEvent
	if err := json.Unmarshal(event.Data, &ticker); err != nil {
		f.metrics.parseErrors.Add(ctx, 1)
		return
	}
	if ticker.Symbol == "" {
		return
	}

	f.storeTicker(ticker.Symbol, ticker.BidPrice, ticker.AskPrice)
}

func (f *Feed) storeTicker(symbol, bidStr, askStr string) {
	bid, err := decimal.NewFromString(bidStr)
	if err != nil {
		return
	}
	ask, err := decimal.NewFromString(askStr)
	if err != nil {
		return
	}
	if bid.IsZero() && ask.IsZero() {
		return
	}

	ref := &domain.ReferencePrice{
		Symbol:    symbol,
		Mid:       bid.Add(ask).Div(decimal.NewFromInt(2)),
		Bid:       bid,
		Ask:       ask,
		Source:    sourceName,
		Timestamp: time.Now(),
	}

	f.pricesMu.Lock()
	f.prices[symbol] = ref
	f.pricesMu.Unlock()
}

// Price returns the current reference price for base/quote. Fresh
// stream data wins; otherwise one REST call is attempted before the
// feed is reported down.
func (f *Feed) Price(ctx context.Context, base, quote *asset.Asset) (*domain.ReferencePrice, error) {
	symbol := SymbolFor(base, quote)

	ctx, span := f.tracer.Start(ctx, "binance.price",
		trace.WithAttributes(attribute.String("symbol", symbol)),
	)
	defer span.End()

	f.pricesMu.RLock()
	ref := f.prices[symbol]
	f.pricesMu.RUnlock()

	if ref != nil && !ref.IsStale(f.config.StaleTimeout) {
		span.SetStatus(codes.Ok, "stream")
		return ref, nil
	}
	if ref != nil {
		f.metrics.staleReads.Add(ctx, 1)
		span.AddEvent("stream_stale")
	}

	f.metrics.httpFallbacks.Add(ctx, 1)

	fresh, err := f.fetchTicker(ctx, symbol)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "feed down")
		return nil, apperror.New(apperror.CodeReferenceFeedDown,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("no reference price for %s", symbol)))
	}

	f.storeTicker(fresh.Symbol, fresh.BidPrice, fresh.AskPrice)

	f.pricesMu.RLock()
	ref = f.prices[symbol]
	f.pricesMu.RUnlock()

	if ref == nil {
		return nil, apperror.New(apperror.CodeReferenceFeedDown,
			apperror.WithContext(fmt.Sprintf("unparseable reference price for %s", symbol)))
	}

	span.SetStatus(codes.Ok, "rest")
	return ref, nil
}

func (f *Feed) fetchTicker(ctx context.Context, symbol string) (*RESTBookTicker, error) {
	var result RESTBookTicker
	resp, err := f.http.NewRequestWithOptions(
		httpclient.WithLabels(
			httpclient.NewLabel("endpoint", "bookTicker"),
			httpclient.NewLabel("symbol", symbol),
		),
	).
		SetQueryParam("symbol", symbol).
		SetResult(&result).
		Get(ctx, bookTickerEndpoint)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.String())
	}
	return &result, nil
}

// Close shuts the stream down.
func (f *Feed) Close() error {
	f.connMu.Lock()
	defer f.connMu.Unlock()

	if f.conn != nil {
		err := f.conn.Close()
		f.conn = nil
		return err
	}
	return nil
}

// IsConnected reports whether the stream is up.
func (f *Feed) IsConnected() bool {
	f.connMu.RLock()
	defer f.connMu.RUnlock()
	return f.conn != nil && f.conn.IsConnected()
}

// SymbolFor maps an asset pair to Binance's symbol convention. Wrapped
// tokens trade under their underlying symbol.
func SymbolFor(base, quote *asset.Asset) string {
	return exchangeSymbol(base) + exchangeSymbol(quote)
}

func exchangeSymbol(a *asset.Asset) string {
	s := strings.ToUpper(a.Symbol())
	switch s {
	case "WETH":
		return "ETH"
	case "WBTC":
		return "BTC"
	}
	return s
}
