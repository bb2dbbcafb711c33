package binance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/camsyl/crypto-arbitrage-bot/internal/apperror"
	"github.com/camsyl/crypto-arbitrage-bot/internal/asset"
	"github.com/camsyl/crypto-arbitrage-bot/internal/logger"
)

func TestSymbolFor(t *testing.T) {
	tests := []struct {
		base, quote string
		want        string
	}{
		{"WETH", "USDC", "ETHUSDC"},
		{"WBTC", "USDT", "BTCUSDT"},
		{"USDC", "USDT", "USDCUSDT"},
	}

	reg := asset.DefaultRegistry()
	for _, tt := range tests {
		base, ok := reg.GetBySymbolAndChain(tt.base, asset.ChainIDEthereum)
		if !ok {
			t.Fatalf("asset %s not in registry", tt.base)
		}
		quote, ok := reg.GetBySymbolAndChain(tt.quote, asset.ChainIDEthereum)
		if !ok {
			t.Fatalf("asset %s not in registry", tt.quote)
		}
		if got := SymbolFor(base, quote); got != tt.want {
			t.Errorf("SymbolFor(%s, %s) = %s, want %s", tt.base, tt.quote, got, tt.want)
		}
	}
}

func TestFeed_StreamMessageUpdatesPrice(t *testing.T) {
	feed, err := NewFeed(DefaultFeedConfig([]string{"ETHUSDC"}), logger.NewNop())
	if err != nil {
		t.Fatalf("failed to create feed: %v", err)
	}

	payload := `{"stream":"ethusdc@bookTicker","data":{"u":400900217,"s":"ETHUSDC","b":"2999.50","B":"31.2","a":"3000.50","A":"40.6"}}`
	feed.handleMessage(context.Background(), []byte(payload))

	ctx := context.Background()
	ref, err := feed.Price(ctx, asset.WETH, asset.USDC)
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}

	if !ref.Mid.Equal(decimal.RequireFromString("3000")) {
		t.Errorf("Mid = %s, want 3000", ref.Mid)
	}
	if ref.Source != "binance" {
		t.Errorf("Source = %s, want binance", ref.Source)
	}
}

func TestFeed_FallbackToHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if symbol := r.URL.Query().Get("symbol"); symbol != "ETHUSDC" {
			t.Errorf("expected symbol ETHUSDC, got %s", symbol)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(RESTBookTicker{
			Symbol:   "ETHUSDC",
			BidPrice: "3400.50",
			BidQty:   "10.5",
			AskPrice: "3401.50",
			AskQty:   "8.0",
		})
	}))
	defer server.Close()

	cfg := FeedConfig{
		HTTPURL:      server.URL,
		Symbols:      []string{"ETHUSDC"},
		StaleTimeout: 50 * time.Millisecond,
	}
	feed, err := NewFeed(cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("failed to create feed: %v", err)
	}

	// No stream connected, so the read must come from REST.
	ref, err := feed.Price(context.Background(), asset.WETH, asset.USDC)
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}

	if !ref.Mid.Equal(decimal.RequireFromString("3401")) {
		t.Errorf("Mid = %s, want 3401", ref.Mid)
	}
}

func TestFeed_DownWhenBothPathsFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := FeedConfig{
		HTTPURL:      server.URL,
		Symbols:      []string{"ETHUSDC"},
		StaleTimeout: 50 * time.Millisecond,
	}
	feed, err := NewFeed(cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("failed to create feed: %v", err)
	}

	_, err = feed.Price(context.Background(), asset.WETH, asset.USDC)
	if err == nil {
		t.Fatal("expected error when both stream and REST are down")
	}
	if apperror.GetCode(err) != apperror.CodeReferenceFeedDown {
		t.Errorf("code = %s, want %s", apperror.GetCode(err), apperror.CodeReferenceFeedDown)
	}
}

func TestFeed_StaleStreamTriggersFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(RESTBookTicker{
			Symbol:   "ETHUSDC",
			BidPrice: "3500.00",
			AskPrice: "3502.00",
		})
	}))
	defer server.Close()

	cfg := FeedConfig{
		HTTPURL:      server.URL,
		Symbols:      []string{"ETHUSDC"},
		StaleTimeout: 10 * time.Millisecond,
	}
	feed, err := NewFeed(cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("failed to create feed: %v", err)
	}

	payload := `{"stream":"ethusdc@bookTicker","data":{"u":1,"s":"ETHUSDC","b":"2999.50","B":"1","a":"3000.50","A":"1"}}`
	feed.handleMessage(context.Background(), []byte(payload))

	time.Sleep(20 * time.Millisecond)

	ref, err := feed.Price(context.Background(), asset.WETH, asset.USDC)
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}
	if !ref.Mid.Equal(decimal.RequireFromString("3501")) {
		t.Errorf("Mid = %s, want 3501 from REST fallback", ref.Mid)
	}
}
