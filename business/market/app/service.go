// Package app contains application services and port definitions for the market context.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/camsyl/crypto-arbitrage-bot/business/market/domain"
	"github.com/camsyl/crypto-arbitrage-bot/internal/asset"
)

// MarketService is the public face of the market context: gas pricing
// and independent reference prices for the validation pipeline.
type MarketService struct {
	oracle    GasOracle
	reference ReferenceSource
	registry  *asset.Registry
}

// NewMarketService creates a MarketService with the given providers.
func NewMarketService(oracle GasOracle, reference ReferenceSource, registry *asset.Registry) *MarketService {
	return &MarketService{
		oracle:    oracle,
		reference: reference,
		registry:  registry,
	}
}

// GasPrice returns the current network gas price.
func (s *MarketService) GasPrice(ctx context.Context) (*domain.GasPrice, error) {
	return s.oracle.GasPrice(ctx)
}

// ReferencePrice returns the off-chain reference price for base/quote.
func (s *MarketService) ReferencePrice(ctx context.Context, base, quote *asset.Asset) (*domain.ReferencePrice, error) {
	return s.reference.Price(ctx, base, quote)
}

// NativeUSDPrice returns the USD price of the chain's native coin,
// needed to express wei-denominated gas costs in dollars.
func (s *MarketService) NativeUSDPrice(ctx context.Context, chainID uint64) (decimal.Decimal, error) {
	native, ok := s.registry.GetNative(chainID)
	if !ok {
		// Gas on every supported chain is priced like mainnet ether.
		native = asset.ETH
	}
	usdc, ok := s.registry.GetBySymbolAndChain("USDC", chainID)
	if !ok {
		usdc = asset.USDC
	}

	ref, err := s.reference.Price(ctx, native, usdc)
	if err != nil {
		return decimal.Zero, err
	}
	return ref.Mid, nil
}
