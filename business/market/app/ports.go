// Package app contains application services and port definitions for the market context.
package app

import (
	"context"

	"github.com/camsyl/crypto-arbitrage-bot/business/market/domain"
	"github.com/camsyl/crypto-arbitrage-bot/internal/asset"
)

// GasOracle provides current network gas pricing.
type GasOracle interface {
	// GasPrice returns the current suggested base price and tip.
	GasPrice(ctx context.Context) (*domain.GasPrice, error)
}

// ReferenceSource provides an independent off-chain price for a pair.
// Implementations return a wrapped apperror.CodeReferenceFeedDown when
// the feed cannot answer; callers decide whether that degrades or
// fails their check.
type ReferenceSource interface {
	// Price returns the current reference price for base/quote.
	Price(ctx context.Context, base, quote *asset.Asset) (*domain.ReferencePrice, error)
}
