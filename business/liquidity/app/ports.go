// Package app contains application services and port definitions for the liquidity context.
package app

import (
	"context"

	"github.com/camsyl/crypto-arbitrage-bot/business/liquidity/domain"
	"github.com/camsyl/crypto-arbitrage-bot/internal/asset"
)

// VenueAdapter is the port every quoting venue implements. Adapters
// return domain.ErrUnavailable (possibly wrapped) when the venue
// cannot be compared right now, so the caller can skip it without
// failing the whole aggregation.
type VenueAdapter interface {
	// Quote prices a swap of amountIn tokenIn for tokenOut on this venue.
	Quote(ctx context.Context, tokenIn, tokenOut *asset.Asset, amountIn asset.Amount) (*domain.Quote, error)

	// Reserves returns a depth snapshot for the pair, oriented so the
	// input side is tokenIn. Venues without inspectable reserves return
	// domain.ErrReservesUnsupported.
	Reserves(ctx context.Context, tokenIn, tokenOut *asset.Asset) (*domain.Reserves, error)

	// Venue identifies the adapter.
	Venue() domain.Venue
}
