package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camsyl/crypto-arbitrage-bot/business/liquidity/domain"
	"github.com/camsyl/crypto-arbitrage-bot/internal/asset"
	"github.com/camsyl/crypto-arbitrage-bot/internal/logger"
)

type fakeAdapter struct {
	venue     domain.Venue
	amountOut string
	err       error
}

func (f *fakeAdapter) Quote(ctx context.Context, tokenIn, tokenOut *asset.Asset, amountIn asset.Amount) (*domain.Quote, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := asset.MustParse(tokenOut, f.amountOut)
	return domain.NewQuote(f.venue, tokenIn, tokenOut, amountIn, out, 30, 120_000), nil
}

func (f *fakeAdapter) Reserves(ctx context.Context, tokenIn, tokenOut *asset.Asset) (*domain.Reserves, error) {
	return nil, domain.ErrReservesUnsupported
}

func (f *fakeAdapter) Venue() domain.Venue { return f.venue }

func venue(name string) domain.Venue {
	return domain.Venue{Name: name, Kind: domain.KindConstantProduct}
}

func TestQuoteService_SkipsUnavailableVenues(t *testing.T) {
	svc := NewQuoteService(logger.NewNop(),
		&fakeAdapter{venue: venue("pool-a"), amountOut: "3000"},
		&fakeAdapter{venue: venue("pool-b"), err: fmt.Errorf("no pair: %w", domain.ErrUnavailable)},
		&fakeAdapter{venue: venue("pool-c"), amountOut: "2990"},
	)

	quotes, err := svc.QuoteAll(context.Background(), asset.WETH, asset.USDC, asset.MustParse(asset.WETH, "1"))
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "pool-a", quotes[0].Venue.Name)
	assert.Equal(t, "pool-c", quotes[1].Venue.Name)
}

func TestQuoteService_AllUnavailable(t *testing.T) {
	svc := NewQuoteService(logger.NewNop(),
		&fakeAdapter{venue: venue("pool-a"), err: domain.ErrUnavailable},
		&fakeAdapter{venue: venue("pool-b"), err: domain.ErrUnavailable},
	)

	_, err := svc.QuoteAll(context.Background(), asset.WETH, asset.USDC, asset.MustParse(asset.WETH, "1"))
	assert.ErrorIs(t, err, ErrNoComparableQuotes)
}

func TestQuoteService_HardErrorFailsAggregation(t *testing.T) {
	svc := NewQuoteService(logger.NewNop(),
		&fakeAdapter{venue: venue("pool-a"), amountOut: "3000"},
		&fakeAdapter{venue: venue("pool-b"), err: errors.New("rpc: connection refused")},
	)

	_, err := svc.QuoteAll(context.Background(), asset.WETH, asset.USDC, asset.MustParse(asset.WETH, "1"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoComparableQuotes)
}

func TestQuoteService_BestQuote(t *testing.T) {
	svc := NewQuoteService(logger.NewNop(),
		&fakeAdapter{venue: venue("pool-a"), amountOut: "2990"},
		&fakeAdapter{venue: venue("pool-b"), amountOut: "3010"},
		&fakeAdapter{venue: venue("pool-c"), amountOut: "3000"},
	)

	best, err := svc.BestQuote(context.Background(), asset.WETH, asset.USDC, asset.MustParse(asset.WETH, "1"))
	require.NoError(t, err)
	assert.Equal(t, "pool-b", best.Venue.Name)
}
