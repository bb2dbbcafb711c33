package app

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camsyl/crypto-arbitrage-bot/business/arbitrage/domain"
	liquiditydomain "github.com/camsyl/crypto-arbitrage-bot/business/liquidity/domain"
	"github.com/camsyl/crypto-arbitrage-bot/internal/asset"
)

// fakeVenue serves quotes and reserves from fixed pool snapshots, keyed
// by "IN>OUT" symbols. With reservesErr set it mimics a venue whose
// depth cannot be inspected.
type fakeVenue struct {
	venue       liquiditydomain.Venue
	pools       map[string]*liquiditydomain.Reserves
	reservesErr error
	quoteErr    error
}

func (f *fakeVenue) Venue() liquiditydomain.Venue { return f.venue }

func (f *fakeVenue) pool(tokenIn, tokenOut *asset.Asset) (*liquiditydomain.Reserves, error) {
	r, ok := f.pools[tokenIn.Symbol()+">"+tokenOut.Symbol()]
	if !ok {
		return nil, fmt.Errorf("fakeVenue %s: no pool for %s>%s: %w",
			f.venue.Name, tokenIn.Symbol(), tokenOut.Symbol(), liquiditydomain.ErrUnavailable)
	}
	return r, nil
}

func (f *fakeVenue) Reserves(_ context.Context, tokenIn, tokenOut *asset.Asset) (*liquiditydomain.Reserves, error) {
	if f.reservesErr != nil {
		return nil, f.reservesErr
	}
	return f.pool(tokenIn, tokenOut)
}

func (f *fakeVenue) Quote(_ context.Context, tokenIn, tokenOut *asset.Asset, amountIn asset.Amount) (*liquiditydomain.Quote, error) {
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	r, err := f.pool(tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}
	return liquiditydomain.NewQuote(f.venue, tokenIn, tokenOut, amountIn, r.AmountOut(amountIn), 3000, 200_000), nil
}

// wethUSDCPool builds a WETH→USDC snapshot with the given whole-token
// reserves.
func wethUSDCPool(venue liquiditydomain.Venue, weth, usdc string, feeBps int) *liquiditydomain.Reserves {
	return &liquiditydomain.Reserves{
		Venue:  venue,
		In:     asset.MustParse(asset.WETH, weth),
		Out:    asset.MustParse(asset.USDC, usdc),
		FeeBps: feeBps,
	}
}

func TestCheckDepth_ReserveRatioGateFlipsOnce(t *testing.T) {
	venue := liquiditydomain.Venue{Name: "pool-a", Kind: liquiditydomain.KindConstantProduct}
	adapter := &fakeVenue{
		venue: venue,
		pools: map[string]*liquiditydomain.Reserves{
			"WETH>USDC": wethUSDCPool(venue, "1000", "3000000", 30),
		},
	}
	// Wide impact ceiling isolates the ratio gate.
	v := NewDepthValidator(5, 50)

	// Growing trade sizes against a 1000 WETH pool: the 5% ratio gate
	// flips exactly once and stays flipped.
	flipped := false
	for _, size := range []string{"10", "40", "50", "60", "200"} {
		res, err := v.CheckDepth(context.Background(), adapter, asset.WETH, asset.USDC, asset.MustParse(asset.WETH, size), decimal.Zero)
		require.NoError(t, err)

		if flipped {
			assert.False(t, res.Valid, "size %s: gate must stay closed once tripped", size)
			continue
		}
		if !res.Valid {
			flipped = true
			assert.True(t, strings.HasPrefix(res.Reason, domain.ReasonInsufficientDepth), "got %q", res.Reason)
		}
	}
	assert.True(t, flipped, "gate never tripped")
}

func TestCheckDepth_PriceImpactGate(t *testing.T) {
	venue := liquiditydomain.Venue{Name: "pool-a", Kind: liquiditydomain.KindConstantProduct}
	adapter := &fakeVenue{
		venue: venue,
		pools: map[string]*liquiditydomain.Reserves{
			"WETH>USDC": wethUSDCPool(venue, "1000", "3000000", 30),
		},
	}
	// Wide ratio ceiling isolates the impact gate.
	v := NewDepthValidator(50, 1)

	// 10 WETH into a 1000 WETH pool moves the price past 1% once the
	// 0.3% fee is counted.
	res, err := v.CheckDepth(context.Background(), adapter, asset.WETH, asset.USDC, asset.MustParse(asset.WETH, "10"), decimal.Zero)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.True(t, strings.HasPrefix(res.Reason, domain.ReasonExcessiveImpact), "got %q", res.Reason)

	// A dust-sized trade clears it.
	res, err = v.CheckDepth(context.Background(), adapter, asset.WETH, asset.USDC, asset.MustParse(asset.WETH, "0.1"), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, res.Valid, "reason: %s", res.Reason)
}

func TestCheckDepth_MinimumOutputGate(t *testing.T) {
	venue := liquiditydomain.Venue{Name: "pool-a", Kind: liquiditydomain.KindConstantProduct}
	adapter := &fakeVenue{
		venue: venue,
		pools: map[string]*liquiditydomain.Reserves{
			"WETH>USDC": wethUSDCPool(venue, "1000", "3000000", 30),
		},
	}
	v := NewDepthValidator(50, 50)
	in := asset.MustParse(asset.WETH, "1")

	// ~2988 USDC comes out; a 3000 floor rejects, a 2900 floor passes.
	res, err := v.CheckDepth(context.Background(), adapter, asset.WETH, asset.USDC, in, decimal.NewFromInt(3000))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.True(t, strings.HasPrefix(res.Reason, domain.ReasonBelowMinOutput), "got %q", res.Reason)

	res, err = v.CheckDepth(context.Background(), adapter, asset.WETH, asset.USDC, in, decimal.NewFromInt(2900))
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestCheckDepth_QuoteFallbackForUninspectableVenues(t *testing.T) {
	venue := liquiditydomain.Venue{Name: "clmm", Kind: liquiditydomain.KindConcentratedLiquidity}
	adapter := &fakeVenue{
		venue:       venue,
		reservesErr: liquiditydomain.ErrReservesUnsupported,
		pools: map[string]*liquiditydomain.Reserves{
			"WETH>USDC": wethUSDCPool(venue, "1000", "3000000", 30),
		},
	}
	v := NewDepthValidator(5, 50)

	res, err := v.CheckDepth(context.Background(), adapter, asset.WETH, asset.USDC, asset.MustParse(asset.WETH, "1"), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, res.Valid, "reason: %s", res.Reason)
	assert.True(t, res.ReserveRatioPct.IsZero(), "ratio is not observable on this venue kind")
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "reserve ratio not observable")
	// The probe-derived impact is small but present for a real pool.
	assert.True(t, res.PriceImpactPct.IsPositive(), "impact %s", res.PriceImpactPct)
}

func TestCheckDepth_UnavailableVenuePropagates(t *testing.T) {
	venue := liquiditydomain.Venue{Name: "pool-a", Kind: liquiditydomain.KindConstantProduct}
	adapter := &fakeVenue{
		venue:       venue,
		reservesErr: fmt.Errorf("pair not listed: %w", liquiditydomain.ErrUnavailable),
		quoteErr:    fmt.Errorf("pair not listed: %w", liquiditydomain.ErrUnavailable),
	}
	v := NewDepthValidator(5, 5)

	// Unavailability is an error for the caller to classify, never a
	// rejection verdict. Asking again gives the same answer.
	for i := 0; i < 2; i++ {
		res, err := v.CheckDepth(context.Background(), adapter, asset.WETH, asset.USDC, asset.MustParse(asset.WETH, "1"), decimal.Zero)
		require.Error(t, err)
		assert.Nil(t, res)
		assert.ErrorIs(t, err, liquiditydomain.ErrUnavailable)
	}
}
