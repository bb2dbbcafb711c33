package infra

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	liquiditydomain "github.com/camsyl/crypto-arbitrage-bot/business/liquidity/domain"
	"github.com/camsyl/crypto-arbitrage-bot/internal/asset"
	"github.com/camsyl/crypto-arbitrage-bot/internal/config"
)

var testVenues = []liquiditydomain.Venue{
	{Name: "uniswap-v3", Kind: liquiditydomain.KindConcentratedLiquidity},
	{Name: "sushiswap", Kind: liquiditydomain.KindConstantProduct},
}

func TestNewPairSource_ConfiguredTokenResolves(t *testing.T) {
	registry, err := asset.BuildRegistry(1, []asset.TokenSpec{
		{
			Symbol:   "LINK",
			Name:     "Chainlink",
			Address:  "0x514910771AF9Ca656af840dff83E8264EcF986CA",
			Decimals: 18,
			Class:    "alt",
		},
	})
	require.NoError(t, err)

	pairs := []config.ScanPairConfig{
		{TokenA: "LINK", TokenB: "USDC", AmountIn: "100"},
	}

	source, err := NewPairSource(pairs, testVenues, registry, 1)
	require.NoError(t, err)

	candidates, err := source.Candidates(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 2) // both venue directions

	for _, c := range candidates {
		assert.Equal(t, "LINK", c.TokenA.Symbol())
		assert.Equal(t, "USDC", c.TokenB.Symbol())
	}
}

func TestNewPairSource_UnknownTokenFails(t *testing.T) {
	pairs := []config.ScanPairConfig{
		{TokenA: "NOPE", TokenB: "USDC", AmountIn: "1"},
	}

	_, err := NewPairSource(pairs, testVenues, asset.DefaultRegistry(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown token")
}
