package monolith

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camsyl/crypto-arbitrage-bot/internal/config"
	"github.com/camsyl/crypto-arbitrage-bot/internal/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Ethereum: config.EthereumConfig{
			HTTPURL: "http://localhost:8545",
			ChainID: 1,
		},
	}
}

func TestNew_RegistersConfiguredTokens(t *testing.T) {
	cfg := testConfig()
	cfg.Tokens = []config.TokenConfig{
		{
			Symbol:   "LINK",
			Name:     "Chainlink",
			Address:  "0x514910771AF9Ca656af840dff83E8264EcF986CA",
			Decimals: 18,
			Class:    "alt",
		},
	}

	mono, err := New(cfg, logger.NewNop())
	require.NoError(t, err)
	defer mono.Close()

	link, ok := mono.AssetRegistry().GetBySymbolAndChain("LINK", 1)
	require.True(t, ok, "config-declared token must resolve")
	assert.Equal(t, uint8(18), link.Decimals())

	// Well-known defaults survive alongside configured tokens.
	_, ok = mono.AssetRegistry().GetBySymbolAndChain("WETH", 1)
	assert.True(t, ok)
}

func TestNew_RejectsBadTokenAddress(t *testing.T) {
	cfg := testConfig()
	cfg.Tokens = []config.TokenConfig{
		{Symbol: "BAD", Address: "not-an-address", Decimals: 18},
	}

	_, err := New(cfg, logger.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid address")
}
