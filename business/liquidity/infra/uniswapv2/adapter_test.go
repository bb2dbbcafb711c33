package uniswapv2

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camsyl/crypto-arbitrage-bot/business/liquidity/domain"
	"github.com/camsyl/crypto-arbitrage-bot/internal/asset"
	"github.com/camsyl/crypto-arbitrage-bot/internal/config"
	"github.com/camsyl/crypto-arbitrage-bot/internal/logger"
	"github.com/camsyl/crypto-arbitrage-bot/internal/ratelimit"
)

// faultyCaller fails every contract call, like a node rejecting the
// request or an eth_call revert.
type faultyCaller struct {
	err error
}

func (c faultyCaller) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, c.err
}

func newTestAdapter(t *testing.T, client ContractCaller) *Adapter {
	t.Helper()
	a, err := New(client, config.VenueConfig{
		Name:           "sushiswap",
		Kind:           config.VenueKindConstantProduct,
		FactoryAddress: "0xC0AEe478e3658e2610c5F7A4A2E1777cE9e4f2Ac",
		FeeBps:         30,
	}, ratelimit.NewWithBurst(1000, 100), logger.NewNop())
	require.NoError(t, err)
	return a
}

func TestReserves_CallFailureReadsUnavailable(t *testing.T) {
	a := newTestAdapter(t, faultyCaller{err: errors.New("execution reverted")})

	res, err := a.Reserves(context.Background(), asset.WETH, asset.USDC)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestQuote_CallFailureReadsUnavailable(t *testing.T) {
	a := newTestAdapter(t, faultyCaller{err: errors.New("connection refused")})

	q, err := a.Quote(context.Background(), asset.WETH, asset.USDC, asset.MustParse(asset.WETH, "1"))
	require.Error(t, err)
	assert.Nil(t, q)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}
