package curve

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

type faultyCaller struct {
	err error
}

func (c faultyCaller) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, c.err
}

func newTestAdapter(t *testing.T, client ContractCaller) *Adapter {
	t.Helper()
	a, err := New(client, config.VenueConfig{
		Name:        "curve-3pool",
		Kind:        config.VenueKindStableSwap,
		PoolAddress: "0xbEbc44782C7dB0a1A60Cb6fe97d0b483032FF1C7",
		Coins:       []string{"DAI", "USDC", "USDT"},
		FeeBps:      4,
	}, ratelimit.NewWithBurst(1000, 100), logger.NewNop())
	require.NoError(t, err)
	return a
}

func TestQuote_CallFailureReadsUnavailable(t *testing.T) {
	a := newTestAdapter(t, faultyCaller{err: errors.New("execution reverted")})

	q, err := a.Quote(context.Background(), asset.USDC, asset.USDT, asset.MustParse(asset.USDC, "1000"))
	require.Error(t, err)
	assert.Nil(t, q)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestReserves_CallFailureReadsUnavailable(t *testing.T) {
	a := newTestAdapter(t, faultyCaller{err: errors.New("connection refused")})

	res, err := a.Reserves(context.Background(), asset.USDC, asset.USDT)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestQuote_PairOutsidePoolIsUnavailable(t *testing.T) {
	a := newTestAdapter(t, faultyCaller{err: errors.New("should not be called")})

	_, err := a.Quote(context.Background(), asset.WETH, asset.USDC, asset.MustParse(asset.WETH, "1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}
