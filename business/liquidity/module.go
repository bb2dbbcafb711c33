// Package liquidity implements the venue quoting bounded context.
package liquidity

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/camsyl/crypto-arbitrage-bot/business/liquidity/app"
	liquidityDI "github.com/camsyl/crypto-arbitrage-bot/business/liquidity/di"
	"github.com/camsyl/crypto-arbitrage-bot/business/liquidity/domain"
	"github.com/camsyl/crypto-arbitrage-bot/business/liquidity/infra/curve"
	"github.com/camsyl/crypto-arbitrage-bot/business/liquidity/infra/uniswapv2"
	"github.com/camsyl/crypto-arbitrage-bot/business/liquidity/infra/uniswapv3"
	"github.com/camsyl/crypto-arbitrage-bot/internal/config"
	"github.com/camsyl/crypto-arbitrage-bot/internal/di"
	"github.com/camsyl/crypto-arbitrage-bot/internal/logger"
	"github.com/camsyl/crypto-arbitrage-bot/internal/monolith"
	"github.com/camsyl/crypto-arbitrage-bot/internal/ratelimit"
)

// Module implements the liquidity bounded context.
type Module struct{}

// RegisterServices registers all liquidity services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, liquidityDI.QuoteService, func(sr di.ServiceRegistry) *app.QuoteService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(*ethclient.Client)

		// One limiter shared across venues: the RPC node is the scarce
		// resource, not any single venue.
		limiter := ratelimit.NewWithBurst(
			float64(cfg.Ethereum.RateLimitRPM)/60.0,
			cfg.Ethereum.RequestBurst,
		)

		adapters := make([]app.VenueAdapter, 0, len(cfg.Venues))
		for _, vc := range cfg.Venues {
			adapter, err := buildAdapter(client, vc, limiter, log)
			if err != nil {
				panic("failed to create venue adapter " + vc.Name + ": " + err.Error())
			}
			adapters = append(adapters, adapter)
		}

		return app.NewQuoteService(log, adapters...)
	})

	return nil
}

func buildAdapter(client *ethclient.Client, vc config.VenueConfig, limiter *ratelimit.Limiter, log logger.LoggerInterface) (app.VenueAdapter, error) {
	switch domain.Kind(vc.Kind) {
	case domain.KindConcentratedLiquidity:
		return uniswapv3.New(client, vc, limiter, log)
	case domain.KindStableSwap:
		return curve.New(client, vc, limiter, log)
	default:
		return uniswapv2.New(client, vc, limiter, log)
	}
}

// Startup initializes the liquidity module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	svc := liquidityDI.GetQuoteService(mono.Services())
	mono.Logger().Info(ctx, "liquidity module started", "venues", len(svc.Adapters()))
	return nil
}
