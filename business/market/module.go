// Package market implements the market data bounded context: gas
// pricing and the external reference price feed.
package market

import (
	"context"

	"github.com/camsyl/crypto-arbitrage-bot/business/market/app"
	marketDI "github.com/camsyl/crypto-arbitrage-bot/business/market/di"
	"github.com/camsyl/crypto-arbitrage-bot/business/market/infra/binance"
	"github.com/camsyl/crypto-arbitrage-bot/business/market/infra/ethereum"
	"github.com/camsyl/crypto-arbitrage-bot/internal/asset"
	"github.com/camsyl/crypto-arbitrage-bot/internal/config"
	"github.com/camsyl/crypto-arbitrage-bot/internal/di"
	"github.com/camsyl/crypto-arbitrage-bot/internal/logger"
	"github.com/camsyl/crypto-arbitrage-bot/internal/monolith"
)

// Module implements the market bounded context.
type Module struct{}

// RegisterServices registers all market services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, marketDI.GasOracle, func(sr di.ServiceRegistry) app.GasOracle {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		oracleCfg := ethereum.DefaultGasOracleConfig(cfg.Ethereum.HTTPURL)
		if cfg.Ethereum.GasCacheTTL > 0 {
			oracleCfg.CacheTTL = cfg.Ethereum.GasCacheTTL
		}
		oracle, err := ethereum.NewGasOracle(oracleCfg, log)
		if err != nil {
			panic("failed to create gas oracle: " + err.Error())
		}
		return oracle
	})

	di.RegisterToken(c, marketDI.ReferenceSource, func(sr di.ServiceRegistry) app.ReferenceSource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		feedCfg := binance.DefaultFeedConfig(cfg.Reference.Symbols)
		if cfg.Reference.WebSocketURL != "" {
			feedCfg.WebSocketURL = cfg.Reference.WebSocketURL
		}
		if cfg.Reference.HTTPURL != "" {
			feedCfg.HTTPURL = cfg.Reference.HTTPURL
		}
		if cfg.Reference.StaleTimeout > 0 {
			feedCfg.StaleTimeout = cfg.Reference.StaleTimeout
		}
		feed, err := binance.NewFeed(feedCfg, log)
		if err != nil {
			panic("failed to create reference feed: " + err.Error())
		}
		return feed
	})

	di.RegisterToken(c, marketDI.MarketService, func(sr di.ServiceRegistry) *app.MarketService {
		registry := sr.Get("assetRegistry").(*asset.Registry)
		return app.NewMarketService(
			marketDI.GetGasOracle(sr),
			marketDI.GetReferenceSource(sr),
			registry,
		)
	})

	return nil
}

// Startup connects the gas oracle and the reference stream. A feed
// that cannot connect degrades to its HTTP fallback, so connection
// failures here are logged, not fatal.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	oracle := marketDI.GetGasOracle(mono.Services())
	if connector, ok := oracle.(interface{ Connect(context.Context) error }); ok {
		if err := connector.Connect(ctx); err != nil {
			log.Error(ctx, "failed to connect gas oracle", "error", err)
		}
	}

	reference := marketDI.GetReferenceSource(mono.Services())
	if connector, ok := reference.(interface{ Connect(context.Context) error }); ok {
		if err := connector.Connect(ctx); err != nil {
			log.Error(ctx, "failed to connect reference feed", "error", err)
		}
	}

	log.Info(ctx, "market module started")
	return nil
}
