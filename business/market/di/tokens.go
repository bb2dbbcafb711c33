// Package di contains dependency injection tokens for the market context.
package di

import (
	"github.com/camsyl/crypto-arbitrage-bot/business/market/app"
	"github.com/camsyl/crypto-arbitrage-bot/internal/di"
)

// Public service tokens - exposed to other modules
var (
	MarketService = di.NewToken[*app.MarketService]("market.MarketService")
)

// Private dependency tokens - internal to market module
var (
	GasOracle       = di.NewToken[app.GasOracle]("market:gasOracle")
	ReferenceSource = di.NewToken[app.ReferenceSource]("market:referenceSource")
)

// Helper functions for type-safe access
func GetMarketService(c di.ServiceRegistry) *app.MarketService {
	return di.GetToken(c, MarketService)
}

func GetGasOracle(c di.ServiceRegistry) app.GasOracle {
	return di.GetToken(c, GasOracle)
}

func GetReferenceSource(c di.ServiceRegistry) app.ReferenceSource {
	return di.GetToken(c, ReferenceSource)
}
