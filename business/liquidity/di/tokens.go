// Package di contains dependency injection tokens for the liquidity context.
package di

import (
	"github.com/camsyl/crypto-arbitrage-bot/business/liquidity/app"
	"github.com/camsyl/crypto-arbitrage-bot/internal/di"
)

// Public service tokens - exposed to other modules
var (
	QuoteService = di.NewToken[*app.QuoteService]("liquidity.QuoteService")
)

// Helper functions for type-safe access
func GetQuoteService(c di.ServiceRegistry) *app.QuoteService {
	return di.GetToken(c, QuoteService)
}
