// Package di contains dependency injection tokens for the risk context.
package di

import (
	"github.com/camsyl/crypto-arbitrage-bot/business/risk/app"
	"github.com/camsyl/crypto-arbitrage-bot/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Breaker = di.NewToken[*app.Breaker]("risk.Breaker")
)

// Private dependency tokens - internal to risk module
var (
	Notifier = di.NewToken[app.Notifier]("risk:notifier")
)

// Helper functions for type-safe access
func GetBreaker(c di.ServiceRegistry) *app.Breaker {
	return di.GetToken(c, Breaker)
}

func GetNotifier(c di.ServiceRegistry) app.Notifier {
	return di.GetToken(c, Notifier)
}
