// Package risk implements the circuit breaker bounded context.
package risk

import (
	"context"

	"github.com/camsyl/crypto-arbitrage-bot/business/risk/app"
	riskDI "github.com/camsyl/crypto-arbitrage-bot/business/risk/di"
	"github.com/camsyl/crypto-arbitrage-bot/business/risk/infra"
	"github.com/camsyl/crypto-arbitrage-bot/internal/config"
	"github.com/camsyl/crypto-arbitrage-bot/internal/di"
	"github.com/camsyl/crypto-arbitrage-bot/internal/logger"
	"github.com/camsyl/crypto-arbitrage-bot/internal/monolith"
)

// Module implements the risk bounded context.
type Module struct{}

// RegisterServices registers all risk services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, riskDI.Notifier, func(sr di.ServiceRegistry) app.Notifier {
		log := sr.Get("logger").(logger.LoggerInterface)
		return infra.NewLogNotifier(log)
	})

	di.RegisterToken(c, riskDI.Breaker, func(sr di.ServiceRegistry) *app.Breaker {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		notifier := riskDI.GetNotifier(sr)

		breaker, err := app.NewBreaker(cfg.Risk, notifier, log)
		if err != nil {
			panic("failed to create circuit breaker: " + err.Error())
		}
		return breaker
	})

	return nil
}

// Startup arms the breaker's daily reset scheduler.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	breaker := riskDI.GetBreaker(mono.Services())
	breaker.StartDailyReset(ctx)

	mono.Logger().Info(ctx, "risk module started")
	return nil
}
