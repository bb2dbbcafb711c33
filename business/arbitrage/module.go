// Package arbitrage implements the opportunity validation bounded
// context: the pipeline that decides whether a discovered candidate is
// worth executing.
package arbitrage

import (
	"context"

	"github.com/camsyl/crypto-arbitrage-bot/business/arbitrage/app"
	arbitrageDI "github.com/camsyl/crypto-arbitrage-bot/business/arbitrage/di"
	"github.com/camsyl/crypto-arbitrage-bot/business/arbitrage/infra"
	"github.com/camsyl/crypto-arbitrage-bot/business/arbitrage/infra/history"
	liquidityDI "github.com/camsyl/crypto-arbitrage-bot/business/liquidity/di"
	liquiditydomain "github.com/camsyl/crypto-arbitrage-bot/business/liquidity/domain"
	marketDI "github.com/camsyl/crypto-arbitrage-bot/business/market/di"
	riskDI "github.com/camsyl/crypto-arbitrage-bot/business/risk/di"
	"github.com/camsyl/crypto-arbitrage-bot/internal/asset"
	"github.com/camsyl/crypto-arbitrage-bot/internal/config"
	"github.com/camsyl/crypto-arbitrage-bot/internal/di"
	"github.com/camsyl/crypto-arbitrage-bot/internal/logger"
	"github.com/camsyl/crypto-arbitrage-bot/internal/monolith"
)

// Module implements the arbitrage bounded context. It depends on the
// liquidity, market, and risk modules being registered first.
type Module struct{}

// RegisterServices registers all arbitrage services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, arbitrageDI.SpreadHistory, func(sr di.ServiceRegistry) app.SpreadHistory {
		cfg := sr.Get("config").(*config.Config)

		path := cfg.Validation.HistoryPath
		if path == "" {
			path = "spreads.db"
		}
		store, err := history.NewSQLiteHistory(path)
		if err != nil {
			panic("failed to open spread history: " + err.Error())
		}
		return store
	})

	di.RegisterToken(c, arbitrageDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		return infra.NewConsoleReporter()
	})

	di.RegisterToken(c, arbitrageDI.CandidateSource, func(sr di.ServiceRegistry) app.CandidateSource {
		cfg := sr.Get("config").(*config.Config)
		registry := sr.Get("assetRegistry").(*asset.Registry)
		quotes := liquidityDI.GetQuoteService(sr)

		venues := make([]liquiditydomain.Venue, 0, len(quotes.Adapters()))
		for _, adapter := range quotes.Adapters() {
			venues = append(venues, adapter.Venue())
		}

		source, err := infra.NewPairSource(cfg.Scanner.Pairs, venues, registry, cfg.Ethereum.ChainID)
		if err != nil {
			panic("failed to create candidate source: " + err.Error())
		}
		return source
	})

	di.RegisterToken(c, arbitrageDI.Validator, func(sr di.ServiceRegistry) *app.Validator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		depth := app.NewDepthValidator(cfg.Validation.MaxReserveRatioPct, cfg.Validation.MaxPriceImpactPct)
		spread := app.NewSpreadValidator(
			cfg.Validation,
			arbitrageDI.GetSpreadHistory(sr),
			marketDI.GetReferenceSource(sr),
			log,
		)
		analyzer := app.NewCostAnalyzer(cfg.Validation)

		validator, err := app.NewValidator(
			riskDI.GetBreaker(sr),
			liquidityDI.GetQuoteService(sr),
			marketDI.GetMarketService(sr),
			depth,
			spread,
			analyzer,
			registry,
			log,
		)
		if err != nil {
			panic("failed to create validator: " + err.Error())
		}
		return validator
	})

	di.RegisterToken(c, arbitrageDI.Scanner, func(sr di.ServiceRegistry) *app.Scanner {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		// No settlement executor is wired yet; the scanner reports
		// verdicts and execution stays disabled.
		return app.NewScanner(
			arbitrageDI.GetCandidateSource(sr),
			arbitrageDI.GetValidator(sr),
			nil,
			arbitrageDI.GetReporter(sr),
			riskDI.GetBreaker(sr),
			cfg.Scanner.Interval,
			cfg.Scanner.ExecuteEnabled,
			log,
		)
	})

	return nil
}

// Startup initializes the arbitrage module. The scan loop itself is
// driven by the caller, not here, so shutdown ordering stays with main.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "arbitrage module started",
		"execute_enabled", mono.Config().Scanner.ExecuteEnabled)
	return nil
}
