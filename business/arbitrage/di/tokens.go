// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/camsyl/crypto-arbitrage-bot/business/arbitrage/app"
	"github.com/camsyl/crypto-arbitrage-bot/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Validator = di.NewToken[*app.Validator]("arbitrage.Validator")
	Scanner   = di.NewToken[*app.Scanner]("arbitrage.Scanner")
)

// Private dependency tokens - internal to arbitrage module
var (
	SpreadHistory   = di.NewToken[app.SpreadHistory]("arbitrage:spreadHistory")
	Reporter        = di.NewToken[app.Reporter]("arbitrage:reporter")
	CandidateSource = di.NewToken[app.CandidateSource]("arbitrage:candidateSource")
)

// Helper functions for type-safe access
func GetValidator(c di.ServiceRegistry) *app.Validator {
	return di.GetToken(c, Validator)
}

func GetScanner(c di.ServiceRegistry) *app.Scanner {
	return di.GetToken(c, Scanner)
}

func GetSpreadHistory(c di.ServiceRegistry) app.SpreadHistory {
	return di.GetToken(c, SpreadHistory)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}

func GetCandidateSource(c di.ServiceRegistry) app.CandidateSource {
	return di.GetToken(c, CandidateSource)
}
