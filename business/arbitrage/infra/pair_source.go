package infra

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/camsyl/crypto-arbitrage-bot/business/arbitrage/domain"
	liquiditydomain "github.com/camsyl/crypto-arbitrage-bot/business/liquidity/domain"
	"github.com/camsyl/crypto-arbitrage-bot/internal/asset"
	"github.com/camsyl/crypto-arbitrage-bot/internal/config"
)

// PairSource enumerates candidates from static configuration: every
// configured pair crossed with every ordered venue pair. The
// validation pipeline decides which directions are actually worth
// anything; this source just keeps it fed.
type PairSource struct {
	candidates []candidateTemplate
}

type candidateTemplate struct {
	tokenA, tokenB *asset.Asset
	amountIn       asset.Amount
	buyVenue       string
	sellVenue      string
}

// NewPairSource resolves the configured pairs against the registry and
// builds the venue cross product. Unknown symbols are a configuration
// error, not something to silently skip.
func NewPairSource(pairs []config.ScanPairConfig, venues []liquiditydomain.Venue, registry *asset.Registry, chainID uint64) (*PairSource, error) {
	if len(venues) < 2 {
		return nil, fmt.Errorf("pair source needs at least two venues, got %d", len(venues))
	}

	s := &PairSource{}
	for _, p := range pairs {
		tokenA, ok := registry.GetBySymbolAndChain(p.TokenA, chainID)
		if !ok {
			return nil, fmt.Errorf("pair %s/%s: unknown token %q on chain %d", p.TokenA, p.TokenB, p.TokenA, chainID)
		}
		tokenB, ok := registry.GetBySymbolAndChain(p.TokenB, chainID)
		if !ok {
			return nil, fmt.Errorf("pair %s/%s: unknown token %q on chain %d", p.TokenA, p.TokenB, p.TokenB, chainID)
		}
		amountIn, err := asset.ParseString(tokenA, p.AmountIn)
		if err != nil {
			return nil, fmt.Errorf("pair %s/%s: bad amount_in %q: %w", p.TokenA, p.TokenB, p.AmountIn, err)
		}

		for _, buy := range venues {
			for _, sell := range venues {
				if buy.Name == sell.Name {
					continue
				}
				s.candidates = append(s.candidates, candidateTemplate{
					tokenA:    tokenA,
					tokenB:    tokenB,
					amountIn:  amountIn,
					buyVenue:  buy.Name,
					sellVenue: sell.Name,
				})
			}
		}
	}
	return s, nil
}

// Candidates stamps a fresh candidate set. IDs and discovery times are
// new on every pass so verdicts from different passes never collide.
func (s *PairSource) Candidates(context.Context) ([]*domain.Candidate, error) {
	out := make([]*domain.Candidate, 0, len(s.candidates))
	for _, t := range s.candidates {
		out = append(out, domain.NewCandidate(t.tokenA, t.tokenB, t.amountIn, t.buyVenue, t.sellVenue, decimal.Zero))
	}
	return out, nil
}
