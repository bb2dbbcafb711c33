// Package app contains application services and port definitions for the liquidity context.
package app

import (
	"context"
	"errors"

	"github.com/camsyl/crypto-arbitrage-bot/business/liquidity/domain"
	"github.com/camsyl/crypto-arbitrage-bot/internal/apperror"
	"github.com/camsyl/crypto-arbitrage-bot/internal/asset"
	"github.com/camsyl/crypto-arbitrage-bot/internal/logger"
)

// ErrNoComparableQuotes is returned when every registered venue was
// unavailable for a pair. The caller treats this as "opportunity could
// not be evaluated", not as a validation failure.
var ErrNoComparableQuotes = errors.New("no comparable quotes for pair")

// QuoteService fans a quote request out to every registered venue and
// collects the ones that answered. Unavailable venues are skipped and
// logged; any other error fails the aggregation.
type QuoteService struct {
	adapters []VenueAdapter
	log      logger.LoggerInterface
}

// NewQuoteService creates a QuoteService over the given adapters.
func NewQuoteService(log logger.LoggerInterface, adapters ...VenueAdapter) *QuoteService {
	return &QuoteService{adapters: adapters, log: log}
}

// Adapters returns the registered venue adapters.
func (s *QuoteService) Adapters() []VenueAdapter {
	return s.adapters
}

// Adapter returns the adapter for the named venue, if registered.
func (s *QuoteService) Adapter(venue string) (VenueAdapter, bool) {
	for _, a := range s.adapters {
		if a.Venue().Name == venue {
			return a, true
		}
	}
	return nil, false
}

// QuoteAll collects quotes from every venue that can answer. Venues
// reporting domain.ErrUnavailable are skipped. Returns
// ErrNoComparableQuotes when nothing answered.
func (s *QuoteService) QuoteAll(ctx context.Context, tokenIn, tokenOut *asset.Asset, amountIn asset.Amount) ([]*domain.Quote, error) {
	quotes := make([]*domain.Quote, 0, len(s.adapters))
	for _, a := range s.adapters {
		q, err := a.Quote(ctx, tokenIn, tokenOut, amountIn)
		if err != nil {
			if errors.Is(err, domain.ErrUnavailable) {
				s.log.Warn(ctx, "venue unavailable, skipping",
					"venue", a.Venue().Name,
					"pair", tokenIn.Symbol()+"/"+tokenOut.Symbol(),
					"error", err)
				continue
			}
			return nil, apperror.Wrap(err, apperror.CodeQuoteFailed, "quote from "+a.Venue().Name)
		}
		quotes = append(quotes, q)
	}
	if len(quotes) == 0 {
		return nil, ErrNoComparableQuotes
	}
	return quotes, nil
}

// BestQuote returns the quote with the highest output for amountIn.
func (s *QuoteService) BestQuote(ctx context.Context, tokenIn, tokenOut *asset.Asset, amountIn asset.Amount) (*domain.Quote, error) {
	quotes, err := s.QuoteAll(ctx, tokenIn, tokenOut, amountIn)
	if err != nil {
		return nil, err
	}
	best := quotes[0]
	for _, q := range quotes[1:] {
		if gt, err := best.AmountOut.LessThan(q.AmountOut); err == nil && gt {
			best = q
		}
	}
	return best, nil
}
