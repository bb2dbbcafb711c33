// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/camsyl/crypto-arbitrage-bot/internal/asset"
)

// Candidate is one opportunity produced by upstream discovery: buy
// TokenB with AmountIn of TokenA on BuyVenue, sell it back on
// SellVenue. Consumed exactly once per scan pass and never persisted.
type Candidate struct {
	ID                uuid.UUID
	TokenA            *asset.Asset
	TokenB            *asset.Asset
	AmountIn          asset.Amount
	BuyVenue          string
	SellVenue         string
	RawProfitEstimate decimal.Decimal // discovery's own estimate, in TokenA units
	DiscoveredAt      time.Time
}

// NewCandidate stamps a candidate with an ID and discovery time.
func NewCandidate(tokenA, tokenB *asset.Asset, amountIn asset.Amount, buyVenue, sellVenue string, rawEstimate decimal.Decimal) *Candidate {
	return &Candidate{
		ID:                uuid.New(),
		TokenA:            tokenA,
		TokenB:            tokenB,
		AmountIn:          amountIn,
		BuyVenue:          buyVenue,
		SellVenue:         sellVenue,
		RawProfitEstimate: rawEstimate,
		DiscoveredAt:      time.Now(),
	}
}

// Validate rejects structurally malformed candidates before any
// network call is spent on them.
func (c *Candidate) Validate() error {
	switch {
	case c.TokenA == nil || c.TokenB == nil:
		return fmt.Errorf("candidate %s: missing token", c.ID)
	case c.TokenA.Equals(c.TokenB):
		return fmt.Errorf("candidate %s: tokenA and tokenB are the same asset", c.ID)
	case !c.AmountIn.IsPositive():
		return fmt.Errorf("candidate %s: non-positive amountIn", c.ID)
	case c.BuyVenue == "":
		return fmt.Errorf("candidate %s: missing buy venue", c.ID)
	case c.SellVenue == "":
		return fmt.Errorf("candidate %s: missing sell venue", c.ID)
	case c.BuyVenue == c.SellVenue:
		return fmt.Errorf("candidate %s: buy and sell venue are the same", c.ID)
	}
	return nil
}

// Pair returns the candidate's pair label, e.g. "WETH/USDC".
func (c *Candidate) Pair() string {
	return c.TokenA.Symbol() + "/" + c.TokenB.Symbol()
}
