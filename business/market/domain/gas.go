// Package domain contains the core domain types for the market context.
package domain

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

var weiPerGwei = big.NewInt(1_000_000_000)

// GasPrice is one observation of network gas pricing: the suggested
// base price plus the EIP-1559 priority tip. Both are in wei.
type GasPrice struct {
	BaseWei   *big.Int
	TipWei    *big.Int
	Timestamp time.Time
}

// NewGasPrice creates a GasPrice stamped with the current time. A nil
// tip is treated as zero (pre-1559 nodes).
func NewGasPrice(baseWei, tipWei *big.Int) *GasPrice {
	if tipWei == nil {
		tipWei = big.NewInt(0)
	}
	return &GasPrice{
		BaseWei:   new(big.Int).Set(baseWei),
		TipWei:    new(big.Int).Set(tipWei),
		Timestamp: time.Now(),
	}
}

// EffectiveWei returns base + tip, what a transaction actually pays
// per gas unit.
func (g *GasPrice) EffectiveWei() *big.Int {
	return new(big.Int).Add(g.BaseWei, g.TipWei)
}

// EffectiveGwei returns the effective price in gwei.
func (g *GasPrice) EffectiveGwei() decimal.Decimal {
	return decimal.NewFromBigInt(g.EffectiveWei(), 0).Div(decimal.NewFromBigInt(weiPerGwei, 0))
}

// CostWei returns the total wei burned by gasUnits at this price.
func (g *GasPrice) CostWei(gasUnits uint64) *big.Int {
	return new(big.Int).Mul(g.EffectiveWei(), new(big.Int).SetUint64(gasUnits))
}

// CostEther returns the total cost of gasUnits in whole ether.
func (g *GasPrice) CostEther(gasUnits uint64) decimal.Decimal {
	return decimal.NewFromBigInt(g.CostWei(gasUnits), -18)
}
