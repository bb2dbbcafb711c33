package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// GasCostUSD converts a gas burn to dollars: wei total via the current
// price, then through the native coin's USD price. This is the single
// place integer on-chain amounts cross into decimal USD math.
func GasCostUSD(gasUnits uint64, gasPriceWei *big.Int, nativeUSD decimal.Decimal) decimal.Decimal {
	totalWei := new(big.Int).Mul(gasPriceWei, new(big.Int).SetUint64(gasUnits))
	eth := decimal.NewFromBigInt(totalWei, -18)
	return eth.Mul(nativeUSD)
}

// CostBreakdown is the full numeric story behind a profitability
// verdict. All figures are USD.
type CostBreakdown struct {
	GrossProfitUSD   decimal.Decimal
	GasCostUSD       decimal.Decimal
	FlashLoanFeeUSD  decimal.Decimal
	NetProfitUSD     decimal.Decimal
	ProfitToGasRatio decimal.Decimal
}

// NewCostBreakdown derives net profit and the profit-to-gas ratio.
func NewCostBreakdown(grossProfitUSD, gasCostUSD, flashLoanFeeUSD decimal.Decimal) *CostBreakdown {
	net := grossProfitUSD.Sub(gasCostUSD).Sub(flashLoanFeeUSD)
	ratio := decimal.Zero
	if !gasCostUSD.IsZero() {
		ratio = net.Div(gasCostUSD)
	}
	return &CostBreakdown{
		GrossProfitUSD:   grossProfitUSD,
		GasCostUSD:       gasCostUSD,
		FlashLoanFeeUSD:  flashLoanFeeUSD,
		NetProfitUSD:     net,
		ProfitToGasRatio: ratio,
	}
}
