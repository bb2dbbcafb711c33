package domain

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/camsyl/crypto-arbitrage-bot/internal/asset"
)

func makeReserves(t *testing.T, in, out string, feeBps int) *Reserves {
	t.Helper()
	return &Reserves{
		Venue:  Venue{Name: "test-pool", Kind: KindConstantProduct},
		In:     asset.MustParse(asset.WETH, in),
		Out:    asset.MustParse(asset.USDC, out),
		FeeBps: feeBps,
	}
}

func TestReserves_AmountOut(t *testing.T) {
	tests := []struct {
		name      string
		reserveIn string
		reserveOut string
		feeBps    int
		amountIn  string
		wantOutNear string // whole-token, checked within tolerance
	}{
		{
			// 1000 WETH / 3,000,000 USDC pool at 0.30%:
			// out = 1*9970*3000000 / (1000*10000 + 9970) ≈ 2988.03
			name: "small_trade_near_spot", reserveIn: "1000", reserveOut: "3000000",
			feeBps: 30, amountIn: "1", wantOutNear: "2988.03",
		},
		{
			// 10% of the pool moves the price hard:
			// out = 100*9970*3000000 / (1000*10000 + 100*9970) ≈ 272034
			name: "large_trade_heavy_slippage", reserveIn: "1000", reserveOut: "3000000",
			feeBps: 30, amountIn: "100", wantOutNear: "272034",
		},
		{
			name: "zero_fee", reserveIn: "1000", reserveOut: "3000000",
			feeBps: 0, amountIn: "1", wantOutNear: "2997.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := makeReserves(t, tt.reserveIn, tt.reserveOut, tt.feeBps)
			out := r.AmountOut(asset.MustParse(asset.WETH, tt.amountIn))

			want := decimal.RequireFromString(tt.wantOutNear)
			got := out.ToDecimal()
			tolerance := want.Mul(decimal.NewFromFloat(0.001))
			if got.Sub(want).Abs().GreaterThan(tolerance) {
				t.Errorf("AmountOut = %s, want ~%s", got, want)
			}
		})
	}
}

func TestReserves_AmountOut_ZeroCases(t *testing.T) {
	r := makeReserves(t, "1000", "3000000", 30)

	if !r.AmountOut(asset.Zero(asset.WETH)).IsZero() {
		t.Error("zero input should produce zero output")
	}

	empty := makeReserves(t, "0", "0", 30)
	if !empty.AmountOut(asset.MustParse(asset.WETH, "1")).IsZero() {
		t.Error("empty pool should produce zero output")
	}
}

func TestReserves_PriceImpactMonotonic(t *testing.T) {
	r := makeReserves(t, "1000", "3000000", 30)

	sizes := []string{"0.1", "1", "10", "50", "100", "500"}
	prev := decimal.NewFromInt(-1)
	for _, size := range sizes {
		impact := r.PriceImpactPct(asset.MustParse(asset.WETH, size))
		if impact.LessThan(prev) {
			t.Fatalf("price impact not monotonic: %s at size %s < previous %s", impact, size, prev)
		}
		prev = impact
	}
}

func TestReserves_ReserveRatioPct(t *testing.T) {
	r := makeReserves(t, "1000", "3000000", 30)

	ratio := r.ReserveRatioPct(asset.MustParse(asset.WETH, "50"))
	if !ratio.Equal(decimal.NewFromInt(5)) {
		t.Errorf("ReserveRatioPct = %s, want 5", ratio)
	}
}

func TestReserves_SpotPrice(t *testing.T) {
	r := makeReserves(t, "1000", "3000000", 30)

	if !r.SpotPrice().Equal(decimal.NewFromInt(3000)) {
		t.Errorf("SpotPrice = %s, want 3000", r.SpotPrice())
	}
}
