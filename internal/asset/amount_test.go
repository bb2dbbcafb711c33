package asset

import (
	"math/big"
	"testing"
)

func TestParseDecimal_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		asset   *Asset
		input   string
		wantRaw string
		wantErr bool
	}{
		{"one_weth", WETH, "1", "1000000000000000000", false},
		{"fraction_weth", WETH, "0.5", "500000000000000000", false},
		{"usdc_six_decimals", USDC, "3000", "3000000000", false},
		{"usdc_smallest_unit", USDC, "0.000001", "1", false},
		{"wbtc_eight_decimals", WBTC, "0.1", "10000000", false},
		{"zero", WETH, "0", "0", false},
		{"too_precise_for_usdc", USDC, "0.0000001", "", true},
		{"negative", WETH, "-1", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseString(tt.asset, tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseString(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			want, _ := new(big.Int).SetString(tt.wantRaw, 10)
			if got.Raw().Cmp(want) != 0 {
				t.Errorf("Raw = %s, want %s", got.Raw(), want)
			}
			if got.ToDecimal().String() != trimZeros(tt.input) {
				t.Errorf("ToDecimal = %s, want %s", got.ToDecimal(), tt.input)
			}
		})
	}
}

// trimZeros normalizes expected decimal strings the way decimal renders them.
func trimZeros(s string) string {
	if s == "0" {
		return "0"
	}
	return s
}

func TestAmount_ArithmeticSameAssetOnly(t *testing.T) {
	one := MustParse(WETH, "1")
	half := MustParse(WETH, "0.5")
	usdc := MustParse(USDC, "100")

	sum, err := one.Add(half)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if sum.ToDecimal().String() != "1.5" {
		t.Errorf("Add = %s, want 1.5", sum.ToDecimal())
	}

	diff, err := one.Sub(half)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if diff.ToDecimal().String() != "0.5" {
		t.Errorf("Sub = %s, want 0.5", diff.ToDecimal())
	}

	if _, err := one.Add(usdc); err == nil {
		t.Error("Add across assets should fail")
	}
	if _, err := half.Sub(one); err == nil {
		t.Error("Sub below zero should fail")
	}
}

func TestAmount_Cmp(t *testing.T) {
	small := MustParse(USDC, "1")
	large := MustParse(USDC, "2")

	cmp, err := small.Cmp(large)
	if err != nil || cmp != -1 {
		t.Errorf("Cmp = %d, %v; want -1, nil", cmp, err)
	}

	less, err := small.LessThan(large)
	if err != nil || !less {
		t.Errorf("LessThan = %v, %v; want true, nil", less, err)
	}

	if !small.Equals(MustParse(USDC, "1")) {
		t.Error("Equals should hold for same asset and value")
	}
	if small.Equals(MustParse(USDT, "1")) {
		t.Error("Equals should fail across assets")
	}
}

func TestNewAmount_DefensiveCopy(t *testing.T) {
	raw := big.NewInt(1000)
	a := NewAmount(USDC, raw)
	raw.SetInt64(9999)
	if a.Raw().Int64() != 1000 {
		t.Errorf("Amount mutated through caller's big.Int: %s", a.Raw())
	}
}

func TestClassifyPair(t *testing.T) {
	tests := []struct {
		name string
		a, b *Asset
		want PairClass
	}{
		{"stable_stable", USDC, USDT, PairStable},
		{"stable_dai", DAI, USDC, PairStable},
		{"major_major", WETH, WBTC, PairMajor},
		{"major_stable", WETH, USDC, PairMajor},
		{"alt_major", newAltToken(), WETH, PairDefault},
		{"alt_stable", newAltToken(), USDC, PairDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyPair(tt.a, tt.b); got != tt.want {
				t.Errorf("ClassifyPair = %v, want %v", got, tt.want)
			}
		})
	}
}

func newAltToken() *Asset {
	addr := AddrWETHEthereum
	addr[19] ^= 0xff
	return NewClassifiedAsset(NewTokenAssetID(ChainIDEthereum, addr), "SHIB", "Shiba", 18, ClassAlt)
}
