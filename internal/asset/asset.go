// Package asset provides a type-safe model for the tokens the bot trades.
// On-chain quantities are big.Int in the token's smallest unit;
// decimal.Decimal appears only at the USD conversion boundary.
package asset

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AssetID uniquely identifies a token by chain and contract address.
// For native coins the address is zero. Identity is never the symbol.
type AssetID struct {
	chainID uint64
	address common.Address
}

// NewNativeAssetID creates an AssetID for a chain's native coin.
func NewNativeAssetID(chainID uint64) AssetID {
	return AssetID{chainID: chainID}
}

// NewTokenAssetID creates an AssetID for an ERC-20 token.
func NewTokenAssetID(chainID uint64, addr common.Address) AssetID {
	if addr == (common.Address{}) {
		panic("asset: token address cannot be zero - use NewNativeAssetID for native coins")
	}
	return AssetID{chainID: chainID, address: addr}
}

// ChainID returns the chain the asset lives on.
func (id AssetID) ChainID() uint64 { return id.chainID }

// Address returns the token contract address (zero for native coins).
func (id AssetID) Address() common.Address { return id.address }

// IsNative returns true for a chain's native coin.
func (id AssetID) IsNative() bool { return id.address == (common.Address{}) }

// Equals compares two AssetIDs.
func (id AssetID) Equals(other AssetID) bool {
	return id.chainID == other.chainID && id.address == other.address
}

func (id AssetID) String() string {
	if id.IsNative() {
		return fmt.Sprintf("chain:%d/native", id.chainID)
	}
	return fmt.Sprintf("chain:%d/%s", id.chainID, id.address.Hex())
}

// Asset is immutable token reference data, loaded once at startup.
type Asset struct {
	id       AssetID
	symbol   string
	name     string
	decimals uint8
	class    Class
}

// NewAsset creates an Asset. Class defaults to ClassAlt when not set
// explicitly via NewClassifiedAsset.
func NewAsset(id AssetID, symbol string, decimals uint8) *Asset {
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if decimals > 30 {
		panic("asset: suspicious decimals (>30)")
	}
	return &Asset{id: id, symbol: symbol, decimals: decimals, class: ClassAlt}
}

// NewClassifiedAsset creates an Asset with an explicit risk class.
func NewClassifiedAsset(id AssetID, symbol, name string, decimals uint8, class Class) *Asset {
	a := NewAsset(id, symbol, decimals)
	a.name = name
	a.class = class
	return a
}

// ID returns the asset's identity.
func (a *Asset) ID() AssetID { return a.id }

// Symbol returns the ticker symbol (e.g., "WETH", "USDC").
func (a *Asset) Symbol() string { return a.symbol }

// Name returns the human-readable name, falling back to the symbol.
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

// Decimals returns the token's decimal precision.
func (a *Asset) Decimals() uint8 { return a.decimals }

// Class returns the risk classification used for spread thresholds.
func (a *Asset) Class() Class { return a.class }

// ChainID returns the chain the asset lives on.
func (a *Asset) ChainID() uint64 { return a.id.ChainID() }

// Address returns the token contract address (zero for native coins).
func (a *Asset) Address() common.Address { return a.id.Address() }

// IsNative returns true for a chain's native coin.
func (a *Asset) IsNative() bool { return a.id.IsNative() }

// Equals compares two Assets by identity.
func (a *Asset) Equals(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.id.Equals(other.id)
}

func (a *Asset) String() string { return a.symbol }
