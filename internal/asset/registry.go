package asset

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Registry is a thread-safe registry of known assets. It is populated
// once from configuration at startup and read-only afterwards.
type Registry struct {
	byID     map[AssetID]*Asset
	bySymbol map[string][]*Asset // same symbol can exist on multiple chains
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:     make(map[AssetID]*Asset),
		bySymbol: make(map[string][]*Asset),
	}
}

// Register adds an asset. Panics on a duplicate ID: token reference data
// is startup configuration and a duplicate is a config error.
func (r *Registry) Register(a *Asset) {
	if a == nil {
		panic("asset: cannot register nil asset")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := a.ID()
	if _, exists := r.byID[id]; exists {
		panic(fmt.Sprintf("asset: %s already registered", id))
	}
	r.byID[id] = a
	r.bySymbol[a.Symbol()] = append(r.bySymbol[a.Symbol()], a)
}

// Get retrieves an asset by ID.
func (r *Registry) Get(id AssetID) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	return a, ok
}

// GetBySymbolAndChain retrieves an asset by symbol and chain.
func (r *Registry) GetBySymbolAndChain(symbol string, chainID uint64) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.bySymbol[symbol] {
		if a.ChainID() == chainID {
			return a, true
		}
	}
	return nil, false
}

// GetToken retrieves a token by chain and contract address.
func (r *Registry) GetToken(chainID uint64, address common.Address) (*Asset, bool) {
	return r.Get(NewTokenAssetID(chainID, address))
}

// GetNative retrieves the native coin for a chain.
func (r *Registry) GetNative(chainID uint64) (*Asset, bool) {
	return r.Get(NewNativeAssetID(chainID))
}

// All returns all registered assets.
func (r *Registry) All() []*Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Asset, 0, len(r.byID))
	for _, a := range r.byID {
		result = append(result, a)
	}
	return result
}

// Count returns the number of registered assets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// TokenSpec is the configuration shape for one token.
type TokenSpec struct {
	Symbol   string
	Name     string
	Address  string // empty = native coin
	Decimals uint8
	Class    string // "stablecoin", "major", "alt"
}

// BuildRegistry constructs a registry from configured token specs for a
// single chain, on top of the well-known defaults.
func BuildRegistry(chainID uint64, specs []TokenSpec) (*Registry, error) {
	r := DefaultRegistry()
	for _, spec := range specs {
		var id AssetID
		if spec.Address == "" {
			id = NewNativeAssetID(chainID)
		} else {
			if !common.IsHexAddress(spec.Address) {
				return nil, fmt.Errorf("asset: invalid address %q for token %s", spec.Address, spec.Symbol)
			}
			id = NewTokenAssetID(chainID, common.HexToAddress(spec.Address))
		}
		if _, exists := r.Get(id); exists {
			continue // well-known token re-declared in config
		}
		if spec.Decimals == 0 {
			return nil, fmt.Errorf("asset: token %s missing decimals", spec.Symbol)
		}
		r.Register(NewClassifiedAsset(id, spec.Symbol, spec.Name, spec.Decimals, ParseClass(spec.Class)))
	}
	return r, nil
}
