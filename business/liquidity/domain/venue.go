// Package domain contains the core domain types for the liquidity context.
package domain

import "errors"

// ErrUnavailable is the first-class "no quote" outcome: missing pool,
// reverted call, zero liquidity. It means "this venue could not be
// compared", never "the pipeline failed".
var ErrUnavailable = errors.New("liquidity: venue unavailable for this pair")

// ErrReservesUnsupported is returned by venue kinds that cannot expose
// constant-product style reserves (concentrated liquidity).
var ErrReservesUnsupported = errors.New("liquidity: reserves not supported by venue kind")

// Kind is the closed set of supported venue kinds. A venue's kind is
// fixed at configuration load; there is no per-call dispatch by name.
type Kind string

const (
	KindConstantProduct       Kind = "constant-product"
	KindConcentratedLiquidity Kind = "concentrated-liquidity"
	KindStableSwap            Kind = "stable-swap"
)

// Venue identifies one configured liquidity source.
type Venue struct {
	Name string
	Kind Kind
}

func (v Venue) String() string {
	return v.Name
}
