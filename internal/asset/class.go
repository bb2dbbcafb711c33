package asset

// Class buckets tokens by how tight a cross-venue spread is believable
// for them. Stablecoins should never diverge much between venues; majors
// a little more; everything else gets the loosest threshold.
type Class string

const (
	ClassStablecoin Class = "stablecoin"
	ClassMajor      Class = "major" // wrapped-native, wrapped-BTC equivalents
	ClassAlt        Class = "alt"
)

// ParseClass maps a configuration string to a Class.
// Unknown values fall back to ClassAlt, the most conservative bucket.
func ParseClass(s string) Class {
	switch s {
	case string(ClassStablecoin):
		return ClassStablecoin
	case string(ClassMajor):
		return ClassMajor
	default:
		return ClassAlt
	}
}

// PairClass is the joint classification of a token pair, evaluated in
// priority order: both stablecoin, then both major, then default.
type PairClass string

const (
	PairStable  PairClass = "stable_pair"
	PairMajor   PairClass = "major_pair"
	PairDefault PairClass = "default_pair"
)

// ClassifyPair returns the joint class of a token pair.
func ClassifyPair(a, b *Asset) PairClass {
	switch {
	case a.Class() == ClassStablecoin && b.Class() == ClassStablecoin:
		return PairStable
	case (a.Class() == ClassStablecoin || a.Class() == ClassMajor) &&
		(b.Class() == ClassStablecoin || b.Class() == ClassMajor):
		return PairMajor
	default:
		return PairDefault
	}
}
