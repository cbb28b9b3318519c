package curve

// NewBasePoint returns the canonical secp256k1 generator G.
func NewBasePoint() *Point {
	return ScalarFromUint64(1).ActOnBase()
}
