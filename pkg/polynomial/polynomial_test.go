package polynomial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/secure-aggregation/pkg/curve"
)

func TestEvaluateAtZeroPanics(t *testing.T) {
	p := NewPolynomial(2, curve.ScalarFromUint64(42))
	assert.Panics(t, func() {
		p.Evaluate(curve.NewScalar())
	})
}

func TestSplitAndLagrangeReconstruct(t *testing.T) {
	const n, t2 = 5, 2 // degree-2 polynomial, threshold t+1 = 3
	secret := curve.ScalarFromUint64(1234567)
	p := NewPolynomial(t2, secret)

	indices := make([]*curve.Scalar, n)
	for i := 0; i < n; i++ {
		indices[i] = curve.ScalarFromUint64(uint64(i + 1))
	}
	shares := Split(p, indices)

	// Reconstruct from any t+1 = 3 shares.
	subsetIdx := []*curve.Scalar{shares[0].Index, shares[2].Index, shares[4].Index}
	subsetVal := []*curve.Scalar{shares[0].Value, shares[2].Value, shares[4].Value}

	coeffs := Lagrange(subsetIdx)

	reconstructed := curve.NewScalar()
	for i, c := range coeffs {
		term := curve.NewScalar().Mul(c, subsetVal[i])
		reconstructed = curve.NewScalar().Add(reconstructed, term)
	}

	require.True(t, reconstructed.Equal(secret))
}

func TestLagrangeForSubsetMatchesFullDomain(t *testing.T) {
	domain := []*curve.Scalar{
		curve.ScalarFromUint64(1),
		curve.ScalarFromUint64(2),
		curve.ScalarFromUint64(3),
	}
	full := Lagrange(domain)
	partial := LagrangeFor(domain, domain[1])
	assert.True(t, full[1].Equal(partial[0]))
}
