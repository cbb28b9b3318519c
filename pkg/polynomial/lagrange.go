package polynomial

import "github.com/taurusgroup/secure-aggregation/pkg/curve"

// Lagrange returns the Lagrange coefficients at 0 for every index in domain.
func Lagrange(domain []*curve.Scalar) []*curve.Scalar {
	return LagrangeFor(domain, domain...)
}

// LagrangeFor returns the Lagrange coefficients at 0 for the indices in
// subset, computed against the full interpolation domain. The aggregator
// reaches it through Lagrange in round 3 to reconstruct a dead client's
// K_seed, or an alive client's self-mask seed, from exactly t disclosed
// shares of a degree t-1 polynomial (spec.md §4.3).
func LagrangeFor(domain []*curve.Scalar, subset ...*curve.Scalar) []*curve.Scalar {
	numerator := curve.NewScalar().Set(curve.ScalarFromUint64(1))
	for _, x := range domain {
		numerator = curve.NewScalar().Mul(numerator, x)
	}

	coefficients := make([]*curve.Scalar, len(subset))
	for k, xj := range subset {
		coefficients[k] = lagrangeSingle(domain, numerator, xj)
	}
	return coefficients
}

// lagrangeSingle computes l_j(0) for xj within domain, given the
// precomputed numerator x0*...*xk.
//
//	              x0 ... xk
//	l_j(0) = --------------------------------------------------
//	          xj * (x0 - xj) ... (xj-1 - xj) * (xj+1 - xj) ... (xk - xj)
//
// https://en.wikipedia.org/wiki/Lagrange_polynomial
func lagrangeSingle(domain []*curve.Scalar, numerator *curve.Scalar, xj *curve.Scalar) *curve.Scalar {
	denominator := curve.NewScalar().Set(xj)
	for _, xi := range domain {
		if xi.Equal(xj) {
			continue
		}
		// denominator *= (xi - xj)
		diff := curve.NewScalar().Sub(xi, xj)
		denominator = curve.NewScalar().Mul(denominator, diff)
	}

	inv := curve.NewScalar().Invert(denominator)
	return curve.NewScalar().Mul(numerator, inv)
}
