// Package polynomial implements Shamir (t, N) secret sharing over
// secp256k1 scalars, and Lagrange reconstruction at 0. It is used to split
// both a client's K_seed private key and its self-mask seed (spec.md §4.3):
// both are represented as curve scalars so the same machinery serves either.
package polynomial

import (
	"github.com/taurusgroup/secure-aggregation/pkg/curve"
)

// Polynomial represents f(X) = a0 + a1*X + ... + at*X^t over the scalar field.
type Polynomial struct {
	coefficients []curve.Scalar
}

// NewPolynomial generates a Polynomial f(X) = secret + a1*X + ... + at*X^t
// with random coefficients in the scalar field and degree t, for a (t+1)-of-N
// secret-sharing scheme (threshold is t+1 honest shares needed for
// reconstruction, per spec.md §4.3).
func NewPolynomial(degree int, secret *curve.Scalar) *Polynomial {
	p := &Polynomial{coefficients: make([]curve.Scalar, degree+1)}

	constant := secret
	if constant == nil {
		constant = curve.NewScalar()
	}
	p.coefficients[0] = *constant

	for i := 1; i <= degree; i++ {
		p.coefficients[i] = *curve.SampleScalar()
	}

	return p
}

// Evaluate evaluates the polynomial at index using Horner's method.
// https://en.wikipedia.org/wiki/Horner%27s_method
func (p *Polynomial) Evaluate(index *curve.Scalar) *curve.Scalar {
	if index.IsZero() {
		panic("polynomial: attempt to evaluate at 0 would leak the secret")
	}

	result := curve.NewScalar()
	for i := len(p.coefficients) - 1; i >= 0; i-- {
		// result = result*index + coefficients[i]
		tmp := curve.NewScalar().Mul(result, index)
		result = curve.NewScalar().Add(tmp, &p.coefficients[i])
	}
	return result
}

// Constant returns the polynomial's constant coefficient, i.e. the shared secret.
func (p *Polynomial) Constant() *curve.Scalar {
	return &p.coefficients[0]
}

// Degree is the highest power of the polynomial.
func (p *Polynomial) Degree() int {
	return len(p.coefficients) - 1
}

// Share is one party's evaluation of a shared polynomial: (x, f(x)).
type Share struct {
	Index *curve.Scalar
	Value *curve.Scalar
}

// Split evaluates p at each of the given indices, producing one Share per
// index. Client.Round1 does not call it; it evaluates its polynomials per
// peer with Evaluate.
func Split(p *Polynomial, indices []*curve.Scalar) []Share {
	shares := make([]Share, len(indices))
	for i, idx := range indices {
		shares[i] = Share{Index: idx, Value: p.Evaluate(idx)}
	}
	return shares
}
