// Package curve wraps secp256k1 scalar and point arithmetic for the single
// curve this protocol uses everywhere — both K_seed and K_enc key pairs
// (spec.md §3, §9) live on secp256k1, resolving the curve inconsistency the
// teacher's multi-curve abstraction was built to tolerate.
package curve

import (
	"crypto/rand"
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Scalar is an element of the secp256k1 scalar field.
type Scalar struct {
	value secp256k1.ModNScalar
}

// NewScalar returns a new zero Scalar.
func NewScalar() *Scalar {
	return &Scalar{}
}

// SampleScalar draws a uniformly random nonzero Scalar from the system CSPRNG.
func SampleScalar() *Scalar {
	var buf [32]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			panic(fmt.Sprintf("curve: failed to sample scalar: %v", err))
		}
		var s secp256k1.ModNScalar
		overflow := s.SetBytes(&buf)
		if overflow == 0 && !s.IsZero() {
			return &Scalar{value: s}
		}
	}
}

// ScalarFromUint64 embeds a small non-negative integer into the scalar
// field, for building constant scalars (e.g. Shamir x-coordinates).
func ScalarFromUint64(n uint64) *Scalar {
	nat := new(saferith.Nat).SetUint64(n)
	raw := nat.Bytes()
	var buf [32]byte
	copy(buf[32-len(raw):], raw)
	var s secp256k1.ModNScalar
	s.SetBytes(&buf)
	return &Scalar{value: s}
}

// Bytes returns the scalar's big-endian 32-byte encoding.
func (s *Scalar) Bytes() []byte {
	b := s.value.Bytes()
	out := make([]byte, 32)
	copy(out, b[:])
	return out
}

// SetBytes decodes a big-endian 32-byte encoding into s, returning s. It
// returns an error if data does not have length 32.
func (s *Scalar) SetBytes(data []byte) (*Scalar, error) {
	if len(data) != 32 {
		return nil, fmt.Errorf("curve: invalid scalar length %d", len(data))
	}
	var buf [32]byte
	copy(buf[:], data)
	s.value.SetBytes(&buf)
	return s, nil
}

// Add sets s = x + y and returns s.
func (s *Scalar) Add(x, y *Scalar) *Scalar {
	var r secp256k1.ModNScalar
	r.Set(&x.value)
	r.Add(&y.value)
	s.value = r
	return s
}

// Sub sets s = x - y and returns s.
func (s *Scalar) Sub(x, y *Scalar) *Scalar {
	var neg secp256k1.ModNScalar
	neg.Set(&y.value)
	neg.Negate()
	var r secp256k1.ModNScalar
	r.Set(&x.value)
	r.Add(&neg)
	s.value = r
	return s
}

// Negate sets s = -x and returns s.
func (s *Scalar) Negate(x *Scalar) *Scalar {
	var r secp256k1.ModNScalar
	r.Set(&x.value)
	r.Negate()
	s.value = r
	return s
}

// Mul sets s = x * y and returns s.
func (s *Scalar) Mul(x, y *Scalar) *Scalar {
	var r secp256k1.ModNScalar
	r.Set(&x.value)
	r.Mul(&y.value)
	s.value = r
	return s
}

// Invert sets s = x^-1 and returns s. Panics if x is zero.
func (s *Scalar) Invert(x *Scalar) *Scalar {
	if x.value.IsZero() {
		panic("curve: cannot invert the zero scalar")
	}
	var r secp256k1.ModNScalar
	r.Set(&x.value)
	r.InverseNonConst()
	s.value = r
	return s
}

// Equal reports whether s and x represent the same field element.
func (s *Scalar) Equal(x *Scalar) bool {
	return s.value.Equals(&x.value)
}

// IsZero reports whether s is the additive identity.
func (s *Scalar) IsZero() bool {
	return s.value.IsZero()
}

// Set sets s = x and returns s.
func (s *Scalar) Set(x *Scalar) *Scalar {
	s.value.Set(&x.value)
	return s
}

// ActOnBase returns the point x * G, where G is the canonical generator.
func (s *Scalar) ActOnBase() *Point {
	var j secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&s.value, &j)
	return &Point{value: j}
}

// Act returns the point x * P.
func (s *Scalar) Act(p *Point) *Point {
	var j secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(&s.value, &p.value, &j)
	return &Point{value: j}
}
