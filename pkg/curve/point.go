package curve

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Point is a point on secp256k1, used for ECDH public keys (K_seed, K_enc
// per spec.md §3) and for Shamir-shared key-pair material.
type Point struct {
	value secp256k1.JacobianPoint
}

// NewIdentityPoint returns the point at infinity.
func NewIdentityPoint() *Point {
	var p Point
	p.value.Y.SetInt(1)
	p.value.Z.SetInt(0)
	return &p
}

// Bytes returns the point's 33-byte compressed encoding.
func (p *Point) Bytes() []byte {
	var affine secp256k1.JacobianPoint
	affine.Set(&p.value)
	affine.ToAffine()
	out := make([]byte, 33)
	if affine.Y.IsOddBit() == 1 {
		out[0] = 3
	} else {
		out[0] = 2
	}
	x := affine.X.Bytes()
	copy(out[1:], x[:])
	return out
}

// SetBytes decodes a 33-byte compressed encoding into p, returning p.
func (p *Point) SetBytes(data []byte) (*Point, error) {
	if len(data) != 33 {
		return nil, fmt.Errorf("curve: invalid point length %d", len(data))
	}
	if data[0] != 2 && data[0] != 3 {
		return nil, fmt.Errorf("curve: invalid point prefix %d", data[0])
	}
	var x secp256k1.FieldVal
	if overflow := x.SetByteSlice(data[1:]); overflow {
		return nil, fmt.Errorf("curve: x-coordinate out of range")
	}
	var j secp256k1.JacobianPoint
	j.X = x
	j.Z.SetInt(1)
	if !secp256k1.DecompressY(&x, data[0] == 3, &j.Y) {
		return nil, fmt.Errorf("curve: x-coordinate not on curve")
	}
	p.value = j
	return p, nil
}

// Set sets p = q and returns p.
func (p *Point) Set(q *Point) *Point {
	p.value.Set(&q.value)
	return p
}

// Add sets p = a + b and returns p.
func (p *Point) Add(a, b *Point) *Point {
	var r secp256k1.JacobianPoint
	secp256k1.AddNonConst(&a.value, &b.value, &r)
	p.value = r
	return p
}

// Negate sets p = -a and returns p.
func (p *Point) Negate(a *Point) *Point {
	var r secp256k1.JacobianPoint
	r.Set(&a.value)
	r.ToAffine()
	r.Y.Negate(1)
	r.Y.Normalize()
	p.value = r
	return p
}

// Sub sets p = a - b and returns p.
func (p *Point) Sub(a, b *Point) *Point {
	var negB Point
	negB.Negate(b)
	return p.Add(a, &negB)
}

// Equal reports whether p and q represent the same curve point.
func (p *Point) Equal(q *Point) bool {
	a, b := p.value, q.value
	a.ToAffine()
	b.ToAffine()
	return a.X.Equals(&b.X) && a.Y.Equals(&b.Y)
}

// IsIdentity reports whether p is the point at infinity.
func (p *Point) IsIdentity() bool {
	a := p.value
	// ToAffine maps the point at infinity to (0, 0), which is not on the curve.
	a.ToAffine()
	return a.X.IsZero() && a.Y.IsZero()
}

// XBytes returns the 32-byte big-endian encoding of p's affine X coordinate,
// used as the shared-secret input to HKDF during ECDH key agreement (§4.1).
func (p *Point) XBytes() []byte {
	a := p.value
	a.ToAffine()
	x := a.X.Bytes()
	out := make([]byte, 32)
	copy(out, x[:])
	return out
}
