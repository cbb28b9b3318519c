package curve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarRoundTrip(t *testing.T) {
	s := SampleScalar()
	data := s.Bytes()
	var got Scalar
	_, err := got.SetBytes(data)
	require.NoError(t, err)
	assert.True(t, s.Equal(&got))
}

func TestPointRoundTrip(t *testing.T) {
	p := SampleScalar().ActOnBase()
	data := p.Bytes()
	var got Point
	_, err := got.SetBytes(data)
	require.NoError(t, err)
	assert.True(t, p.Equal(&got))
}

func TestScalarArithmetic(t *testing.T) {
	a := ScalarFromUint64(3)
	b := ScalarFromUint64(5)

	sum := NewScalar().Add(a, b)
	assert.True(t, sum.Equal(ScalarFromUint64(8)))

	diff := NewScalar().Sub(sum, a)
	assert.True(t, diff.Equal(b))

	prod := NewScalar().Mul(a, b)
	assert.True(t, prod.Equal(ScalarFromUint64(15)))

	inv := NewScalar().Invert(a)
	one := NewScalar().Mul(a, inv)
	assert.True(t, one.Equal(ScalarFromUint64(1)))
}

func TestECDHAgreement(t *testing.T) {
	alice := GenerateKeyPair()
	bob := GenerateKeyPair()

	sharedA := ECDH(alice.Private, bob.Public)
	sharedB := ECDH(bob.Private, alice.Public)

	assert.True(t, sharedA.Equal(sharedB))
}

func TestBasePointMatchesScalarOne(t *testing.T) {
	g := NewBasePoint()
	one := ScalarFromUint64(1).ActOnBase()
	assert.True(t, g.Equal(one))
}

func TestPointAddSubIdentity(t *testing.T) {
	p := SampleScalar().ActOnBase()
	q := SampleScalar().ActOnBase()

	sum := NewIdentityPoint().Add(p, q)
	back := NewIdentityPoint().Sub(sum, q)
	assert.True(t, back.Equal(p))
}
