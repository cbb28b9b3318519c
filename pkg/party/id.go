package party

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/taurusgroup/secure-aggregation/pkg/curve"
)

// ByteSize is the number of bytes in an ID.
const ByteSize = 16

// ID is the opaque 128-bit identifier of a participant. IDs are totally
// ordered by their byte representation; the protocol's sign convention for
// pairwise masks (§4.2) relies on that order.
type ID [ByteSize]byte

// Zero is never a valid ID; NewSet rejects it.
var Zero ID

// NewRandomID samples a fresh ID from the system CSPRNG.
func NewRandomID() ID {
	var id ID
	if _, err := rand.Read(id[:]); err != nil {
		panic(fmt.Sprintf("party: failed to sample ID: %v", err))
	}
	return id
}

// IDFromUint64 builds a deterministic ID from a small integer, used by tests
// and the benchmark driver to produce readable, reproducible party sets.
func IDFromUint64(n uint64) ID {
	var id ID
	for i := 0; i < 8; i++ {
		id[ByteSize-1-i] = byte(n >> (8 * i))
	}
	return id
}

// Less reports whether p sorts before q.
func (p ID) Less(q ID) bool {
	for i := range p {
		if p[i] != q[i] {
			return p[i] < q[i]
		}
	}
	return false
}

// Equal reports whether p and q are the same identifier.
func (p ID) Equal(q ID) bool {
	return p == q
}

// Bytes returns a copy of the identifier's bytes.
func (p ID) Bytes() []byte {
	out := make([]byte, ByteSize)
	copy(out, p[:])
	return out
}

// String returns a short hex representation, useful for logs and test output.
func (p ID) String() string {
	return hex.EncodeToString(p[:])
}

// ShareIndex is the 1-based position of a party within a fixed, sorted peer
// ordering — "index(k) = rank of peer k in the fixed peer ordering, 1-based"
// per spec.md §9. It is the x-coordinate used for Shamir sharing, distinct
// from the party's own 128-bit ID.
type ShareIndex uint16

// Scalar embeds the share index into the secp256k1 scalar field, so it can
// be used directly as a Shamir x-coordinate by pkg/polynomial.
func (i ShareIndex) Scalar() *curve.Scalar {
	return curve.ScalarFromUint64(uint64(i))
}
