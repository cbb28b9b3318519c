// Package wire defines the canonical, implementation-free message formats
// of spec.md §6, and their cbor encoding.
package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/taurusgroup/secure-aggregation/pkg/party"
)

// PublicKeyEntry is one client's two round-0 public keys.
type PublicKeyEntry struct {
	SeedPK []byte `cbor:"seedPk"`
	EncPK  []byte `cbor:"encPk"`
}

// PublicKeyBroadcast is the aggregator's round-0 broadcast: every client's
// public key pair, keyed by PID (spec.md §6).
type PublicKeyBroadcast map[party.ID]PublicKeyEntry

// CiphertextKey identifies one ciphertext by its ordered (sender,
// recipient) pair, serialized as the "senderPID|recipientPID" string
// spec.md §6 specifies.
type CiphertextKey struct {
	Sender    party.ID
	Recipient party.ID
}

// String renders the key in the canonical "senderPID|recipientPID" form.
func (k CiphertextKey) String() string {
	return fmt.Sprintf("%s|%s", k.Sender, k.Recipient)
}

// CiphertextEntry is one AES-GCM-sealed share bundle with its IV.
type CiphertextEntry struct {
	Ciphertext []byte `cbor:"ciphertext"`
	IV         []byte `cbor:"iv"`
}

// CiphertextBundle is the pivoted map of ciphertexts the aggregator
// delivers to one recipient in round 1 (spec.md §4.3, §6).
type CiphertextBundle map[party.ID]CiphertextEntry

// SurvivorsList is the aggregator's round-2 broadcast of U3 (spec.md §6).
type SurvivorsList []party.ID

// ShareKind distinguishes the two share families spec.md §4.2 defines.
type ShareKind string

const (
	ShareKindKey  ShareKind = "key"
	ShareKindSeed ShareKind = "seed"
)

// ShareEntry is one disclosed Shamir share, for either a dead peer's K_seed
// private key or an alive peer's self-mask seed.
type ShareEntry struct {
	ShareBytes []byte    `cbor:"shareBytes"`
	Index      uint8     `cbor:"index"`
	Kind       ShareKind `cbor:"kind"`
}

// ShareResponse is a client's round-3 disclosure, keyed by peer PID
// (spec.md §4.2, §6).
type ShareResponse map[party.ID]ShareEntry

// CiphertextPlaintext is the delimited payload encrypted under the pairwise
// AES key (spec.md §3's "Ciphertext" paragraph): `i | j | keyShare(j) |
// selfSeedShare(j) | index`.
type CiphertextPlaintext struct {
	Sender        party.ID `cbor:"sender"`
	Recipient     party.ID `cbor:"recipient"`
	KeyShare      []byte   `cbor:"keyShare"`
	SelfSeedShare []byte   `cbor:"selfSeedShare"`
	Index         uint8    `cbor:"index"`
}

// Marshal cbor-encodes v, the sole serialization path used for every
// message and for the ciphertext plaintext above.
func Marshal(v interface{}) ([]byte, error) {
	return cbor.Marshal(v)
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v interface{}) error {
	return cbor.Unmarshal(data, v)
}
