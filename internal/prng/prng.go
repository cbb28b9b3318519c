// Package prng implements the deterministic pseudo-random generator shared
// by every pairwise mask and self-mask in the protocol. Because two parties
// must derive byte-identical mask sequences from the same seed (spec.md
// §3's "Pairwise view", §9's "Seeded PRNG portability"), the generator's
// algorithm is part of the wire contract: this package freezes it to a
// ChaCha20 keystream, the same technique used for pairwise-mask generation
// in isglobal-brge/dsVert's mhe-tool.
package prng

import (
	"encoding/binary"

	"golang.org/x/crypto/chacha20"
)

// Generator produces a deterministic sequence of 32-bit unsigned values from
// a fixed seed, by treating a ChaCha20 keystream (zero nonce) as an infinite
// tape of pseudo-random bytes and reading it four bytes at a time.
type Generator struct {
	cipher *chacha20.Cipher
	buf    [4]byte
}

// NewFromSeed16 builds a Generator from the 16-bit pairwise seed derived
// from an ECDH shared secret (spec.md §4.1): the seed is expanded into a
// 32-byte ChaCha20 key by repeating its two bytes, so that any two parties
// deriving the same seed get the same keystream.
func NewFromSeed16(seed int16) *Generator {
	var key [32]byte
	binary.BigEndian.PutUint16(key[0:2], uint16(seed))
	for i := 2; i < 32; i += 2 {
		copy(key[i:i+2], key[0:2])
	}
	return newFromKey(key)
}

// NewFromSeed32 builds a Generator from the client's 32-bit self-mask seed
// (spec.md §3's "Self-mask seed"), expanded the same way as NewFromSeed16.
func NewFromSeed32(seed uint32) *Generator {
	var key [32]byte
	binary.BigEndian.PutUint32(key[0:4], seed)
	for i := 4; i < 32; i += 4 {
		copy(key[i:i+4], key[0:4])
	}
	return newFromKey(key)
}

func newFromKey(key [32]byte) *Generator {
	var nonce [chacha20.NonceSize]byte
	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		panic("prng: failed to build ChaCha20 cipher: " + err.Error())
	}
	return &Generator{cipher: c}
}

// Next draws the next pseudo-random uint32 from the keystream.
func (g *Generator) Next() uint32 {
	var zero [4]byte
	g.cipher.XORKeyStream(g.buf[:], zero[:])
	return binary.BigEndian.Uint32(g.buf[:])
}
