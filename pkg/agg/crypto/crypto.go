// Package crypto implements the per-pair cryptographic primitives of
// spec.md §4.1: ECDH key agreement on secp256k1, derivation of the 16-bit
// pairwise PRNG seed and the 256-bit pairwise AES key from a shared point,
// and AES-GCM encryption of ciphertext bundle entries.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/taurusgroup/secure-aggregation/pkg/curve"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/hkdf"
)

// ErrDecryptionFailed is returned when an AES-GCM tag fails to verify,
// spec.md §7's DecryptionFailed.
var ErrDecryptionFailed = errors.New("agg/crypto: AES-GCM authentication failed")

// KeyPair is an alias for curve.KeyPair, re-exported so callers of this
// package never need to import pkg/curve directly for key generation.
type KeyPair = curve.KeyPair

// GenerateKeyPair samples a fresh ECDH key pair on secp256k1.
func GenerateKeyPair() *KeyPair {
	return curve.GenerateKeyPair()
}

// ExportPrivateKey serializes a private scalar to its portable 32-byte
// big-endian form, the "exported K_seed private key" of spec.md §3 and §9's
// "Exported-key round-trip" note: raw scalar export, not a JSON envelope.
func ExportPrivateKey(sk *curve.Scalar) []byte {
	return sk.Bytes()
}

// ImportPrivateKey re-imports a 32-byte scalar exported by ExportPrivateKey,
// e.g. after Shamir reconstruction of a dropped client's K_seed in round 3.
func ImportPrivateKey(data []byte) (*curve.Scalar, error) {
	var s curve.Scalar
	if _, err := s.SetBytes(data); err != nil {
		return nil, fmt.Errorf("agg/crypto: failed to import private key: %w", err)
	}
	return &s, nil
}

// PairwiseSeed computes the 16-bit signed integer seed shared between the
// holder of sk and the holder of the peer public key pk. Spec.md §4.1
// requires "a specific two-byte window" of the DH output, used identically
// by every party: this implementation takes bytes [1:3] of the shared
// point's affine X-coordinate, exactly the byte-offset-1 window spec.md §9
// documents as an accepted, explicitly-noted limitation rather than a
// widened seed (see DESIGN.md).
func PairwiseSeed(sk *curve.Scalar, pk *curve.Point) int16 {
	shared := curve.ECDH(sk, pk)
	x := shared.XBytes()
	return int16(binary.BigEndian.Uint16(x[1:3]))
}

// pairwiseAESInfo is the HKDF "info" domain-separation label for deriving
// the pairwise AES-GCM key, distinct from the seed derivation above so the
// two never collide even when fed the same shared point.
var pairwiseAESInfo = []byte("secure-aggregation/pairwise-aes-key/v1")

// PairwiseAESKey derives the 256-bit AES-GCM key shared between the holder
// of sk and the holder of the peer public key pk, via HKDF-SHA256 over the
// ECDH shared point's X-coordinate (spec.md §4.1). The info parameter is
// mixed with a blake3 digest over both parties' public keys sorted into a
// canonical order first, so info agrees regardless of which side computes
// it — selfPub/peerPub arrive swapped depending on the caller, but a and b
// below never do.
func PairwiseAESKey(sk *curve.Scalar, pk *curve.Point, selfPub, peerPub *curve.Point) ([]byte, error) {
	shared := curve.ECDH(sk, pk)

	a, b := selfPub.Bytes(), peerPub.Bytes()
	if bytes.Compare(a, b) > 0 {
		a, b = b, a
	}

	h := blake3.New()
	h.Write(pairwiseAESInfo)
	h.Write(a)
	h.Write(b)
	info := h.Sum(nil)

	reader := hkdf.New(sha256.New, shared.XBytes(), nil, info)
	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("agg/crypto: HKDF expansion failed: %w", err)
	}
	return key, nil
}

// Encrypt seals plaintext under key with a freshly sampled 16-byte IV,
// returning (ciphertext, iv) per spec.md §4.1 and §6's ciphertext bundle
// format.
func Encrypt(key, plaintext []byte) (ciphertext, iv []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("agg/crypto: failed to build AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, 16)
	if err != nil {
		return nil, nil, fmt.Errorf("agg/crypto: failed to build GCM mode: %w", err)
	}
	iv = make([]byte, 16)
	if _, err := rand.Read(iv); err != nil {
		return nil, nil, fmt.Errorf("agg/crypto: failed to sample IV: %w", err)
	}
	ciphertext = gcm.Seal(nil, iv, plaintext, nil)
	return ciphertext, iv, nil
}

// Decrypt opens ciphertext under key and iv, returning ErrDecryptionFailed
// on any tag mismatch (spec.md §7's DecryptionFailed).
func Decrypt(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("agg/crypto: failed to build AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, 16)
	if err != nil {
		return nil, fmt.Errorf("agg/crypto: failed to build GCM mode: %w", err)
	}
	plaintext, err := gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
