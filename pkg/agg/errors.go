// Package agg holds the error vocabulary shared by the client and
// aggregator state machines (spec.md §7): every protocol failure is one of
// these typed, terminal errors, never a retry.
package agg

import "errors"

var (
	// BelowThreshold is returned when a membership set drops below t.
	BelowThreshold = errors.New("agg: membership set fell below threshold")

	// KeyCollision is returned when two peers report identical public keys.
	KeyCollision = errors.New("agg: two peers reported identical public keys")

	// TooFewCiphertexts is returned when a client receives fewer than t-1 ciphertexts.
	TooFewCiphertexts = errors.New("agg: fewer than t-1 ciphertexts received")

	// MembershipViolation is returned when U3 names a peer the client never
	// heard of in U2.
	MembershipViolation = errors.New("agg: survivors list contains an unknown peer")

	// CiphertextMisdirected is returned when a decrypted plaintext's sender
	// or recipient field does not match the transport metadata.
	CiphertextMisdirected = errors.New("agg: decrypted ciphertext addressed to the wrong party")

	// ReconstructionFailed is returned when Shamir recovery yields too few
	// shares, or bytes that do not reconstruct the expected key material.
	ReconstructionFailed = errors.New("agg: Shamir reconstruction failed")

	// TooFewClients is returned when a client's round-0 peer list is smaller than t.
	TooFewClients = errors.New("agg: fewer than t clients in round-0 broadcast")

	// TooFewSurvivors is returned when a client's round-2 survivors list is smaller than t.
	TooFewSurvivors = errors.New("agg: fewer than t clients in survivors list")
)
