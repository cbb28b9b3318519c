package agg

import (
	"errors"

	"github.com/taurusgroup/secure-aggregation/internal/wire"
	"github.com/taurusgroup/secure-aggregation/pkg/party"
	"github.com/zeebo/blake3"
)

// BundleDigestMismatch is returned when a client's locally recomputed
// ciphertext bundle digest disagrees with the one the aggregator attached
// to the bundle, signalling bundle-level transport corruption distinct from
// a single ciphertext's AES-GCM tag failing (DecryptionFailed).
var BundleDigestMismatch = errors.New("agg: ciphertext bundle digest mismatch")

// BundleDigest computes the blake3 integrity digest of a pivoted ciphertext
// bundle: every entry's sender ID, ciphertext, and IV, written in sorted
// sender order so the aggregator and every recipient always agree on byte
// order regardless of map iteration.
func BundleDigest(bundle wire.CiphertextBundle) []byte {
	senders := make(party.IDSlice, 0, len(bundle))
	for sender := range bundle {
		senders = append(senders, sender)
	}
	senders.Sort()

	h := blake3.New()
	for _, sender := range senders {
		entry := bundle[sender]
		h.Write(sender.Bytes())
		h.Write(entry.Ciphertext)
		h.Write(entry.IV)
	}
	return h.Sum(nil)
}
