// Package client implements the per-participant state machine of spec.md
// §4.2: round0 through round3, dual masking, Shamir disclosure, and
// fail-stop dropout via putDown.
package client

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/taurusgroup/secure-aggregation/internal/prng"
	"github.com/taurusgroup/secure-aggregation/internal/wire"
	"github.com/taurusgroup/secure-aggregation/pkg/agg"
	aggcrypto "github.com/taurusgroup/secure-aggregation/pkg/agg/crypto"
	"github.com/taurusgroup/secure-aggregation/pkg/curve"
	"github.com/taurusgroup/secure-aggregation/pkg/party"
	"github.com/taurusgroup/secure-aggregation/pkg/polynomial"
	"github.com/taurusgroup/secure-aggregation/pkg/pool"
)

// peerRecord is a client's local, by-value snapshot of one peer's public
// material (spec.md §9: "clients hold an immutable snapshot... not by
// pointer to live client objects").
type peerRecord struct {
	seedPub *curve.Point
	encPub  *curve.Point
}

// Client holds one participant's secret and round-by-round protocol state.
type Client struct {
	id     party.ID
	secret float64
	n      int
	t      int

	isDown bool

	seedKeys *curve.KeyPair
	encKeys  *curve.KeyPair

	u1       party.IDSlice
	peers    map[party.ID]peerRecord
	ownIndex party.ShareIndex

	selfMaskSeed uint32

	ownKeyShare  *curve.Scalar
	ownSeedShare *curve.Scalar

	// ciphertexts addressed to this client, indexed by sender, as received
	// in ReceiveCiphertexts and decrypted in round3.
	incoming map[party.ID]wire.CiphertextEntry

	u2Local *party.Set
	u3Local *party.Set

	workers *pool.Pool
}

// New constructs a client holding secret, expecting an N-party run with
// threshold t (spec.md §6's `newClient`).
func New(id party.ID, secret float64, n, t int) *Client {
	return &Client{id: id, secret: secret, n: n, t: t}
}

// UseWorkers attaches a worker pool the client uses to parallelize its
// per-peer ECDH and AES-GCM work in round1 and round3 (spec.md §5). A nil
// pool (the default) runs that work sequentially on the calling goroutine.
func (c *Client) UseWorkers(p *pool.Pool) {
	c.workers = p
}

// ID returns the client's party identifier.
func (c *Client) ID() party.ID { return c.id }

// IsDown reports whether the client has been marked fail-stop.
func (c *Client) IsDown() bool { return c.isDown }

// PutDown marks the client fail-stop; subsequent round calls become
// no-ops. Once down, the client never comes back up (spec.md §4.2).
func (c *Client) PutDown() {
	c.isDown = true
}

// Round0 generates the client's two ECDH key pairs and exposes their public
// halves for the aggregator's broadcast.
func (c *Client) Round0() wire.PublicKeyEntry {
	c.seedKeys = aggcrypto.GenerateKeyPair()
	c.encKeys = aggcrypto.GenerateKeyPair()
	return wire.PublicKeyEntry{
		SeedPK: c.seedKeys.Public.Bytes(),
		EncPK:  c.encKeys.Public.Bytes(),
	}
}

// ReceiveClients records the aggregator's round-0 broadcast as the local
// U1, after validating it against spec.md §4.2's contract.
func (c *Client) ReceiveClients(list wire.PublicKeyBroadcast) error {
	if len(list) < c.t {
		return fmt.Errorf("%w: got %d, need %d", agg.TooFewClients, len(list), c.t)
	}

	seen := make(map[string]party.ID, len(list)*2)
	ids := make(party.IDSlice, 0, len(list))
	peers := make(map[party.ID]peerRecord, len(list))
	for id, entry := range list {
		for _, key := range [][]byte{entry.SeedPK, entry.EncPK} {
			k := string(key)
			if other, ok := seen[k]; ok && other != id {
				return agg.KeyCollision
			}
			seen[k] = id
		}

		seedPub, err := new(curve.Point).SetBytes(entry.SeedPK)
		if err != nil {
			return fmt.Errorf("agg/client: invalid seed public key for %s: %w", id, err)
		}
		encPub, err := new(curve.Point).SetBytes(entry.EncPK)
		if err != nil {
			return fmt.Errorf("agg/client: invalid enc public key for %s: %w", id, err)
		}

		ids = append(ids, id)
		peers[id] = peerRecord{seedPub: seedPub, encPub: encPub}
	}
	ids.Sort()

	c.u1 = ids
	c.peers = peers
	c.ownIndex = ids.ShareIndex(c.id)
	return nil
}

// Round1 samples the self-mask seed, Shamir-splits both secrets, and
// returns the AES-GCM-sealed share bundle addressed to every peer (spec.md
// §4.2). If the client is down, Round1 is a no-op returning an empty map.
func (c *Client) Round1() (map[party.ID]wire.CiphertextEntry, error) {
	if c.isDown {
		return nil, nil
	}

	var seedBuf [4]byte
	if _, err := rand.Read(seedBuf[:]); err != nil {
		return nil, fmt.Errorf("agg/client: failed to sample self-mask seed: %w", err)
	}
	c.selfMaskSeed = binary.BigEndian.Uint32(seedBuf[:])

	keyPoly := polynomial.NewPolynomial(c.t-1, c.seedKeys.Private)
	seedPoly := polynomial.NewPolynomial(c.t-1, curve.ScalarFromUint64(uint64(c.selfMaskSeed)))

	c.ownKeyShare = keyPoly.Evaluate(c.ownIndex.Scalar())
	c.ownSeedShare = seedPoly.Evaluate(c.ownIndex.Scalar())

	peers := make(party.IDSlice, 0, len(c.u1)-1)
	for _, peerID := range c.u1 {
		if !peerID.Equal(c.id) {
			peers = append(peers, peerID)
		}
	}

	type sealedShare struct {
		peerID party.ID
		entry  wire.CiphertextEntry
		err    error
	}
	raw := c.workers.Parallelize(len(peers), func(i int) interface{} {
		peerID := peers[i]
		peerIndex := c.u1.ShareIndex(peerID)

		keyShare := keyPoly.Evaluate(peerIndex.Scalar())
		seedShare := seedPoly.Evaluate(peerIndex.Scalar())

		plaintext := wire.CiphertextPlaintext{
			Sender:        c.id,
			Recipient:     peerID,
			KeyShare:      keyShare.Bytes(),
			SelfSeedShare: seedShare.Bytes(),
			Index:         uint8(peerIndex),
		}
		plaintextBytes, err := wire.Marshal(plaintext)
		if err != nil {
			return sealedShare{peerID: peerID, err: fmt.Errorf("agg/client: failed to marshal ciphertext plaintext: %w", err)}
		}

		aesKey, err := c.pairwiseAESKey(peerID)
		if err != nil {
			return sealedShare{peerID: peerID, err: err}
		}
		ciphertext, iv, err := aggcrypto.Encrypt(aesKey, plaintextBytes)
		if err != nil {
			return sealedShare{peerID: peerID, err: fmt.Errorf("agg/client: encryption failed for %s: %w", peerID, err)}
		}
		return sealedShare{peerID: peerID, entry: wire.CiphertextEntry{Ciphertext: ciphertext, IV: iv}}
	})

	outgoing := make(map[party.ID]wire.CiphertextEntry, len(peers))
	for _, r := range raw {
		s := r.(sealedShare)
		if s.err != nil {
			return nil, s.err
		}
		outgoing[s.peerID] = s.entry
	}
	return outgoing, nil
}

// ReceiveCiphertexts verifies digest against the bundle's own recomputed
// agg.BundleDigest before accepting it, then stores the aggregator's
// pivoted bundle addressed to this client and sets U2_local to its senders.
func (c *Client) ReceiveCiphertexts(bundle wire.CiphertextBundle, digest []byte) error {
	if len(bundle) < c.t-1 {
		return fmt.Errorf("%w: got %d, need %d", agg.TooFewCiphertexts, len(bundle), c.t-1)
	}
	if !bytes.Equal(agg.BundleDigest(bundle), digest) {
		return agg.BundleDigestMismatch
	}
	c.incoming = bundle

	senders := make([]party.ID, 0, len(bundle))
	for sender := range bundle {
		senders = append(senders, sender)
	}
	u2, err := party.NewSet(senders)
	if err != nil {
		return fmt.Errorf("agg/client: invalid senders in ciphertext bundle: %w", err)
	}
	c.u2Local = u2
	return nil
}

// Round2 computes this client's masked value m_i (spec.md §4.2). Skipped
// (returns the zero value) if the client is down.
func (c *Client) Round2() (uint32, error) {
	if c.isDown {
		return 0, nil
	}

	acc := agg.ToFixedPoint(c.secret)
	for _, peerID := range c.u2Local.Sorted() {
		seed, err := c.pairwiseSeed(peerID)
		if err != nil {
			return 0, err
		}
		draw := prng.NewFromSeed16(seed).Next()
		if peerID.Less(c.id) {
			acc += draw
		} else {
			acc -= draw
		}
	}
	acc += prng.NewFromSeed32(c.selfMaskSeed).Next()
	return acc, nil
}

// ReceiveClientIDsU3 records the aggregator's round-2 survivors list as
// U3_local.
func (c *Client) ReceiveClientIDsU3(ids wire.SurvivorsList) error {
	if len(ids) < c.t {
		return fmt.Errorf("%w: got %d, need %d", agg.TooFewSurvivors, len(ids), c.t)
	}
	for _, id := range ids {
		if id.Equal(c.id) {
			continue
		}
		if !c.u2Local.Contains(id) {
			return fmt.Errorf("%w: %s", agg.MembershipViolation, id)
		}
	}
	u3, err := party.NewSet([]party.ID(ids))
	if err != nil {
		return fmt.Errorf("agg/client: invalid survivors list: %w", err)
	}
	c.u3Local = u3
	return nil
}

// Round3 decrypts every peer's ciphertext and discloses the appropriate
// share for each: a self-seed share for survivors, a key share for peers
// that dropped out after round1, plus the client's own self-seed share
// (spec.md §4.2).
func (c *Client) Round3() (wire.ShareResponse, error) {
	if c.isDown {
		return nil, nil
	}

	peers := c.u2Local.Sorted()
	type disclosure struct {
		peerID party.ID
		entry  wire.ShareEntry
		err    error
	}
	raw := c.workers.Parallelize(len(peers), func(i int) interface{} {
		peerID := peers[i]
		entry := c.incoming[peerID]
		aesKey, err := c.pairwiseAESKey(peerID)
		if err != nil {
			return disclosure{peerID: peerID, err: err}
		}
		plaintextBytes, err := aggcrypto.Decrypt(aesKey, entry.IV, entry.Ciphertext)
		if err != nil {
			return disclosure{peerID: peerID, err: fmt.Errorf("agg/client: %s: %w", peerID, err)}
		}
		var plaintext wire.CiphertextPlaintext
		if err := wire.Unmarshal(plaintextBytes, &plaintext); err != nil {
			return disclosure{peerID: peerID, err: fmt.Errorf("agg/client: failed to unmarshal plaintext from %s: %w", peerID, err)}
		}
		if !plaintext.Sender.Equal(peerID) || !plaintext.Recipient.Equal(c.id) {
			return disclosure{peerID: peerID, err: fmt.Errorf("%w: from %s", agg.CiphertextMisdirected, peerID)}
		}

		if c.u3Local.Contains(peerID) {
			return disclosure{peerID: peerID, entry: wire.ShareEntry{ShareBytes: plaintext.SelfSeedShare, Index: plaintext.Index, Kind: wire.ShareKindSeed}}
		}
		return disclosure{peerID: peerID, entry: wire.ShareEntry{ShareBytes: plaintext.KeyShare, Index: plaintext.Index, Kind: wire.ShareKindKey}}
	})

	response := make(wire.ShareResponse, len(peers)+1)
	for _, r := range raw {
		d := r.(disclosure)
		if d.err != nil {
			return nil, d.err
		}
		response[d.peerID] = d.entry
	}

	response[c.id] = wire.ShareEntry{
		ShareBytes: c.ownSeedShare.Bytes(),
		Index:      uint8(c.ownIndex),
		Kind:       wire.ShareKindSeed,
	}
	return response, nil
}

func (c *Client) pairwiseSeed(peerID party.ID) (int16, error) {
	peer, ok := c.peers[peerID]
	if !ok {
		return 0, fmt.Errorf("agg/client: unknown peer %s", peerID)
	}
	return aggcrypto.PairwiseSeed(c.seedKeys.Private, peer.seedPub), nil
}

func (c *Client) pairwiseAESKey(peerID party.ID) ([]byte, error) {
	peer, ok := c.peers[peerID]
	if !ok {
		return nil, fmt.Errorf("agg/client: unknown peer %s", peerID)
	}
	key, err := aggcrypto.PairwiseAESKey(c.encKeys.Private, peer.encPub, c.encKeys.Public, peer.encPub)
	if err != nil {
		return nil, fmt.Errorf("agg/client: failed to derive pairwise AES key with %s: %w", peerID, err)
	}
	return key, nil
}
