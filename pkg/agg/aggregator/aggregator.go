// Package aggregator implements the aggregator side of spec.md §4.3: the
// untrusted coordinator that routes ciphertexts, tracks the monotonically
// shrinking membership sets U1...U4, and reconstructs dropped clients'
// pairwise masks and surviving clients' self-masks to recover the sum.
package aggregator

import (
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

// State is the aggregator's position in its strict round sequence
// (spec.md §4.3's "State machine").
type State int

const (
	Init State = iota
	R0
	R1
	R2
	R3
	Done
)

func (s State) String() string {
	switch s {
	case Init:
		return "Init"
	case R0:
		return "R0"
	case R1:
		return "R1"
	case R2:
		return "R2"
	case R3:
		return "R3"
	case Done:
		return "Done"
	default:
		return "Unknown"
	}
}

type peerRecord struct {
	seedPub *curve.Point
	encPub  *curve.Point
}

// Aggregator is the untrusted coordinator. It owns a flat PID -> PeerRecord
// table rather than pointers to live Client objects (spec.md §9's "Cycles /
// back-references" design note).
type Aggregator struct {
	n, t  int
	state State

	u1, u2, u3, u4 *party.Set
	peers          map[party.ID]peerRecord

	s uint32 // the running accumulator S

	workers *pool.Pool
}

// New constructs an aggregator for an N-party run with threshold t
// (spec.md §6's `newAggregator`).
func New(n, t int) *Aggregator {
	return &Aggregator{n: n, t: t, state: Init}
}

// UseWorkers attaches a worker pool the aggregator uses to parallelize its
// per-recipient bundle-digest computation in round1. A nil pool (the
// default) runs that work sequentially on the calling goroutine.
func (a *Aggregator) UseWorkers(p *pool.Pool) {
	a.workers = p
}

// State returns the aggregator's current position in Init->R0->R1->R2->R3->Done.
func (a *Aggregator) State() State { return a.state }

// Round0 collects every client's public key pair and returns the broadcast
// to redistribute to all clients (spec.md §4.3).
func (a *Aggregator) Round0(pubkeys map[party.ID]wire.PublicKeyEntry) (wire.PublicKeyBroadcast, error) {
	if a.state != Init {
		return nil, fmt.Errorf("agg/aggregator: Round0 called in state %v", a.state)
	}

	ids := make([]party.ID, 0, len(pubkeys))
	peers := make(map[party.ID]peerRecord, len(pubkeys))
	for id, entry := range pubkeys {
		seedPub, err := new(curve.Point).SetBytes(entry.SeedPK)
		if err != nil {
			return nil, fmt.Errorf("agg/aggregator: invalid seed public key for %s: %w", id, err)
		}
		encPub, err := new(curve.Point).SetBytes(entry.EncPK)
		if err != nil {
			return nil, fmt.Errorf("agg/aggregator: invalid enc public key for %s: %w", id, err)
		}
		ids = append(ids, id)
		peers[id] = peerRecord{seedPub: seedPub, encPub: encPub}
	}

	u1, err := party.NewSet(ids)
	if err != nil {
		return nil, fmt.Errorf("agg/aggregator: invalid round0 roster: %w", err)
	}
	if u1.N() < a.t {
		return nil, fmt.Errorf("%w: |U1|=%d, t=%d", agg.BelowThreshold, u1.N(), a.t)
	}

	a.u1 = u1
	a.peers = peers
	a.state = R0

	broadcast := make(wire.PublicKeyBroadcast, len(pubkeys))
	for id, entry := range pubkeys {
		broadcast[id] = entry
	}
	return broadcast, nil
}

// Round1 computes U2 from the clients reported up, pivots every sender's
// outgoing ciphertexts into one bundle per recipient, and returns each
// bundle alongside its integrity digest (spec.md §4.3). A recipient must
// recompute agg.BundleDigest over the delivered bundle and reject it on
// mismatch before attempting any per-ciphertext decryption.
func (a *Aggregator) Round1(up []party.ID, outgoing map[party.ID]map[party.ID]wire.CiphertextEntry) (map[party.ID]wire.CiphertextBundle, map[party.ID][]byte, error) {
	if a.state != R0 {
		return nil, nil, fmt.Errorf("agg/aggregator: Round1 called in state %v", a.state)
	}

	u2 := a.u1.Intersect(mustSet(up))
	if u2.N() < a.t {
		return nil, nil, fmt.Errorf("%w: |U2|=%d, t=%d", agg.BelowThreshold, u2.N(), a.t)
	}
	a.u2 = u2

	bundles := make(map[party.ID]wire.CiphertextBundle, u2.N())
	for _, recipient := range u2.Sorted() {
		bundles[recipient] = wire.CiphertextBundle{}
	}
	for _, sender := range u2.Sorted() {
		for recipient, entry := range outgoing[sender] {
			if !u2.Contains(recipient) {
				continue
			}
			bundles[recipient][sender] = entry
		}
	}

	recipients := u2.Sorted()
	digestsRaw := a.workers.Parallelize(len(recipients), func(i int) interface{} {
		return agg.BundleDigest(bundles[recipients[i]])
	})
	digests := make(map[party.ID][]byte, len(recipients))
	for i, recipient := range recipients {
		digests[recipient] = digestsRaw[i].([]byte)
	}

	a.state = R1
	return bundles, digests, nil
}

// Round2 computes U3 from the clients reported up, sums every surviving
// client's masked value into S, and returns U3 for broadcast (spec.md §4.3).
func (a *Aggregator) Round2(up []party.ID, maskedValues map[party.ID]uint32) (wire.SurvivorsList, error) {
	if a.state != R1 {
		return nil, fmt.Errorf("agg/aggregator: Round2 called in state %v", a.state)
	}

	u3 := a.u2.Intersect(mustSet(up))
	if u3.N() < a.t {
		return nil, fmt.Errorf("%w: |U3|=%d, t=%d", agg.BelowThreshold, u3.N(), a.t)
	}
	a.u3 = u3

	var s uint32
	for _, id := range u3.Sorted() {
		s += maskedValues[id]
	}
	a.s = s

	a.state = R2
	return wire.SurvivorsList(u3.Sorted()), nil
}

// Round3 computes U4 from the clients reported up, reconstructs every dead
// peer's K_seed (to undo its pairwise masks) and every surviving peer's
// self-mask seed, and returns the reconstructed mean (spec.md §4.3).
func (a *Aggregator) Round3(up []party.ID, shareResponses map[party.ID]wire.ShareResponse) (float64, error) {
	if a.state != R2 {
		return 0, fmt.Errorf("agg/aggregator: Round3 called in state %v", a.state)
	}

	u4 := a.u3.Intersect(mustSet(up))
	if u4.N() < a.t {
		return 0, fmt.Errorf("%w: |U4|=%d, t=%d", agg.BelowThreshold, u4.N(), a.t)
	}
	a.u4 = u4

	dead := a.u2.Remove(a.u3.Sorted()...)

	// Ordering rationale (spec.md §4.3): pairwise reconstruction before
	// self-mask reconstruction, fixed for test-vector determinism.
	for _, d := range dead.Sorted() {
		sk, err := a.reconstructKey(d, shareResponses, u4)
		if err != nil {
			return 0, err
		}
		for _, j := range a.u3.Sorted() {
			peer, ok := a.peers[j]
			if !ok {
				return 0, fmt.Errorf("%w: unknown peer %s", agg.ReconstructionFailed, j)
			}
			seed := aggcrypto.PairwiseSeed(sk, peer.seedPub)
			draw := prng.NewFromSeed16(seed).Next()
			if j.Less(d) {
				a.s += draw
			} else {
				a.s -= draw
			}
		}
	}

	for _, alive := range a.u3.Sorted() {
		seed, err := a.reconstructSelfMaskSeed(alive, shareResponses, u4)
		if err != nil {
			return 0, err
		}
		draw := prng.NewFromSeed32(seed).Next()
		a.s -= draw
	}

	mean := agg.FromFixedPoint(a.s, a.u3.N())
	a.state = Done
	return mean, nil
}

// reconstructKey gathers >=t key shares of d's K_seed disclosed by U4, and
// Lagrange-reconstructs the scalar, verifying it against d's broadcast
// public key (spec.md §9's "exported-key round-trip").
func (a *Aggregator) reconstructKey(d party.ID, shareResponses map[party.ID]wire.ShareResponse, u4 *party.Set) (*curve.Scalar, error) {
	sk, err := a.reconstructScalar(d, wire.ShareKindKey, shareResponses, u4)
	if err != nil {
		return nil, err
	}
	peer, ok := a.peers[d]
	if !ok {
		return nil, fmt.Errorf("%w: unknown dead peer %s", agg.ReconstructionFailed, d)
	}
	if !sk.ActOnBase().Equal(peer.seedPub) {
		return nil, fmt.Errorf("%w: reconstructed key for %s does not match its broadcast public key", agg.ReconstructionFailed, d)
	}
	return sk, nil
}

// reconstructSelfMaskSeed gathers >=t self-seed shares of alive's self-mask
// seed disclosed by U4, Lagrange-reconstructs the scalar, and recovers the
// original uint32 seed from its low 4 bytes.
func (a *Aggregator) reconstructSelfMaskSeed(alive party.ID, shareResponses map[party.ID]wire.ShareResponse, u4 *party.Set) (uint32, error) {
	secret, err := a.reconstructScalar(alive, wire.ShareKindSeed, shareResponses, u4)
	if err != nil {
		return 0, err
	}
	b := secret.Bytes()
	return uint32(b[28])<<24 | uint32(b[29])<<16 | uint32(b[30])<<8 | uint32(b[31]), nil
}

// reconstructScalar gathers >=t shares of the given kind disclosed for
// subject by U4 members, and Lagrange-reconstructs the shared scalar.
func (a *Aggregator) reconstructScalar(subject party.ID, kind wire.ShareKind, shareResponses map[party.ID]wire.ShareResponse, u4 *party.Set) (*curve.Scalar, error) {
	var indices []*curve.Scalar
	var values []*curve.Scalar
	for _, discloser := range u4.Sorted() {
		entry, ok := shareResponses[discloser][subject]
		if !ok || entry.Kind != kind {
			continue
		}
		var value curve.Scalar
		if _, err := value.SetBytes(entry.ShareBytes); err != nil {
			continue
		}
		indices = append(indices, party.ShareIndex(entry.Index).Scalar())
		values = append(values, &value)
	}
	if len(indices) < a.t {
		return nil, fmt.Errorf("%w: only %d shares for %s, need %d", agg.ReconstructionFailed, len(indices), subject, a.t)
	}
	indices = indices[:a.t]
	values = values[:a.t]

	coeffs := polynomial.Lagrange(indices)
	result := curve.NewScalar()
	for i, c := range coeffs {
		term := curve.NewScalar().Mul(c, values[i])
		result = curve.NewScalar().Add(result, term)
	}
	return result, nil
}

// AggregateWithoutSecrecy computes the plaintext mean of secrets held by
// U3, for validating the masked protocol's output (spec.md §6).
func (a *Aggregator) AggregateWithoutSecrecy(secrets map[party.ID]float64) float64 {
	if a.u3 == nil || a.u3.N() == 0 {
		return 0
	}
	var sum float64
	for _, id := range a.u3.Sorted() {
		sum += secrets[id]
	}
	return sum / float64(a.u3.N())
}

func mustSet(ids []party.ID) *party.Set {
	s, err := party.NewSet(ids)
	if err != nil {
		panic("agg/aggregator: " + err.Error())
	}
	return s
}
