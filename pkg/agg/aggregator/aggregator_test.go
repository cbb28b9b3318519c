package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taurusgroup/secure-aggregation/internal/wire"
	"github.com/taurusgroup/secure-aggregation/pkg/agg"
	"github.com/taurusgroup/secure-aggregation/pkg/curve"
	"github.com/taurusgroup/secure-aggregation/pkg/party"
)

func samplePubkeys(ids []party.ID) map[party.ID]wire.PublicKeyEntry {
	out := make(map[party.ID]wire.PublicKeyEntry, len(ids))
	for _, id := range ids {
		out[id] = wire.PublicKeyEntry{
			SeedPK: curve.SampleScalar().ActOnBase().Bytes(),
			EncPK:  curve.SampleScalar().ActOnBase().Bytes(),
		}
	}
	return out
}

func roster(n int) []party.ID {
	ids := make([]party.ID, n)
	for i := range ids {
		ids[i] = party.IDFromUint64(uint64(i + 1))
	}
	return ids
}

func TestRound0RejectsBelowThreshold(t *testing.T) {
	a := New(5, 3)
	_, err := a.Round0(samplePubkeys(roster(2)))
	require.ErrorIs(t, err, agg.BelowThreshold)
}

func TestRound0AdvancesState(t *testing.T) {
	a := New(4, 2)
	_, err := a.Round0(samplePubkeys(roster(4)))
	require.NoError(t, err)
	assert.Equal(t, R0, a.State())
}

func TestRound1CalledOutOfOrderFails(t *testing.T) {
	a := New(4, 2)
	_, _, err := a.Round1(roster(4), nil)
	require.Error(t, err)
}

func TestRound1RejectsBelowThresholdAfterDropout(t *testing.T) {
	a := New(4, 3)
	ids := roster(4)
	_, err := a.Round0(samplePubkeys(ids))
	require.NoError(t, err)

	_, _, err = a.Round1(ids[:2], map[party.ID]map[party.ID]wire.CiphertextEntry{})
	require.ErrorIs(t, err, agg.BelowThreshold)
}

func TestAggregateWithoutSecrecyAveragesU3(t *testing.T) {
	a := New(3, 2)
	ids := roster(3)
	_, err := a.Round0(samplePubkeys(ids))
	require.NoError(t, err)
	_, _, err = a.Round1(ids, map[party.ID]map[party.ID]wire.CiphertextEntry{})
	require.NoError(t, err)
	_, err = a.Round2(ids, map[party.ID]uint32{})
	require.NoError(t, err)

	secrets := map[party.ID]float64{ids[0]: 10, ids[1]: 20, ids[2]: 30}
	assert.InDelta(t, 20.0, a.AggregateWithoutSecrecy(secrets), 1e-9)
}

func TestStateStringsAreDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range []State{Init, R0, R1, R2, R3, Done} {
		str := s.String()
		assert.False(t, seen[str], "duplicate state string %q", str)
		seen[str] = true
	}
}
