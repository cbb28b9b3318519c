package e2e

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// S1: with no dropouts, the masked protocol's output matches the plaintext
// mean within the fixed-point scale's rounding tolerance.
func TestNoDropoutCorrectness(t *testing.T) {
	secrets := []float64{1.5, 2.25, -3.75, 4.0, 0.5}
	result, err := Run(Scenario{T: 3, Secrets: secrets})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Survivors)
	assert.InDelta(t, mean(secrets), result.Mean, 1e-3)
	assert.InDelta(t, result.PlaintextMean, result.Mean, 1e-3)
}

// S2: a client dropping out after round1 (before round2) is excluded from
// U3 onward, and the remaining clients still recover a correct mean.
func TestDropoutAfterRound1Correctness(t *testing.T) {
	secrets := []float64{1.0, 2.0, 3.0, 4.0, 5.0}
	result, err := Run(Scenario{
		T:                3,
		Secrets:          secrets,
		DropBeforeRound2: []int{0},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Survivors)
	assert.InDelta(t, mean(secrets[1:]), result.Mean, 1e-3)
}

// S3 (pairwise cancellation): two independent runs over the same secrets
// with no dropouts must agree, which only holds if every pairwise mask
// cancels exactly between honest peers.
func TestPairwiseCancellationAcrossRuns(t *testing.T) {
	secrets := []float64{10, 20, 30, 40}
	r1, err := Run(Scenario{T: 3, Secrets: secrets})
	require.NoError(t, err)
	r2, err := Run(Scenario{T: 3, Secrets: secrets})
	require.NoError(t, err)
	assert.InDelta(t, r1.Mean, r2.Mean, 1e-9)
	assert.InDelta(t, mean(secrets), r1.Mean, 1e-3)
}

// S4 (idempotence/determinism): running the same scenario three times with fresh
// randomness at every layer still converges on the same reconstructed mean.
func TestDeterministicOutputAcrossIndependentRuns(t *testing.T) {
	secrets := []float64{-5, -2.5, 0, 2.5, 5, 7.5}
	for i := 0; i < 3; i++ {
		result, err := Run(Scenario{T: 4, Secrets: secrets})
		require.NoError(t, err)
		assert.InDelta(t, mean(secrets), result.Mean, 1e-3)
	}
}

// S5: a run dropping below threshold (N=2 clients, t=2) must fail once one
// client goes down after round1, since only one live client remains.
func TestThresholdRefusalBelowMinimum(t *testing.T) {
	secrets := []float64{1.0, 2.0}
	_, err := Run(Scenario{
		T:                2,
		Secrets:          secrets,
		DropBeforeRound2: []int{0},
	})
	require.Error(t, err)
}

// A client dropping after round2 (it masked but never disclosed) must not
// silently succeed if that leaves U4 below threshold; symmetric DH
// agreement and ciphertext-tamper integrity are covered directly in
// pkg/agg/crypto's tests.
func TestDropoutAfterRound2BelowThresholdFails(t *testing.T) {
	secrets := []float64{1.0, 2.0, 3.0}
	_, err := Run(Scenario{
		T:                3,
		Secrets:          secrets,
		DropBeforeRound3: []int{0},
	})
	require.Error(t, err)
}

// The channel-based delivery path must agree with the direct-call path on
// both a clean run and a run with a dropout.
func TestRunOverNetworkMatchesDirectRun(t *testing.T) {
	secrets := []float64{1.5, 2.25, -3.75, 4.0, 0.5}

	direct, err := Run(Scenario{T: 3, Secrets: secrets})
	require.NoError(t, err)
	viaNetwork, err := RunOverNetwork(Scenario{T: 3, Secrets: secrets})
	require.NoError(t, err)
	assert.InDelta(t, direct.Mean, viaNetwork.Mean, 1e-9)
	assert.Equal(t, direct.Survivors, viaNetwork.Survivors)

	secrets = []float64{1.0, 2.0, 3.0, 4.0, 5.0}
	direct, err = Run(Scenario{T: 3, Secrets: secrets, DropBeforeRound2: []int{0}})
	require.NoError(t, err)
	viaNetwork, err = RunOverNetwork(Scenario{T: 3, Secrets: secrets, DropBeforeRound2: []int{0}})
	require.NoError(t, err)
	assert.InDelta(t, direct.Mean, viaNetwork.Mean, 1e-9)
	assert.Equal(t, direct.Survivors, viaNetwork.Survivors)
}

func TestTwoSuccessiveDropoutsStillReconstruct(t *testing.T) {
	secrets := []float64{1, 2, 3, 4, 5, 6, 7}
	result, err := Run(Scenario{
		T:                4,
		Secrets:          secrets,
		DropBeforeRound2: []int{0},
		DropBeforeRound3: []int{1},
	})
	require.NoError(t, err)
	// client 0 drops before round2 (excluded from U3 entirely); client 1
	// drops before round3 but already contributed a masked value in round2,
	// so its secret is still counted — only its disclosure is missing, and
	// other clients' shares of its self-mask seed cover for it.
	assert.Equal(t, 6, result.Survivors)
	want := mean([]float64{2, 3, 4, 5, 6, 7})
	assert.InDelta(t, want, result.Mean, 1e-3)
	assert.False(t, math.IsNaN(result.Mean))
}
