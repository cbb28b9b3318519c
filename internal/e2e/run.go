// Package e2e drives a complete four-round run directly against the
// client and aggregator state machines — the "single-threaded, cooperative
// per party" model of spec.md §5 — for use by this package's own property
// tests (spec.md §8).
package e2e

import (
	"fmt"

	"github.com/taurusgroup/secure-aggregation/internal/wire"
	"github.com/taurusgroup/secure-aggregation/pkg/agg/aggregator"
	"github.com/taurusgroup/secure-aggregation/pkg/agg/client"
	"github.com/taurusgroup/secure-aggregation/pkg/party"
)

// Scenario configures one end-to-end run: N clients with their secrets,
// a threshold t, and the dropout schedule to apply between rounds.
type Scenario struct {
	T                int
	Secrets          []float64
	DropBeforeRound1 []int // client indices, applied after round0 completes
	DropBeforeRound2 []int // applied after round1 completes
	DropBeforeRound3 []int // applied after round2 completes
}

// Result reports both the masked protocol's output and the plaintext
// validation mean, so callers can check them against each other directly.
type Result struct {
	Mean          float64
	PlaintextMean float64
	Survivors     int
}

// Run executes one complete protocol run for the given scenario, returning
// the aggregator's reconstructed mean.
func Run(scenario Scenario) (Result, error) {
	n := len(scenario.Secrets)
	ids := make([]party.ID, n)
	for i := range ids {
		ids[i] = party.IDFromUint64(uint64(i + 1))
	}

	clients := make([]*client.Client, n)
	secretsByID := make(map[party.ID]float64, n)
	for i, id := range ids {
		clients[i] = client.New(id, scenario.Secrets[i], n, scenario.T)
		secretsByID[id] = scenario.Secrets[i]
	}
	agg := aggregator.New(n, scenario.T)

	// round 0
	pubkeys := make(map[party.ID]wire.PublicKeyEntry, n)
	for _, c := range clients {
		pubkeys[c.ID()] = c.Round0()
	}
	broadcast, err := agg.Round0(pubkeys)
	if err != nil {
		return Result{}, fmt.Errorf("e2e: round0: %w", err)
	}
	for _, c := range clients {
		if err := c.ReceiveClients(broadcast); err != nil {
			return Result{}, fmt.Errorf("e2e: round0 delivery to %s: %w", c.ID(), err)
		}
	}

	applyDropouts(clients, scenario.DropBeforeRound1)

	// round 1
	outgoing := make(map[party.ID]map[party.ID]wire.CiphertextEntry, n)
	for _, c := range clients {
		if c.IsDown() {
			continue
		}
		out, err := c.Round1()
		if err != nil {
			return Result{}, fmt.Errorf("e2e: round1 at %s: %w", c.ID(), err)
		}
		outgoing[c.ID()] = out
	}
	bundles, digests, err := agg.Round1(upIDs(clients), outgoing)
	if err != nil {
		return Result{}, fmt.Errorf("e2e: round1: %w", err)
	}
	for _, c := range clients {
		if c.IsDown() {
			continue
		}
		bundle, ok := bundles[c.ID()]
		if !ok {
			continue
		}
		if err := c.ReceiveCiphertexts(bundle, digests[c.ID()]); err != nil {
			return Result{}, fmt.Errorf("e2e: round1 delivery to %s: %w", c.ID(), err)
		}
	}

	applyDropouts(clients, scenario.DropBeforeRound2)

	// round 2
	maskedValues := make(map[party.ID]uint32, n)
	for _, c := range clients {
		if c.IsDown() {
			continue
		}
		mv, err := c.Round2()
		if err != nil {
			return Result{}, fmt.Errorf("e2e: round2 at %s: %w", c.ID(), err)
		}
		maskedValues[c.ID()] = mv
	}
	survivors, err := agg.Round2(upIDs(clients), maskedValues)
	if err != nil {
		return Result{}, fmt.Errorf("e2e: round2: %w", err)
	}
	for _, c := range clients {
		if c.IsDown() {
			continue
		}
		if err := c.ReceiveClientIDsU3(survivors); err != nil {
			return Result{}, fmt.Errorf("e2e: round2 delivery to %s: %w", c.ID(), err)
		}
	}

	applyDropouts(clients, scenario.DropBeforeRound3)

	// round 3
	shareResponses := make(map[party.ID]wire.ShareResponse, n)
	for _, c := range clients {
		if c.IsDown() {
			continue
		}
		sr, err := c.Round3()
		if err != nil {
			return Result{}, fmt.Errorf("e2e: round3 at %s: %w", c.ID(), err)
		}
		shareResponses[c.ID()] = sr
	}
	mean, err := agg.Round3(upIDs(clients), shareResponses)
	if err != nil {
		return Result{}, fmt.Errorf("e2e: round3: %w", err)
	}

	return Result{
		Mean:          mean,
		PlaintextMean: agg.AggregateWithoutSecrecy(secretsByID),
		Survivors:     len(survivors),
	}, nil
}

func applyDropouts(clients []*client.Client, indices []int) {
	for _, i := range indices {
		clients[i].PutDown()
	}
}

func upIDs(clients []*client.Client) []party.ID {
	ids := make([]party.ID, 0, len(clients))
	for _, c := range clients {
		if !c.IsDown() {
			ids = append(ids, c.ID())
		}
	}
	return ids
}
