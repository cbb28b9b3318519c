package e2e

import (
	"fmt"

	"github.com/taurusgroup/secure-aggregation/internal/nettest"
	"github.com/taurusgroup/secure-aggregation/internal/wire"
	"github.com/taurusgroup/secure-aggregation/pkg/agg/aggregator"
	"github.com/taurusgroup/secure-aggregation/pkg/agg/client"
	"github.com/taurusgroup/secure-aggregation/pkg/party"
)

// oneShotHandler receives exactly one message destined for id, then closes
// its outgoing channel so HandlerLoop returns once Network.Done unblocks it.
type oneShotHandler struct {
	out      chan *nettest.Message
	received chan *nettest.Message
}

func newOneShotHandler() *oneShotHandler {
	return &oneShotHandler{out: make(chan *nettest.Message), received: make(chan *nettest.Message, 1)}
}

func (h *oneShotHandler) Listen() <-chan *nettest.Message { return h.out }

func (h *oneShotHandler) Accept(msg *nettest.Message) {
	h.received <- msg
	close(h.out)
}

// deliverOverNetwork sends one payload to each of the given recipients over
// a Network scoped to exactly that recipient set — each round's delivery
// gets its own Network, since Network's Done/teardown contract expects its
// full registered party list to eventually call Done, and a shrinking U_i
// means that list changes round to round.
func deliverOverNetwork(from party.ID, round int, payloads map[party.ID]interface{}) map[party.ID]interface{} {
	recipients := make(party.IDSlice, 0, len(payloads))
	for id := range payloads {
		recipients = append(recipients, id)
	}
	net := nettest.NewNetwork(recipients)
	if len(recipients) > 0 {
		net.Next(recipients[0]) // force channel init before any Send races in
	}

	handlers := make(map[party.ID]*oneShotHandler, len(payloads))
	for id := range payloads {
		h := newOneShotHandler()
		handlers[id] = h
		go nettest.HandlerLoop(id, h, net)
	}
	for id, payload := range payloads {
		net.Send(&nettest.Message{From: from, To: id, Round: round, Payload: payload})
	}
	received := make(map[party.ID]interface{}, len(payloads))
	for id, h := range handlers {
		received[id] = (<-h.received).Payload
		<-net.Done(id)
	}
	return received
}

// RunOverNetwork drives the same four rounds as Run, but delivers the
// aggregator's round 0-2 output to the clients through internal/nettest's
// channel-based Network rather than a direct map lookup, exercising the
// transport-simulation harness end to end. Client-to-aggregator messages
// and round 3 use direct calls, as in Run.
func RunOverNetwork(scenario Scenario) (Result, error) {
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
	aggregatorID := party.IDFromUint64(uint64(n + 1))

	// round 0
	pubkeys := make(map[party.ID]wire.PublicKeyEntry, n)
	for _, c := range clients {
		pubkeys[c.ID()] = c.Round0()
	}
	broadcast, err := agg.Round0(pubkeys)
	if err != nil {
		return Result{}, fmt.Errorf("e2e: round0: %w", err)
	}
	toDeliver := make(map[party.ID]interface{}, n)
	for _, c := range clients {
		toDeliver[c.ID()] = broadcast
	}
	delivered := deliverOverNetwork(aggregatorID, 0, toDeliver)
	for _, c := range clients {
		payload, ok := delivered[c.ID()].(wire.PublicKeyBroadcast)
		if !ok {
			return Result{}, fmt.Errorf("e2e: round0 delivery to %s: unexpected payload type", c.ID())
		}
		if err := c.ReceiveClients(payload); err != nil {
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
	toDeliver = make(map[party.ID]interface{}, len(bundles))
	for recipient, bundle := range bundles {
		toDeliver[recipient] = bundle
	}
	delivered = deliverOverNetwork(aggregatorID, 1, toDeliver)

	digestsToDeliver := make(map[party.ID]interface{}, len(digests))
	for recipient, digest := range digests {
		digestsToDeliver[recipient] = digest
	}
	deliveredDigests := deliverOverNetwork(aggregatorID, 1, digestsToDeliver)

	for _, c := range clients {
		if c.IsDown() {
			continue
		}
		payload, ok := delivered[c.ID()]
		if !ok {
			continue
		}
		bundle, ok := payload.(wire.CiphertextBundle)
		if !ok {
			return Result{}, fmt.Errorf("e2e: round1 delivery to %s: unexpected payload type", c.ID())
		}
		digest, ok := deliveredDigests[c.ID()].([]byte)
		if !ok {
			return Result{}, fmt.Errorf("e2e: round1 digest delivery to %s: unexpected payload type", c.ID())
		}
		if err := c.ReceiveCiphertexts(bundle, digest); err != nil {
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
	toDeliver = make(map[party.ID]interface{}, n)
	for _, c := range clients {
		if !c.IsDown() {
			toDeliver[c.ID()] = survivors
		}
	}
	delivered = deliverOverNetwork(aggregatorID, 2, toDeliver)
	for _, c := range clients {
		if c.IsDown() {
			continue
		}
		payload, ok := delivered[c.ID()].(wire.SurvivorsList)
		if !ok {
			return Result{}, fmt.Errorf("e2e: round2 delivery to %s: unexpected payload type", c.ID())
		}
		if err := c.ReceiveClientIDsU3(payload); err != nil {
			return Result{}, fmt.Errorf("e2e: round2 delivery to %s: %w", c.ID(), err)
		}
	}

	applyDropouts(clients, scenario.DropBeforeRound3)

	// round 3 — computed directly; there is nothing left to deliver back to
	// clients once the aggregator reconstructs the mean.
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
