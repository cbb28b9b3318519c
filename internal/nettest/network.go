// Package nettest provides a channel-based transport simulation, so the
// four rounds can be pumped through goroutines and channels for a closer
// approximation of a real deployment than direct synchronous calls.
package nettest

import (
	"sync"

	"github.com/taurusgroup/secure-aggregation/pkg/party"
)

// Message is one envelope travelling between the aggregator and a client.
// Round identifies which of the four protocol rounds produced it; Payload
// carries the round's wire type (a wire.PublicKeyBroadcast,
// wire.CiphertextBundle, wire.SurvivorsList, or wire.ShareResponse).
type Message struct {
	From, To party.ID
	Round    int
	Payload  interface{}
}

// Network fans out Messages between registered parties over buffered
// channels.
type Network struct {
	parties          party.IDSlice
	listenChannels   map[party.ID]chan *Message
	done             chan struct{}
	closedListenChan chan *Message
	mtx              sync.Mutex
}

// NewNetwork builds a Network for the given fixed set of parties.
func NewNetwork(parties party.IDSlice) *Network {
	closed := make(chan *Message)
	close(closed)
	return &Network{
		parties:          parties,
		listenChannels:   make(map[party.ID]chan *Message, len(parties)),
		closedListenChan: closed,
	}
}

func (n *Network) init() {
	count := len(n.parties)
	for _, id := range n.parties {
		n.listenChannels[id] = make(chan *Message, count*count)
	}
	n.done = make(chan struct{})
}

// Next returns the channel on which id receives incoming messages.
func (n *Network) Next(id party.ID) <-chan *Message {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	if len(n.listenChannels) == 0 {
		n.init()
	}
	c, ok := n.listenChannels[id]
	if !ok {
		return n.closedListenChan
	}
	return c
}

// Send delivers msg to its recipient's channel.
func (n *Network) Send(msg *Message) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	if c, ok := n.listenChannels[msg.To]; ok {
		c <- msg
	}
}

// Done closes id's channel, signalling it has nothing left to send, and
// returns a channel that closes once every party has done so.
func (n *Network) Done(id party.ID) chan struct{} {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	if c, ok := n.listenChannels[id]; ok {
		close(c)
		delete(n.listenChannels, id)
	}
	if len(n.listenChannels) == 0 {
		close(n.done)
	}
	return n.done
}

// Quit removes id from the network's party list, e.g. after putDown().
func (n *Network) Quit(id party.ID) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	remaining := make(party.IDSlice, 0, len(n.parties))
	for _, p := range n.parties {
		if !p.Equal(id) {
			remaining = append(remaining, p)
		}
	}
	n.parties = remaining
}
