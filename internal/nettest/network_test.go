package nettest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/taurusgroup/secure-aggregation/pkg/party"
)

// recordingHandler accepts exactly one message, stashes it, then shuts
// down — just enough to exercise Network/HandlerLoop's wiring end to end.
type recordingHandler struct {
	out      chan *Message
	received chan *Message
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{out: make(chan *Message), received: make(chan *Message, 1)}
}

func (h *recordingHandler) Listen() <-chan *Message { return h.out }

func (h *recordingHandler) Accept(msg *Message) {
	h.received <- msg
	close(h.out)
}

func TestNetworkDeliversMessage(t *testing.T) {
	alice := party.IDFromUint64(1)
	bob := party.IDFromUint64(2)
	net := NewNetwork(party.IDSlice{bob})

	bobHandler := newRecordingHandler()
	go HandlerLoop(bob, bobHandler, net)

	net.Send(&Message{From: alice, To: bob, Round: 1, Payload: "hello"})

	select {
	case msg := <-bobHandler.received:
		assert.Equal(t, "hello", msg.Payload)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	select {
	case <-net.Done(bob):
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Done")
	}
}

func TestQuitRemovesParty(t *testing.T) {
	alice := party.IDFromUint64(1)
	bob := party.IDFromUint64(2)
	net := NewNetwork(party.IDSlice{alice, bob})
	net.Next(alice) // force lazy init

	net.Quit(bob)
	assert.False(t, net.parties.Contains(bob))
}
