package nettest

import "github.com/taurusgroup/secure-aggregation/pkg/party"

// Handler is anything that can be pumped by HandlerLoop: it emits outgoing
// messages on Listen(), and consumes incoming ones via Accept.
type Handler interface {
	Listen() <-chan *Message
	Accept(msg *Message)
}

// HandlerLoop blocks until h has nothing left to send, relaying every
// outgoing message through network and delivering every incoming one to h.
func HandlerLoop(id party.ID, h Handler, network *Network) {
	for {
		select {
		case msg, ok := <-h.Listen():
			if !ok {
				<-network.Done(id)
				return
			}
			go network.Send(msg)

		case msg := <-network.Next(id):
			h.Accept(msg)
		}
	}
}
