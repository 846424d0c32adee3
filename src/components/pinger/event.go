package pinger

import (
	"fmt"

	"github.com/castornet/castor/src/peers"
)

// Event is the closed union of events owned by the pinger.
type Event interface {
	fmt.Stringer
	pingerEvent()
}

// Timer fires when the ping interval has elapsed.
type Timer struct{}

// MessageReceived reports a ping or pong arriving from a peer.
type MessageReceived struct {
	Sender peers.ID
	Msg    Message
}

func (Timer) pingerEvent()           {}
func (MessageReceived) pingerEvent() {}

func (Timer) String() string { return "timer expired" }

func (e MessageReceived) String() string {
	return fmt.Sprintf("%s from %d", e.Msg, e.Sender)
}
