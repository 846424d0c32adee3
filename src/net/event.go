package net

import (
	"fmt"

	"github.com/castornet/castor/src/peers"
)

// Event is the closed union of events owned by the network component. The
// payload bytes are opaque at this level: the reactor encodes its message
// union before handing it to the transport.
type Event interface {
	fmt.Stringer
	netEvent()
}

// Send delivers an encoded payload to one peer.
type Send struct {
	To    peers.ID
	Bytes []byte
}

// Broadcast delivers an encoded payload to every known peer.
type Broadcast struct {
	Bytes []byte
}

// SendFailed reports a delivery failure. It is consumed by the network
// component itself, which logs it; the gossip protocols tolerate loss.
type SendFailed struct {
	To  peers.ID
	Err error
}

// ListenerStopped reports that the accept loop exited with an error.
type ListenerStopped struct {
	Err error
}

func (Send) netEvent()            {}
func (Broadcast) netEvent()       {}
func (SendFailed) netEvent()      {}
func (ListenerStopped) netEvent() {}

func (e Send) String() string      { return fmt.Sprintf("send %d bytes to %d", len(e.Bytes), e.To) }
func (e Broadcast) String() string { return fmt.Sprintf("broadcast %d bytes", len(e.Bytes)) }

func (e SendFailed) String() string {
	return fmt.Sprintf("send to %d failed: %v", e.To, e.Err)
}

func (e ListenerStopped) String() string { return fmt.Sprintf("listener stopped: %v", e.Err) }
