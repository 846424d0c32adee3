package effects

import (
	"fmt"

	"github.com/castornet/castor/src/peers"
)

// NetworkAnnouncement reports that a message arrived from a peer. The payload
// has already been decoded to the wire message union by the decoder the
// reactor hands to the transport; the reactor re-routes it to the owning
// subsystem.
type NetworkAnnouncement struct {
	Sender  peers.ID
	Payload Payload
}

// The Display prefix is stable; external tooling parses it.
func (a NetworkAnnouncement) String() string {
	return fmt.Sprintf("network announcement: message from %d: %s", a.Sender, a.Payload)
}
