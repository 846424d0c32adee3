package gossiper

import (
	"fmt"

	"github.com/castornet/castor/src/peers"
	"github.com/castornet/castor/src/types"
)

// Event is the closed union of events owned by the deploy gossiper.
type Event interface {
	fmt.Stringer
	gossiperEvent()
}

// Request asks the gossiper to disseminate a locally submitted deploy.
type Request struct {
	Deploy *types.Deploy
}

// MessageReceived reports gossip arriving from a peer.
type MessageReceived struct {
	Sender peers.ID
	Msg    Message
}

// DeployStored reports the outcome of storing a gossiped deploy, carrying
// what is needed to relay it further.
type DeployStored struct {
	Deploy *types.Deploy
	From   peers.ID
	Hops   int
	Err    error
}

func (Request) gossiperEvent()         {}
func (MessageReceived) gossiperEvent() {}
func (DeployStored) gossiperEvent()    {}

func (e Request) String() string { return fmt.Sprintf("gossip request for %s", e.Deploy) }

func (e MessageReceived) String() string {
	return fmt.Sprintf("%s from %d", e.Msg, e.Sender)
}

func (e DeployStored) String() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to store %s: %v", e.Deploy, e.Err)
	}
	return fmt.Sprintf("stored %s", e.Deploy)
}
