package consensus

import (
	"fmt"

	"github.com/castornet/castor/src/peers"
)

// Event is the closed union of events owned by the era supervisor.
type Event interface {
	fmt.Stringer
	consensusEvent()
}

// Timer fires when the current era's duration has elapsed.
type Timer struct{}

// MessageReceived reports a consensus message arriving from a peer.
type MessageReceived struct {
	Sender peers.ID
	Msg    Message
}

// AcceptDeploy marks a stored deploy as a candidate for the next proposal.
type AcceptDeploy struct {
	Hash string
}

// BlockStored reports the outcome of persisting a proposed block.
type BlockStored struct {
	Hash string
	Err  error
}

func (Timer) consensusEvent()           {}
func (MessageReceived) consensusEvent() {}
func (AcceptDeploy) consensusEvent()    {}
func (BlockStored) consensusEvent()     {}

func (Timer) String() string { return "era timer expired" }

func (e MessageReceived) String() string {
	return fmt.Sprintf("%s from %d", e.Msg, e.Sender)
}

func (e AcceptDeploy) String() string { return fmt.Sprintf("accept deploy %.8s", e.Hash) }

func (e BlockStored) String() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to store block %.8s: %v", e.Hash, e.Err)
	}
	return fmt.Sprintf("stored block %.8s", e.Hash)
}
