package validator

import (
	"fmt"

	"github.com/castornet/castor/src/components/apiserver"
	"github.com/castornet/castor/src/components/consensus"
	"github.com/castornet/castor/src/components/gossiper"
	"github.com/castornet/castor/src/components/pinger"
	"github.com/castornet/castor/src/effects"
	"github.com/castornet/castor/src/net"
)

/*
Each subsystem owns exactly one event wrapper. The wrappers exist so that
dispatch is a closed type switch and so that every event logs with the
stable prefix of its owner.

Request and announcement events (effects.NetworkRequest, the StorageRequest
union, and friends) arrive on the queue unwrapped; dispatch lifts them into
the owning wrapper before routing.
*/

// NetworkEvent is an event owned by the network subsystem.
type NetworkEvent struct {
	E net.Event
}

// PingerEvent is an event owned by the pinger.
type PingerEvent struct {
	E pinger.Event
}

// StorageEvent is a request addressed to the durable store.
type StorageEvent struct {
	R effects.StorageRequest
}

// APIServerEvent is an event owned by the API server.
type APIServerEvent struct {
	E apiserver.Event
}

// ConsensusEvent is an event owned by the era supervisor.
type ConsensusEvent struct {
	E consensus.Event
}

// DeployGossiperEvent is an event owned by the deploy gossiper.
type DeployGossiperEvent struct {
	E gossiper.Event
}

// The event Display prefixes are stable; external tooling parses them.

func (e NetworkEvent) String() string        { return fmt.Sprintf("network: %s", e.E) }
func (e PingerEvent) String() string         { return fmt.Sprintf("pinger: %s", e.E) }
func (e StorageEvent) String() string        { return fmt.Sprintf("storage: %s", e.R) }
func (e APIServerEvent) String() string      { return fmt.Sprintf("api server: %s", e.E) }
func (e ConsensusEvent) String() string      { return fmt.Sprintf("consensus: %s", e.E) }
func (e DeployGossiperEvent) String() string { return fmt.Sprintf("deploy gossiper: %s", e.E) }
