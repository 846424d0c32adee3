package validator

import (
	"github.com/castornet/castor/src/components/apiserver"
	"github.com/castornet/castor/src/components/consensus"
	"github.com/castornet/castor/src/components/gossiper"
	"github.com/castornet/castor/src/components/pinger"
	"github.com/castornet/castor/src/components/storage"
	"github.com/castornet/castor/src/net"
)

// Config aggregates the configuration of every subsystem the validator
// reactor owns. Each sub-config is opaque to the reactor beyond being handed
// to the matching constructor.
type Config struct {
	// Moniker is this node's friendly name.
	Moniker string

	// DataDir is the directory holding the peers file and keyfile.
	DataDir string

	// Seed fixes the shared random source for reproducible runs. Zero
	// means seed from entropy.
	Seed int64

	Net       net.Config
	Pinger    pinger.Config
	Storage   storage.Config
	API       apiserver.Config
	Consensus consensus.Config
	Gossip    gossiper.Config
}
