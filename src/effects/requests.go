package effects

import (
	"fmt"

	"github.com/castornet/castor/src/peers"
	"github.com/castornet/castor/src/types"
)

/*
Request events are how one subsystem addresses another. A subsystem schedules
a request on the queue (usually through ScheduleEffect or RequestEvent); the
reactor routes it to the owning subsystem, which performs the work inside an
effect and answers through the responder when the request carries one.
*/

// NetworkRequest asks the network subsystem to deliver a payload to a peer,
// or to every known peer when Broadcast is set. Subsystems set Payload to
// their own message type; the reactor lifts it into the wire message union
// before handing it to the transport.
type NetworkRequest struct {
	To        peers.ID
	Broadcast bool
	Payload   Payload
}

// The Display prefix is stable; external tooling parses it.
func (r NetworkRequest) String() string {
	if r.Broadcast {
		return fmt.Sprintf("network request: broadcast %s", r.Payload)
	}
	return fmt.Sprintf("network request: send to %d: %s", r.To, r.Payload)
}

// StorageRequest is the closed union of operations on the durable store.
type StorageRequest interface {
	ReactorEvent
	storageRequest()
}

// DeployResult carries the outcome of a deploy lookup.
type DeployResult struct {
	Deploy *types.Deploy
	Err    error
}

// BlockResult carries the outcome of a block lookup.
type BlockResult struct {
	Block *types.Block
	Err   error
}

// HashesResult carries the outcome of a deploy-hash listing.
type HashesResult struct {
	Hashes []string
	Err    error
}

// PutDeployRequest stores a deploy under its hash.
type PutDeployRequest struct {
	Deploy    *types.Deploy
	Responder Responder[error]
}

// GetDeployRequest retrieves a deploy by hex hash.
type GetDeployRequest struct {
	Hash      string
	Responder Responder[DeployResult]
}

// ListDeploysRequest lists the hex hashes of all stored deploys.
type ListDeploysRequest struct {
	Responder Responder[HashesResult]
}

// PutBlockRequest stores a finalized block and advances the latest-block
// pointer.
type PutBlockRequest struct {
	Block     *types.Block
	Responder Responder[error]
}

// GetBlockRequest retrieves a block by era.
type GetBlockRequest struct {
	Era       uint64
	Responder Responder[BlockResult]
}

// LatestBlockRequest retrieves the most recently stored block.
type LatestBlockRequest struct {
	Responder Responder[BlockResult]
}

func (PutDeployRequest) storageRequest()   {}
func (GetDeployRequest) storageRequest()   {}
func (ListDeploysRequest) storageRequest() {}
func (PutBlockRequest) storageRequest()    {}
func (GetBlockRequest) storageRequest()    {}
func (LatestBlockRequest) storageRequest() {}

func (r PutDeployRequest) String() string { return fmt.Sprintf("put %s", r.Deploy) }
func (r GetDeployRequest) String() string { return fmt.Sprintf("get deploy %.8s", r.Hash) }
func (ListDeploysRequest) String() string { return "list deploys" }
func (r PutBlockRequest) String() string  { return fmt.Sprintf("put %s", r.Block) }
func (r GetBlockRequest) String() string  { return fmt.Sprintf("get block for era %d", r.Era) }
func (LatestBlockRequest) String() string { return "get latest block" }

// APIRequest is the closed union of operations submitted through the public
// API server.
type APIRequest interface {
	ReactorEvent
	apiRequest()
}

// SubmitDeployRequest submits a new deploy for storage and dissemination.
type SubmitDeployRequest struct {
	Deploy    *types.Deploy
	Responder Responder[error]
}

// GetDeployAPIRequest retrieves a deploy on behalf of an API client.
type GetDeployAPIRequest struct {
	Hash      string
	Responder Responder[DeployResult]
}

func (SubmitDeployRequest) apiRequest() {}
func (GetDeployAPIRequest) apiRequest() {}

func (r SubmitDeployRequest) String() string { return fmt.Sprintf("submit %s", r.Deploy) }
func (r GetDeployAPIRequest) String() string { return fmt.Sprintf("get deploy %.8s", r.Hash) }

// GossipDeployRequest asks the deploy gossiper to disseminate a deploy.
type GossipDeployRequest struct {
	Deploy *types.Deploy
}

func (r GossipDeployRequest) String() string { return fmt.Sprintf("gossip %s", r.Deploy) }

// AcceptDeployRequest tells the consensus subsystem that a deploy has been
// stored and is a candidate for the next block proposal.
type AcceptDeployRequest struct {
	Hash string
}

func (r AcceptDeployRequest) String() string { return fmt.Sprintf("accept deploy %.8s", r.Hash) }
