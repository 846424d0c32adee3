package peers

import (
	"math/rand"
	"sort"
	"sync"
)

// Peers is an in-memory set of peers indexed by ID and public key.
type Peers struct {
	sync.RWMutex
	Sorted   []*Peer
	ByID     map[ID]*Peer
	ByPubKey map[string]*Peer
}

// NewPeers instantiates an empty Peers set.
func NewPeers() *Peers {
	return &Peers{
		ByID:     make(map[ID]*Peer),
		ByPubKey: make(map[string]*Peer),
	}
}

// NewPeersFromSlice instantiates a Peers set from a slice of peers.
func NewPeersFromSlice(source []*Peer) *Peers {
	peers := NewPeers()

	for _, peer := range source {
		peers.addPeerRaw(peer)
	}

	peers.internalSort()

	return peers
}

// addPeerRaw adds a peer without re-sorting.
func (p *Peers) addPeerRaw(peer *Peer) {
	if peer.ID() == 0 {
		peer.computeID()
	}

	p.ByID[peer.ID()] = peer
	p.ByPubKey[peer.PubKeyHex] = peer
}

// AddPeer adds a peer and keeps the sorted view consistent.
func (p *Peers) AddPeer(peer *Peer) {
	p.Lock()
	defer p.Unlock()

	p.addPeerRaw(peer)

	p.internalSort()
}

func (p *Peers) internalSort() {
	res := []*Peer{}

	for _, peer := range p.ByID {
		res = append(res, peer)
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].id < res[j].id
	})

	p.Sorted = res
}

// Len returns the number of peers in the set.
func (p *Peers) Len() int {
	p.RLock()
	defer p.RUnlock()

	return len(p.ByPubKey)
}

// Get returns the peer with the given ID, or nil.
func (p *Peers) Get(id ID) *Peer {
	p.RLock()
	defer p.RUnlock()

	return p.ByID[id]
}

// Slice returns the peers sorted by ID.
func (p *Peers) Slice() []*Peer {
	p.RLock()
	defer p.RUnlock()

	return p.Sorted
}

// IDs returns the peer IDs sorted ascending.
func (p *Peers) IDs() []ID {
	p.RLock()
	defer p.RUnlock()

	ids := make([]ID, 0, len(p.Sorted))
	for _, peer := range p.Sorted {
		ids = append(ids, peer.id)
	}
	return ids
}

// Sample returns up to count distinct peers drawn with rng, excluding the
// given IDs. The draw is deterministic for a given rng state, which the
// simulation tests rely on.
func (p *Peers) Sample(rng *rand.Rand, count int, exclude ...ID) []*Peer {
	p.RLock()
	defer p.RUnlock()

	excluded := make(map[ID]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	candidates := make([]*Peer, 0, len(p.Sorted))
	for _, peer := range p.Sorted {
		if _, ok := excluded[peer.id]; !ok {
			candidates = append(candidates, peer)
		}
	}

	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	if count > len(candidates) {
		count = len(candidates)
	}

	return candidates[:count]
}
