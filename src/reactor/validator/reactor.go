// Package validator implements the reactor for validator nodes, which join
// the validator-only network upon startup. It owns one instance of each
// subsystem, the shared random source, and the single dispatch function that
// routes every event to its owner.
package validator

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/castornet/castor/src/components/apiserver"
	"github.com/castornet/castor/src/components/consensus"
	"github.com/castornet/castor/src/components/gossiper"
	"github.com/castornet/castor/src/components/pinger"
	"github.com/castornet/castor/src/components/storage"
	"github.com/castornet/castor/src/effects"
	"github.com/castornet/castor/src/net"
	"github.com/castornet/castor/src/peers"
	"github.com/castornet/castor/src/version"
)

// Reactor owns every subsystem of a validator node. It is constructed
// exactly once, at process start, and lives for the process lifetime; no
// subsystem is ever reconstructed, only mutated through DispatchEvent.
type Reactor struct {
	net            *net.Network
	pinger         *pinger.Pinger
	storage        *storage.Store
	apiServer      *apiserver.APIServer
	consensus      *consensus.EraSupervisor
	deployGossiper *gossiper.Gossiper

	rng    *rand.Rand
	logger *logrus.Entry
}

// New constructs each subsystem in a fixed order, network first since its
// identity is needed for diagnostics and for the components that follow.
// Construction is fail-fast: the first failing subsystem aborts the whole
// reactor, because a node with a missing subsystem has no well-defined
// degraded mode. On success it returns the reactor plus the wrapped startup
// effects collected from every subsystem.
func New(cfg Config, queue effects.EventQueueHandle, logger *logrus.Entry) (*Reactor, []effects.Effect[effects.ReactorEvent], error) {
	peerStore := peers.NewJSONPeers(cfg.DataDir)
	peerSet, err := peerStore.Peers()
	if err != nil {
		return nil, nil, Error{Component: ComponentPeerStore, Err: err}
	}

	network, netEffects, err := net.New(cfg.Net, peerSet, DecodeMessage, queue, logger)
	if err != nil {
		return nil, nil, Error{Component: ComponentNetwork, Err: err}
	}

	pngr, pingerEffects := pinger.New(cfg.Pinger, logger)

	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		network.Close()
		return nil, nil, Error{Component: ComponentStorage, Err: err}
	}

	info := apiserver.NodeInfo{
		Moniker:   cfg.Moniker,
		ID:        uint32(network.ID()),
		PubKeyHex: network.PubKeyHex(),
		Version:   version.Version,
	}
	api, apiEffects, err := apiserver.New(cfg.API, queue, info, peerSet, logger)
	if err != nil {
		store.Close()
		network.Close()
		return nil, nil, Error{Component: ComponentAPIServer, Err: err}
	}

	eraSupervisor, consensusEffects := consensus.New(cfg.Consensus, network.PubKeyHex(), peerSet, logger)

	deployGossiper := gossiper.New(cfg.Gossip, network.ID(), peerSet, logger)

	r := &Reactor{
		net:            network,
		pinger:         pngr,
		storage:        store,
		apiServer:      api,
		consensus:      eraSupervisor,
		deployGossiper: deployGossiper,
		rng:            rand.New(rand.NewSource(seed(cfg.Seed))),
		logger:         logger.WithField("id", network.ID()),
	}

	out := effects.WrapEffects(r.wrapNetwork, netEffects)
	out = append(out, effects.WrapEffects(r.wrapPinger, pingerEffects)...)
	out = append(out, effects.WrapEffects(r.wrapAPIServer, apiEffects)...)
	out = append(out, effects.WrapEffects(r.wrapConsensus, consensusEffects)...)

	return r, out, nil
}

// seed derives the random-source seed: the configured value when set,
// otherwise fresh entropy. The seed is the sole entropy source of the whole
// node, which is what makes simulated runs reproducible.
func seed(configured int64) int64 {
	if configured != 0 {
		return configured
	}
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic(err)
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// ID returns the node's network identifier.
func (r *Reactor) ID() peers.ID {
	return r.net.ID()
}

// Close releases the reactor's owned resources. Only used on shutdown.
func (r *Reactor) Close() {
	r.storage.Close()
	r.net.Close()
}

// DispatchEvent routes an event to the subsystem that owns it and wraps the
// resulting effects so their resolutions re-enter dispatch correctly
// addressed. It performs pure routing with delegated mutation: it never
// mutates more than one subsystem per call and never blocks.
func (r *Reactor) DispatchEvent(b effects.EffectBuilder, event effects.ReactorEvent) []effects.Effect[effects.ReactorEvent] {
	switch ev := event.(type) {
	case NetworkEvent:
		return effects.WrapEffects(r.wrapNetwork, r.net.HandleEvent(b, r.rng, ev.E))
	case PingerEvent:
		return effects.WrapEffects(r.wrapPinger, r.pinger.HandleEvent(b, r.rng, ev.E))
	case StorageEvent:
		return effects.WrapEffects(r.wrapStorage, r.storage.HandleEvent(b, r.rng, ev.R))
	case APIServerEvent:
		return effects.WrapEffects(r.wrapAPIServer, r.apiServer.HandleEvent(b, r.rng, ev.E))
	case ConsensusEvent:
		return effects.WrapEffects(r.wrapConsensus, r.consensus.HandleEvent(b, r.rng, ev.E))
	case DeployGossiperEvent:
		return effects.WrapEffects(r.wrapGossiper, r.deployGossiper.HandleEvent(b, r.rng, ev.E))

	// Requests: lift the unwrapped request into its owner's event.
	case effects.NetworkRequest:
		return r.dispatchNetworkRequest(b, ev)
	case effects.StorageRequest:
		return r.DispatchEvent(b, StorageEvent{R: ev})
	case effects.APIRequest:
		return r.DispatchEvent(b, APIServerEvent{E: apiserver.Request{R: ev}})
	case effects.GossipDeployRequest:
		return r.DispatchEvent(b, DeployGossiperEvent{E: gossiper.Request{Deploy: ev.Deploy}})
	case effects.AcceptDeployRequest:
		return r.DispatchEvent(b, ConsensusEvent{E: consensus.AcceptDeploy{Hash: ev.Hash}})

	// Announcements: route the decoded message to its owning subsystem.
	case effects.NetworkAnnouncement:
		return r.dispatchAnnouncement(b, ev)

	default:
		// Dispatch never fails, but it never drops silently either.
		r.logger.WithField("event", event.String()).Error("unhandled reactor event")
		return nil
	}
}

// dispatchNetworkRequest lifts the subsystem's own message type into the
// wire message union, encodes it, and re-dispatches as a network event. Each
// subsystem can request sends using only its own type; the injection happens
// here.
func (r *Reactor) dispatchNetworkRequest(b effects.EffectBuilder, req effects.NetworkRequest) []effects.Effect[effects.ReactorEvent] {
	var msg Message
	switch payload := req.Payload.(type) {
	case pinger.Message:
		msg = PingerMessage{M: payload}
	case consensus.Message:
		msg = ConsensusMessage{M: payload}
	case gossiper.Message:
		msg = DeployGossiperMessage{M: payload}
	case Message:
		msg = payload
	default:
		r.logger.WithField("payload", req.Payload.String()).Error("network request with unroutable payload")
		return nil
	}

	data, err := EncodeMessage(msg)
	if err != nil {
		r.logger.WithError(err).Error("encoding outgoing message")
		return nil
	}

	if req.Broadcast {
		return r.DispatchEvent(b, NetworkEvent{E: net.Broadcast{Bytes: data}})
	}
	return r.DispatchEvent(b, NetworkEvent{E: net.Send{To: req.To, Bytes: data}})
}

// dispatchAnnouncement re-routes an incoming message to the subsystem that
// owns its variant. The match is exhaustive over the Message union; a
// payload outside the union can only mean a decoder drift and is logged, not
// dropped silently.
func (r *Reactor) dispatchAnnouncement(b effects.EffectBuilder, ann effects.NetworkAnnouncement) []effects.Effect[effects.ReactorEvent] {
	var reactorEvent effects.ReactorEvent
	switch msg := ann.Payload.(type) {
	case PingerMessage:
		reactorEvent = PingerEvent{E: pinger.MessageReceived{Sender: ann.Sender, Msg: msg.M}}
	case ConsensusMessage:
		reactorEvent = ConsensusEvent{E: consensus.MessageReceived{Sender: ann.Sender, Msg: msg.M}}
	case DeployGossiperMessage:
		reactorEvent = DeployGossiperEvent{E: gossiper.MessageReceived{Sender: ann.Sender, Msg: msg.M}}
	default:
		r.logger.WithField("payload", ann.Payload.String()).Error("announcement with unroutable payload")
		return nil
	}

	return r.DispatchEvent(b, reactorEvent)
}

func (r *Reactor) wrapNetwork(e net.Event) effects.ReactorEvent { return NetworkEvent{E: e} }
func (r *Reactor) wrapPinger(e pinger.Event) effects.ReactorEvent { return PingerEvent{E: e} }
func (r *Reactor) wrapAPIServer(e apiserver.Event) effects.ReactorEvent { return APIServerEvent{E: e} }
func (r *Reactor) wrapConsensus(e consensus.Event) effects.ReactorEvent { return ConsensusEvent{E: e} }
func (r *Reactor) wrapGossiper(e gossiper.Event) effects.ReactorEvent { return DeployGossiperEvent{E: e} }

func (r *Reactor) wrapStorage(e effects.StorageRequest) effects.ReactorEvent {
	return StorageEvent{R: e}
}
