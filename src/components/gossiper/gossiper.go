// Package gossiper implements epidemic dissemination of deploys. A deploy
// submitted through the API, or heard from a peer for the first time, is
// stored and then relayed to a random selection of peers until its hop budget
// runs out.
package gossiper

import (
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/castornet/castor/src/effects"
	"github.com/castornet/castor/src/peers"
	"github.com/castornet/castor/src/types"
)

// Default gossip parameters.
const (
	DefaultFanout   = 3
	DefaultHopLimit = 4
)

// Config holds the gossip settings.
type Config struct {
	// Fanout is how many peers each round of gossip targets.
	Fanout int `mapstructure:"gossip-fanout"`

	// HopLimit bounds how many times a deploy is relayed.
	HopLimit int `mapstructure:"gossip-hops"`
}

// Gossiper is the deploy dissemination component.
type Gossiper struct {
	fanout   int
	hopLimit int
	self     peers.ID
	peers    *peers.Peers
	seen     map[string]struct{}
	logger   *logrus.Entry
}

// New instantiates the gossiper. It has no startup effects; it only reacts.
func New(cfg Config, self peers.ID, peerSet *peers.Peers, logger *logrus.Entry) *Gossiper {
	fanout := cfg.Fanout
	if fanout <= 0 {
		fanout = DefaultFanout
	}
	hopLimit := cfg.HopLimit
	if hopLimit <= 0 {
		hopLimit = DefaultHopLimit
	}

	return &Gossiper{
		fanout:   fanout,
		hopLimit: hopLimit,
		self:     self,
		peers:    peerSet,
		seen:     make(map[string]struct{}),
		logger:   logger,
	}
}

// HandleEvent implements the component contract.
func (g *Gossiper) HandleEvent(b effects.EffectBuilder, rng *rand.Rand, event Event) []effects.Effect[Event] {
	switch ev := event.(type) {
	case Request:
		// Locally submitted deploy: it is already stored by the API
		// path, so only announce and relay.
		hash := ev.Deploy.HashHex()
		if g.markSeen(hash) {
			return nil
		}
		out := []effects.Effect[Event]{
			effects.ScheduleEffect[Event](b, effects.AcceptDeployRequest{Hash: hash}),
		}
		return append(out, g.relay(b, rng, ev.Deploy, g.hopLimit, g.self)...)

	case MessageReceived:
		hash := ev.Msg.Deploy.HashHex()
		if g.markSeen(hash) {
			g.logger.WithField("deploy", hash).Debug("already gossiped")
			return nil
		}
		deploy := ev.Msg.Deploy
		sender := ev.Sender
		hops := ev.Msg.Hops - 1
		return []effects.Effect[Event]{
			effects.RequestEvent(b,
				func(r effects.Responder[error]) effects.ReactorEvent {
					return effects.PutDeployRequest{Deploy: deploy, Responder: r}
				},
				func(err error) Event {
					return DeployStored{Deploy: deploy, From: sender, Hops: hops, Err: err}
				},
			),
		}

	case DeployStored:
		if ev.Err != nil {
			g.logger.WithField("deploy", ev.Deploy.HashHex()).WithError(ev.Err).Error("storing gossiped deploy")
			return nil
		}
		out := []effects.Effect[Event]{
			effects.ScheduleEffect[Event](b, effects.AcceptDeployRequest{Hash: ev.Deploy.HashHex()}),
		}
		if ev.Hops > 0 {
			out = append(out, g.relay(b, rng, ev.Deploy, ev.Hops, ev.From)...)
		}
		return out

	default:
		g.logger.WithField("event", event.String()).Error("unhandled gossiper event")
		return nil
	}
}

// Seen reports whether the deploy hash has already been gossiped.
func (g *Gossiper) Seen(hash string) bool {
	_, ok := g.seen[hash]
	return ok
}

// markSeen records the hash and reports whether it was already present.
func (g *Gossiper) markSeen(hash string) bool {
	if _, ok := g.seen[hash]; ok {
		return true
	}
	g.seen[hash] = struct{}{}
	return false
}

// relay schedules one send per sampled peer, excluding ourselves and the
// peer we heard the deploy from.
func (g *Gossiper) relay(b effects.EffectBuilder, rng *rand.Rand, deploy *types.Deploy, hops int, exclude peers.ID) []effects.Effect[Event] {
	targets := g.peers.Sample(rng, g.fanout, g.self, exclude)

	msg := Message{Deploy: deploy, Hops: hops}
	out := make([]effects.Effect[Event], 0, len(targets))
	for _, target := range targets {
		out = append(out, effects.ScheduleEffect[Event](b, effects.NetworkRequest{To: target.ID(), Payload: msg}))
	}

	g.logger.WithFields(logrus.Fields{
		"deploy":  deploy.HashHex(),
		"targets": len(targets),
		"hops":    hops,
	}).Debug("relaying deploy")

	return out
}
