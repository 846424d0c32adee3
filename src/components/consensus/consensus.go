// Package consensus implements the era supervisor. Consensus proper (leader
// election soundness, finality rules, fork choice) is out of scope for the
// reactor core; this supervisor provides the era machinery the rest of the
// node builds on: eras advance on a timer, a leader drawn from the shared
// random source proposes a block of pending deploys, and finalized blocks are
// persisted and announced.
package consensus

import (
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/castornet/castor/src/effects"
	"github.com/castornet/castor/src/peers"
	"github.com/castornet/castor/src/types"
)

// DefaultEraDuration is used when the configuration does not specify one.
const DefaultEraDuration = 30 * time.Second

// Config holds the era supervisor settings.
type Config struct {
	// EraDuration is how long each era lasts.
	EraDuration time.Duration `mapstructure:"era-duration"`
}

// EraSupervisor is the consensus component.
type EraSupervisor struct {
	eraDuration time.Duration
	era         uint64
	pubKeyHex   string
	peers       *peers.Peers
	pending     []string
	pendingSet  map[string]struct{}
	finalized   map[uint64]string
	lastHash    string
	logger      *logrus.Entry
}

// New instantiates the era supervisor and returns its startup effect: the
// first era timer.
func New(cfg Config, pubKeyHex string, peerSet *peers.Peers, logger *logrus.Entry) (*EraSupervisor, []effects.Effect[Event]) {
	eraDuration := cfg.EraDuration
	if eraDuration <= 0 {
		eraDuration = DefaultEraDuration
	}

	s := &EraSupervisor{
		eraDuration: eraDuration,
		pubKeyHex:   pubKeyHex,
		peers:       peerSet,
		pendingSet:  make(map[string]struct{}),
		finalized:   make(map[uint64]string),
		logger:      logger,
	}

	return s, []effects.Effect[Event]{s.timer()}
}

// Era returns the current era index.
func (s *EraSupervisor) Era() uint64 {
	return s.era
}

// Finalized returns the block hash recorded for an era, if any.
func (s *EraSupervisor) Finalized(era uint64) (string, bool) {
	hash, ok := s.finalized[era]
	return hash, ok
}

// HandleEvent implements the component contract.
func (s *EraSupervisor) HandleEvent(b effects.EffectBuilder, rng *rand.Rand, event Event) []effects.Effect[Event] {
	switch ev := event.(type) {
	case Timer:
		out := s.closeEra(b, rng)
		return append(out, s.timer())

	case AcceptDeploy:
		if _, ok := s.pendingSet[ev.Hash]; !ok {
			s.pendingSet[ev.Hash] = struct{}{}
			s.pending = append(s.pending, ev.Hash)
		}
		return nil

	case MessageReceived:
		s.finalized[ev.Msg.Era] = ev.Msg.BlockHash
		s.lastHash = ev.Msg.BlockHash
		s.logger.WithFields(logrus.Fields{
			"era":      ev.Msg.Era,
			"block":    ev.Msg.BlockHash,
			"proposer": ev.Msg.ProposerHex,
		}).Debug("peer finalized block")
		return nil

	case BlockStored:
		if ev.Err != nil {
			s.logger.WithField("block", ev.Hash).WithError(ev.Err).Error("storing proposed block")
		}
		return nil

	default:
		s.logger.WithField("event", event.String()).Error("unhandled consensus event")
		return nil
	}
}

// closeEra advances the era and, when this node is drawn as leader and has
// pending deploys, proposes a block.
func (s *EraSupervisor) closeEra(b effects.EffectBuilder, rng *rand.Rand) []effects.Effect[Event] {
	s.era++

	validators := s.peers.Slice()
	if len(validators) == 0 {
		return nil
	}

	// The leader draw consumes the shared random source on every era
	// close, leader or not, so that all replicas of a simulated run stay
	// in lockstep.
	leader := validators[rng.Intn(len(validators))]

	if leader.PubKeyHex != s.pubKeyHex || len(s.pending) == 0 {
		return nil
	}

	block := &types.Block{
		Era:          s.era,
		Timestamp:    time.Now().UnixMilli(),
		ProposerHex:  s.pubKeyHex,
		ParentHash:   s.lastHash,
		DeployHashes: s.pending,
	}

	hash := block.HashHex()
	s.finalized[s.era] = hash
	s.lastHash = hash
	s.pending = nil
	s.pendingSet = make(map[string]struct{})

	s.logger.WithFields(logrus.Fields{
		"era":     s.era,
		"block":   hash,
		"deploys": len(block.DeployHashes),
	}).Info("proposing block")

	announcement := Message{
		Era:         s.era,
		BlockHash:   hash,
		ProposerHex: s.pubKeyHex,
	}

	return []effects.Effect[Event]{
		effects.RequestEvent(b,
			func(r effects.Responder[error]) effects.ReactorEvent {
				return effects.PutBlockRequest{Block: block, Responder: r}
			},
			func(err error) Event {
				return BlockStored{Hash: hash, Err: err}
			},
		),
		effects.ScheduleEffect[Event](b, effects.NetworkRequest{Broadcast: true, Payload: announcement}),
	}
}

func (s *EraSupervisor) timer() effects.Effect[Event] {
	return effects.WrapEffect(
		func(time.Duration) Event { return Timer{} },
		effects.SetTimeout(s.eraDuration),
	)
}
