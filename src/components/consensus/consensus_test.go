package consensus

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/castornet/castor/src/common"
	"github.com/castornet/castor/src/crypto"
	"github.com/castornet/castor/src/effects"
	"github.com/castornet/castor/src/peers"
)

func newValidatorSet(t *testing.T, n int) *peers.Peers {
	peerSlice := []*peers.Peer{}
	for i := 0; i < n; i++ {
		key, err := crypto.GenerateECDSAKey()
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		peerSlice = append(peerSlice, peers.NewPeer(
			crypto.PublicKeyHex(&key.PublicKey),
			fmt.Sprintf("addr%d", i),
			fmt.Sprintf("peer%d", i),
		))
	}
	return peers.NewPeersFromSlice(peerSlice)
}

func newTestSupervisor(t *testing.T, pubKeyHex string, peerSet *peers.Peers) (*EraSupervisor, effects.EffectBuilder, chan effects.ReactorEvent) {
	events := make(chan effects.ReactorEvent, 64)
	b := effects.NewEffectBuilder(effects.NewEventQueueHandle(events))

	s, initial := New(Config{EraDuration: 10 * time.Millisecond}, pubKeyHex, peerSet, common.NewTestEntry(t, "consensus_test"))
	if len(initial) != 1 {
		t.Fatalf("expected 1 startup effect, got %d", len(initial))
	}

	return s, b, events
}

func drain(events chan effects.ReactorEvent) []effects.ReactorEvent {
	out := []effects.ReactorEvent{}
	for {
		select {
		case ev := <-events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestEraAdvancesWithoutProposal(t *testing.T) {
	peerSet := newValidatorSet(t, 3)
	// Not a validator, so never drawn as leader.
	s, b, events := newTestSupervisor(t, "0XOBSERVER", peerSet)

	rng := rand.New(rand.NewSource(1))

	for i := 1; i <= 3; i++ {
		out := s.HandleEvent(b, rng, Timer{})
		if len(out) != 1 {
			t.Fatalf("expected only the next timer, got %d effects", len(out))
		}
		if s.Era() != uint64(i) {
			t.Fatalf("expected era %d, got %d", i, s.Era())
		}
	}

	if got := drain(events); len(got) != 0 {
		t.Fatalf("an observer should schedule nothing, got %v", got)
	}
}

func TestAcceptDeployDeduped(t *testing.T) {
	peerSet := newValidatorSet(t, 1)
	s, b, _ := newTestSupervisor(t, peerSet.Slice()[0].PubKeyHex, peerSet)

	rng := rand.New(rand.NewSource(1))

	s.HandleEvent(b, rng, AcceptDeploy{Hash: "D1"})
	s.HandleEvent(b, rng, AcceptDeploy{Hash: "D1"})
	s.HandleEvent(b, rng, AcceptDeploy{Hash: "D2"})

	if len(s.pending) != 2 {
		t.Fatalf("expected 2 pending deploys, got %d", len(s.pending))
	}
}

func TestLeaderProposesBlock(t *testing.T) {
	// A single validator is always the leader.
	peerSet := newValidatorSet(t, 1)
	self := peerSet.Slice()[0].PubKeyHex
	s, b, events := newTestSupervisor(t, self, peerSet)

	rng := rand.New(rand.NewSource(1))

	s.HandleEvent(b, rng, AcceptDeploy{Hash: "D1"})
	s.HandleEvent(b, rng, AcceptDeploy{Hash: "D2"})

	out := s.HandleEvent(b, rng, Timer{})
	if len(out) != 3 {
		t.Fatalf("expected store, announce and timer effects, got %d", len(out))
	}

	// The storage effect waits for the put to be answered.
	resolved := make(chan []Event, 1)
	go func() {
		resolved <- out[0](context.Background())
	}()

	put := (<-events).(effects.PutBlockRequest)
	if put.Block.Era != 1 {
		t.Fatalf("expected a block for era 1, got %d", put.Block.Era)
	}
	if len(put.Block.DeployHashes) != 2 {
		t.Fatalf("expected 2 deploys in the block, got %d", len(put.Block.DeployHashes))
	}
	if put.Block.ProposerHex != self {
		t.Fatalf("block should name the proposer")
	}
	put.Responder.Respond(nil)

	followUps := <-resolved
	if len(followUps) != 1 {
		t.Fatalf("expected BlockStored, got %v", followUps)
	}
	if stored := followUps[0].(BlockStored); stored.Err != nil {
		t.Fatalf("unexpected store error: %v", stored.Err)
	}

	// The announcement is broadcast.
	out[1](context.Background())
	req := drain(events)[0].(effects.NetworkRequest)
	if !req.Broadcast {
		t.Fatalf("finalization should be broadcast")
	}
	announcement := req.Payload.(Message)
	if announcement.Era != 1 || announcement.BlockHash != put.Block.HashHex() {
		t.Fatalf("unexpected announcement: %s", announcement)
	}

	hash, ok := s.Finalized(1)
	if !ok || hash != put.Block.HashHex() {
		t.Fatalf("era 1 should record the proposed block")
	}

	// Pending deploys were consumed; the next era has nothing to propose.
	if out := s.HandleEvent(b, rng, Timer{}); len(out) != 1 {
		t.Fatalf("an empty era should only reschedule the timer")
	}
}

func TestBlocksChain(t *testing.T) {
	peerSet := newValidatorSet(t, 1)
	self := peerSet.Slice()[0].PubKeyHex
	s, b, events := newTestSupervisor(t, self, peerSet)

	rng := rand.New(rand.NewSource(1))

	s.HandleEvent(b, rng, AcceptDeploy{Hash: "D1"})
	s.HandleEvent(b, rng, Timer{})
	drain(events)

	firstHash, ok := s.Finalized(1)
	if !ok || firstHash == "" {
		t.Fatalf("era 1 should have finalized a block")
	}

	s.HandleEvent(b, rng, AcceptDeploy{Hash: "D2"})
	out := s.HandleEvent(b, rng, Timer{})

	// The era 2 block points at the era 1 block.
	resolved := make(chan []Event, 1)
	go func() {
		resolved <- out[0](context.Background())
	}()

	put := (<-events).(effects.PutBlockRequest)
	if put.Block.ParentHash != firstHash {
		t.Fatalf("era 2 block should chain to era 1, got parent %q", put.Block.ParentHash)
	}
	put.Responder.Respond(nil)
	<-resolved
}

func TestPeerFinalizationRecorded(t *testing.T) {
	peerSet := newValidatorSet(t, 3)
	s, b, _ := newTestSupervisor(t, "0XOBSERVER", peerSet)

	rng := rand.New(rand.NewSource(1))

	msg := Message{Era: 7, BlockHash: "REMOTEHASH", ProposerHex: "0XLEADER"}
	if out := s.HandleEvent(b, rng, MessageReceived{Sender: 1, Msg: msg}); out != nil {
		t.Fatalf("recording a finalization should produce no effects")
	}

	hash, ok := s.Finalized(7)
	if !ok || hash != "REMOTEHASH" {
		t.Fatalf("remote finalization was not recorded")
	}
}
