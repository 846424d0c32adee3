package validator

import (
	"reflect"
	"testing"

	"github.com/castornet/castor/src/components/consensus"
	"github.com/castornet/castor/src/components/gossiper"
	"github.com/castornet/castor/src/components/pinger"
	"github.com/castornet/castor/src/effects"
	"github.com/castornet/castor/src/types"
)

func TestMessageRoundTrip(t *testing.T) {
	deploy := &types.Deploy{Timestamp: 1, PubKeyHex: "0XA", Payload: []byte("p")}

	messages := []Message{
		PingerMessage{M: pinger.Message{Nonce: 42}},
		PingerMessage{M: pinger.Message{Pong: true, Nonce: 42}},
		ConsensusMessage{M: consensus.Message{Era: 7, BlockHash: "HASH", ProposerHex: "0XB"}},
		DeployGossiperMessage{M: gossiper.Message{Deploy: deploy, Hops: 3}},
	}

	for _, msg := range messages {
		data, err := EncodeMessage(msg)
		if err != nil {
			t.Fatalf("encoding %s: %v", msg, err)
		}

		decoded, err := DecodeMessage(data)
		if err != nil {
			t.Fatalf("decoding %s: %v", msg, err)
		}

		if !reflect.DeepEqual(decoded, msg) {
			t.Fatalf("round trip mismatch:\ngot  %#v\nwant %#v", decoded, msg)
		}
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	data, err := encode(wireMessage{Kind: 200, Body: []byte("{}")})
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if _, err := DecodeMessage(data); err == nil {
		t.Fatalf("an unknown kind should fail to decode")
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := DecodeMessage([]byte("not even json")); err == nil {
		t.Fatalf("garbage should fail to decode")
	}
}

// The Display strings below are parsed by operational tooling. Changing any of
// them is a breaking change.
func TestDisplayContract(t *testing.T) {
	deploy := &types.Deploy{Timestamp: 1, PubKeyHex: "0XA", Payload: []byte("p")}
	hash := deploy.HashHex()

	cases := []struct {
		got  string
		want string
	}{
		{PingerMessage{M: pinger.Message{Nonce: 42}}.String(), "Pinger::Ping(42)"},
		{PingerMessage{M: pinger.Message{Pong: true, Nonce: 42}}.String(), "Pinger::Pong(42)"},
		{ConsensusMessage{M: consensus.Message{Era: 3, BlockHash: "ABCDEFGHIJ"}}.String(), "Consensus::Finalized(era 3, ABCDEFGH)"},
		{DeployGossiperMessage{M: gossiper.Message{Deploy: deploy, Hops: 2}}.String(), "DeployGossiper::Gossip(Deploy(" + hash[:8] + "), 2 hops left)"},
		{PingerEvent{E: pinger.Timer{}}.String(), "pinger: timer expired"},
		{PingerEvent{E: pinger.MessageReceived{Sender: 9, Msg: pinger.Message{Nonce: 42}}}.String(), "pinger: Ping(42) from 9"},
		{ConsensusEvent{E: consensus.Timer{}}.String(), "consensus: era timer expired"},
		{DeployGossiperEvent{E: gossiper.Request{Deploy: deploy}}.String(), "deploy gossiper: gossip request for Deploy(" + hash[:8] + ")"},
		{effects.NetworkRequest{To: 9, Payload: pinger.Message{Nonce: 1}}.String(), "network request: send to 9: Ping(1)"},
		{effects.NetworkAnnouncement{Sender: 9, Payload: PingerMessage{M: pinger.Message{Nonce: 1}}}.String(), "network announcement: message from 9: Pinger::Ping(1)"},
	}

	for _, c := range cases {
		if c.got != c.want {
			t.Fatalf("display drift:\ngot  %q\nwant %q", c.got, c.want)
		}
	}
}
