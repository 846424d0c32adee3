package validator

import (
	"bytes"
	"fmt"

	"github.com/ugorji/go/codec"

	"github.com/castornet/castor/src/components/consensus"
	"github.com/castornet/castor/src/components/gossiper"
	"github.com/castornet/castor/src/components/pinger"
	"github.com/castornet/castor/src/effects"
)

// Message is the closed union of payloads a subsystem may exchange with a
// peer. The transport carries it opaquely; only the reactor converts between
// this union and the owning subsystem's message type. Adding a subsystem that
// talks to peers means adding a variant here, a kind tag below, and an arm in
// the announcement translation; the compiler or the decode error path will
// surface any of these if forgotten.
type Message interface {
	effects.Payload
	message()
}

// PingerMessage wraps the heartbeat payload.
type PingerMessage struct {
	M pinger.Message
}

// ConsensusMessage wraps the era supervisor payload.
type ConsensusMessage struct {
	M consensus.Message
}

// DeployGossiperMessage wraps the deploy gossip payload.
type DeployGossiperMessage struct {
	M gossiper.Message
}

func (PingerMessage) message()         {}
func (ConsensusMessage) message()      {}
func (DeployGossiperMessage) message() {}

// The message Display prefixes are stable; external tooling parses them.

func (m PingerMessage) String() string         { return fmt.Sprintf("Pinger::%s", m.M) }
func (m ConsensusMessage) String() string      { return fmt.Sprintf("Consensus::%s", m.M) }
func (m DeployGossiperMessage) String() string { return fmt.Sprintf("DeployGossiper::%s", m.M) }

// Wire kind tags. These are part of the wire format; never renumber.
const (
	pingerKind uint8 = iota + 1
	consensusKind
	gossiperKind
)

// wireMessage is the encoded form of a Message: a kind tag plus the codec
// encoding of the inner payload.
type wireMessage struct {
	Kind uint8
	Body []byte
}

// EncodeMessage serializes a Message for the transport.
func EncodeMessage(m Message) ([]byte, error) {
	var kind uint8
	var inner interface{}

	switch msg := m.(type) {
	case PingerMessage:
		kind, inner = pingerKind, msg.M
	case ConsensusMessage:
		kind, inner = consensusKind, msg.M
	case DeployGossiperMessage:
		kind, inner = gossiperKind, msg.M
	default:
		return nil, fmt.Errorf("unknown message variant %T", m)
	}

	body, err := encode(inner)
	if err != nil {
		return nil, err
	}

	return encode(wireMessage{Kind: kind, Body: body})
}

// DecodeMessage parses transport bytes back into the Message union. It is
// the decoder the reactor injects into the network subsystem.
func DecodeMessage(data []byte) (effects.Payload, error) {
	var wire wireMessage
	if err := decode(data, &wire); err != nil {
		return nil, err
	}

	switch wire.Kind {
	case pingerKind:
		var m pinger.Message
		if err := decode(wire.Body, &m); err != nil {
			return nil, err
		}
		return PingerMessage{M: m}, nil
	case consensusKind:
		var m consensus.Message
		if err := decode(wire.Body, &m); err != nil {
			return nil, err
		}
		return ConsensusMessage{M: m}, nil
	case gossiperKind:
		var m gossiper.Message
		if err := decode(wire.Body, &m); err != nil {
			return nil, err
		}
		return DeployGossiperMessage{M: m}, nil
	default:
		return nil, fmt.Errorf("unknown message kind %d", wire.Kind)
	}
}

func encode(v interface{}) ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

func decode(data []byte, v interface{}) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(b, jh)

	return dec.Decode(v)
}
