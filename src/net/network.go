// Package net implements the validator-network subsystem: a TCP transport
// over which peers exchange opaque, codec-framed payloads. The transport
// never interprets what it carries; incoming payloads are decoded with a
// function injected by the reactor and submitted to the event queue as
// network announcements.
package net

import (
	"bufio"
	"context"
	"crypto/ecdsa"
	"math"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ugorji/go/codec"

	"github.com/castornet/castor/src/crypto"
	"github.com/castornet/castor/src/effects"
	"github.com/castornet/castor/src/peers"
)

const (
	// high buffer size for compatibility with large gossip payloads
	bufSize = math.MaxUint16
)

// PayloadDecoder turns raw payload bytes into the reactor's message union.
// The reactor provides it at construction; the transport itself stays
// payload-agnostic.
type PayloadDecoder func([]byte) (effects.Payload, error)

// wireEnvelope frames every payload on the wire with the sender's ID.
type wireEnvelope struct {
	From    uint32
	Payload []byte
}

// Network is the validator-network component.
type Network struct {
	id        peers.ID
	pubKeyHex string

	stream StreamLayer
	peers  *peers.Peers
	decode PayloadDecoder
	queue  effects.EventQueueHandle

	connPool     map[string][]*netConn
	connPoolLock sync.Mutex
	maxPool      int
	timeout      time.Duration

	logger *logrus.Entry
}

type netConn struct {
	target string
	conn   net.Conn
	w      *bufio.Writer
	enc    *codec.Encoder
}

// Release closes the underlying connection.
func (n *netConn) Release() error {
	return n.conn.Close()
}

// New loads the node's identity, binds the TCP listener, and returns the
// network together with its startup effect, the accept loop. A missing
// keyfile is generated on first start; malformed key material or an
// unbindable address fail construction.
func New(
	cfg Config,
	peerSet *peers.Peers,
	decode PayloadDecoder,
	queue effects.EventQueueHandle,
	logger *logrus.Entry,
) (*Network, []effects.Effect[Event], error) {
	key, err := loadOrCreateKey(cfg.KeyDir)
	if err != nil {
		return nil, nil, err
	}

	bindAddr := cfg.BindAddr
	if bindAddr == "" {
		bindAddr = DefaultBindAddr
	}

	stream, err := NewTCPStreamLayer(bindAddr, cfg.AdvertiseAddr)
	if err != nil {
		return nil, nil, err
	}

	maxPool := cfg.MaxPool
	if maxPool <= 0 {
		maxPool = DefaultMaxPool
	}
	timeout := cfg.TCPTimeout
	if timeout <= 0 {
		timeout = DefaultTCPTimeout
	}

	pubBytes := crypto.FromPublicKey(&key.PublicKey)

	n := &Network{
		id:        peers.ID(crypto.PublicKeyID(pubBytes)),
		pubKeyHex: crypto.PublicKeyHex(&key.PublicKey),
		stream:    stream,
		peers:     peerSet,
		decode:    decode,
		queue:     queue,
		connPool:  make(map[string][]*netConn),
		maxPool:   maxPool,
		timeout:   timeout,
		logger:    logger,
	}

	logger.WithFields(logrus.Fields{
		"id":   n.id,
		"addr": stream.AdvertiseAddr(),
	}).Debug("network listening")

	return n, []effects.Effect[Event]{n.acceptEffect()}, nil
}

// loadOrCreateKey reads the PEM key, generating one when the file does not
// exist yet. Malformed key material is fatal: a KeyLoad error is retryable by
// regenerating, a FromPem error is not.
func loadOrCreateKey(keyDir string) (*ecdsa.PrivateKey, error) {
	pemKey := crypto.NewPemKey(keyDir)

	k, err := pemKey.ReadKey()
	if err == nil {
		return k, nil
	}
	if !crypto.Retryable(err) {
		return nil, err
	}

	k, err = crypto.GenerateECDSAKey()
	if err != nil {
		return nil, err
	}
	if err := pemKey.WriteKey(k); err != nil {
		return nil, err
	}
	return k, nil
}

// ID returns this node's network identifier.
func (n *Network) ID() peers.ID {
	return n.id
}

// PubKeyHex returns this node's public key in hex form.
func (n *Network) PubKeyHex() string {
	return n.pubKeyHex
}

// AdvertiseAddr returns the address other peers can reach us at.
func (n *Network) AdvertiseAddr() string {
	return n.stream.AdvertiseAddr()
}

// HandleEvent implements the component contract. Sends happen inside
// effects; a failure resolves into a SendFailed event instead of escaping
// dispatch.
func (n *Network) HandleEvent(b effects.EffectBuilder, rng *rand.Rand, event Event) []effects.Effect[Event] {
	switch ev := event.(type) {
	case Send:
		peer := n.peers.Get(ev.To)
		if peer == nil {
			n.logger.WithField("to", ev.To).Warn("send to unknown peer")
			return nil
		}
		return []effects.Effect[Event]{n.sendEffect(peer, ev.Bytes)}

	case Broadcast:
		var out []effects.Effect[Event]
		for _, peer := range n.peers.Slice() {
			if peer.PubKeyHex == n.pubKeyHex {
				continue
			}
			out = append(out, n.sendEffect(peer, ev.Bytes))
		}
		return out

	case SendFailed:
		n.logger.WithField("to", ev.To).WithError(ev.Err).Warn("message delivery failed")
		return nil

	case ListenerStopped:
		if ev.Err != nil {
			n.logger.WithError(ev.Err).Error("accept loop stopped")
		}
		return nil

	default:
		n.logger.WithField("event", event.String()).Error("unhandled network event")
		return nil
	}
}

// Close shuts the listener and every pooled connection.
func (n *Network) Close() error {
	n.connPoolLock.Lock()
	for _, conns := range n.connPool {
		for _, conn := range conns {
			conn.Release()
		}
	}
	n.connPool = make(map[string][]*netConn)
	n.connPoolLock.Unlock()

	return n.stream.Close()
}

// sendEffect writes one envelope to the target, using a pooled connection
// when one is available.
func (n *Network) sendEffect(peer *peers.Peer, payload []byte) effects.Effect[Event] {
	target := peer.NetAddr
	to := peer.ID()

	return func(ctx context.Context) []Event {
		conn, err := n.getConn(target)
		if err != nil {
			return []Event{SendFailed{To: to, Err: err}}
		}

		envelope := wireEnvelope{From: uint32(n.id), Payload: payload}

		if n.timeout > 0 {
			conn.conn.SetWriteDeadline(time.Now().Add(n.timeout))
		}

		if err := conn.enc.Encode(envelope); err != nil {
			conn.Release()
			return []Event{SendFailed{To: to, Err: err}}
		}
		if err := conn.w.Flush(); err != nil {
			conn.Release()
			return []Event{SendFailed{To: to, Err: err}}
		}

		n.returnConn(conn)
		return nil
	}
}

// acceptEffect is the startup effect running the accept loop. It resolves
// only when the listener fails unexpectedly.
func (n *Network) acceptEffect() effects.Effect[Event] {
	return func(ctx context.Context) []Event {
		go func() {
			<-ctx.Done()
			n.Close()
		}()

		for {
			conn, err := n.stream.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return nil
				default:
					return []Event{ListenerStopped{Err: err}}
				}
			}
			go n.handleConn(ctx, conn)
		}
	}
}

// handleConn decodes envelopes off an inbound connection and submits each
// one as a network announcement.
func (n *Network) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	r := bufio.NewReaderSize(conn, bufSize)
	jh := new(codec.JsonHandle)
	dec := codec.NewDecoder(r, jh)

	for {
		var envelope wireEnvelope
		if err := dec.Decode(&envelope); err != nil {
			if ctx.Err() == nil {
				n.logger.WithError(err).Debug("inbound connection closed")
			}
			return
		}

		payload, err := n.decode(envelope.Payload)
		if err != nil {
			// Malformed wire data must never fault the node; drop
			// the envelope and keep the connection.
			n.logger.WithField("from", envelope.From).WithError(err).Warn("undecodable payload")
			continue
		}

		announcement := effects.NetworkAnnouncement{
			Sender:  peers.ID(envelope.From),
			Payload: payload,
		}

		if !n.queue.ScheduleCtx(ctx, announcement) {
			return
		}
	}
}

// getConn grabs a pooled connection or dials a new one.
func (n *Network) getConn(target string) (*netConn, error) {
	if conn := n.getPooledConn(target); conn != nil {
		return conn, nil
	}

	conn, err := n.stream.Dial(target, n.timeout)
	if err != nil {
		return nil, err
	}

	w := bufio.NewWriterSize(conn, bufSize)
	jh := new(codec.JsonHandle)

	return &netConn{
		target: target,
		conn:   conn,
		w:      w,
		enc:    codec.NewEncoder(w, jh),
	}, nil
}

func (n *Network) getPooledConn(target string) *netConn {
	n.connPoolLock.Lock()
	defer n.connPoolLock.Unlock()

	conns, ok := n.connPool[target]
	if !ok || len(conns) == 0 {
		return nil
	}

	var conn *netConn
	num := len(conns)
	conn, conns[num-1] = conns[num-1], nil
	n.connPool[target] = conns[:num-1]
	return conn
}

func (n *Network) returnConn(conn *netConn) {
	n.connPoolLock.Lock()
	defer n.connPoolLock.Unlock()

	key := conn.target
	conns := n.connPool[key]

	if len(conns) < n.maxPool {
		n.connPool[key] = append(conns, conn)
		return
	}
	conn.Release()
}
