package peers

import (
	"github.com/castornet/castor/src/common"
	"github.com/castornet/castor/src/crypto"
)

// ID uniquely identifies a peer on the validator network. It is the 32-bit
// FNV-1a hash of the peer's uncompressed public key, which keeps wire
// envelopes small compared to carrying the 65-byte key.
type ID uint32

// Peer is a participant in the validator network.
type Peer struct {
	NetAddr   string `mapstructure:"addr"`
	PubKeyHex string `mapstructure:"pubkey"`
	Moniker   string `mapstructure:"moniker"`

	id ID
}

// NewPeer instantiates a Peer and computes its ID.
func NewPeer(pubKeyHex, netAddr, moniker string) *Peer {
	peer := &Peer{
		PubKeyHex: pubKeyHex,
		NetAddr:   netAddr,
		Moniker:   moniker,
	}

	peer.computeID()

	return peer
}

// ID returns the peer's network identifier, computing it from the public key
// on first use.
func (p *Peer) ID() ID {
	if p.id == 0 {
		p.computeID()
	}
	return p.id
}

// PubKeyBytes decodes the peer's hex-encoded public key.
func (p *Peer) PubKeyBytes() ([]byte, error) {
	return common.DecodeFromString(p.PubKeyHex)
}

func (p *Peer) computeID() error {
	pubKey, err := p.PubKeyBytes()
	if err != nil {
		return err
	}

	p.id = ID(crypto.PublicKeyID(pubKey))

	return nil
}
