package types

import (
	"bytes"
	"fmt"

	"github.com/ugorji/go/codec"

	"github.com/castornet/castor/src/crypto"
)

// Deploy is a unit of work submitted by a client for inclusion in a block. It
// is identified by the SHA256 hash of its body.
type Deploy struct {
	// Timestamp is the client-supplied creation time, unix milliseconds.
	Timestamp int64

	// PubKeyHex identifies the account that submitted the deploy.
	PubKeyHex string

	// Payload is the opaque session code or data carried by the deploy.
	Payload []byte

	// Signature is the account's signature over the deploy hash, as
	// produced by crypto.EncodeSignature. May be empty for unsigned
	// deploys on test networks.
	Signature string
}

// Hash returns the SHA256 hash of the deploy body (everything but the
// signature).
func (d *Deploy) Hash() []byte {
	var body bytes.Buffer
	fmt.Fprintf(&body, "%d|%s|", d.Timestamp, d.PubKeyHex)
	body.Write(d.Payload)
	return crypto.SHA256(body.Bytes())
}

// HashHex returns the hex string form of the deploy hash, used as storage and
// gossip key.
func (d *Deploy) HashHex() string {
	return fmt.Sprintf("%X", d.Hash())
}

// Marshal - json encoding of Deploy
func (d *Deploy) Marshal() ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(d); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Unmarshal - json decoding of Deploy
func (d *Deploy) Unmarshal(data []byte) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(b, jh)

	return dec.Decode(d)
}

// String implements fmt.Stringer for logging.
func (d *Deploy) String() string {
	return fmt.Sprintf("Deploy(%.8s)", d.HashHex())
}
