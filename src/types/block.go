package types

import (
	"bytes"
	"fmt"

	"github.com/ugorji/go/codec"

	"github.com/castornet/castor/src/crypto"
)

// Block is the unit of finality produced by the era supervisor. It lists the
// hashes of the deploys finalized during one era.
type Block struct {
	// Era is the consensus era that produced the block.
	Era uint64

	// Timestamp is the proposal time, unix milliseconds.
	Timestamp int64

	// ProposerHex is the public key of the era leader.
	ProposerHex string

	// ParentHash is the hash of the previous block, empty for the first.
	ParentHash string

	// DeployHashes lists the hex hashes of the finalized deploys, in
	// proposal order.
	DeployHashes []string
}

// Hash chains the block header fields with the deploy hashes.
func (b *Block) Hash() []byte {
	var body bytes.Buffer
	fmt.Fprintf(&body, "%d|%d|%s|%s", b.Era, b.Timestamp, b.ProposerHex, b.ParentHash)
	hash := crypto.SHA256(body.Bytes())
	for _, dh := range b.DeployHashes {
		hash = crypto.SimpleHashFromTwoHashes(hash, []byte(dh))
	}
	return hash
}

// HashHex returns the hex string form of the block hash.
func (b *Block) HashHex() string {
	return fmt.Sprintf("%X", b.Hash())
}

// Marshal - json encoding of Block
func (b *Block) Marshal() ([]byte, error) {
	buf := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(buf, jh)

	if err := enc.Encode(b); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Unmarshal - json decoding of Block
func (b *Block) Unmarshal(data []byte) error {
	buf := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(buf, jh)

	return dec.Decode(b)
}

// String implements fmt.Stringer for logging.
func (b *Block) String() string {
	return fmt.Sprintf("Block(era %d, %.8s)", b.Era, b.HashHex())
}
