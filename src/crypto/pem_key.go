package crypto

import (
	"crypto/ecdsa"
	"encoding/pem"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"sync"
)

const (
	pemKeyPath = "priv_key.pem"

	// pemBlockType labels the PEM block holding the raw secp256k1 private
	// scalar. The standard "EC PRIVATE KEY" ASN.1 encoding is not used
	// because the x509 package does not support the secp256k1 curve.
	pemBlockType = "SECP256K1 PRIVATE KEY"
)

// PemKey reads and writes the validator's private key from/to a PEM file.
type PemKey struct {
	l    sync.Mutex
	path string
}

// NewPemKey instantiates a PemKey backed by base/priv_key.pem.
func NewPemKey(base string) *PemKey {
	p := filepath.Join(base, pemKeyPath)

	pemKey := &PemKey{
		path: p,
	}

	return pemKey
}

// NewPemKeyFromPath instantiates a PemKey backed by an explicit file path.
func NewPemKeyFromPath(p string) *PemKey {
	return &PemKey{
		path: p,
	}
}

// Path returns the location of the underlying PEM file.
func (k *PemKey) Path() string {
	return k.path
}

// ReadKey loads the private key from the PEM file. A file-read failure is
// reported as a KeyLoad error; malformed contents as a FromPem error.
func (k *PemKey) ReadKey() (*ecdsa.PrivateKey, error) {
	k.l.Lock()
	defer k.l.Unlock()

	buf, err := ioutil.ReadFile(k.path)
	if err != nil {
		return nil, NewError(KeyLoad, err)
	}

	return k.ReadKeyFromBuf(buf)
}

// ReadKeyFromBuf parses a private key from raw PEM data.
func (k *PemKey) ReadKeyFromBuf(buf []byte) (*ecdsa.PrivateKey, error) {
	if len(buf) == 0 {
		return nil, NewError(FromPem, errors.New("empty PEM data"))
	}

	block, _ := pem.Decode(buf)
	if block == nil {
		return nil, NewError(FromPem, errors.New("error decoding PEM block from data"))
	}

	if block.Type != pemBlockType {
		return nil, NewError(FromPem, fmt.Errorf("unexpected PEM block type %q", block.Type))
	}

	key, err := ParsePrivateKey(block.Bytes)
	if err != nil {
		return nil, NewError(FromPem, err)
	}

	return key, nil
}

// WriteKey dumps the private key to the PEM file.
func (k *PemKey) WriteKey(key *ecdsa.PrivateKey) error {
	k.l.Lock()
	defer k.l.Unlock()

	pemKey, err := ToPemKey(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(path.Dir(k.path), 0700); err != nil {
		return NewError(KeyLoad, err)
	}

	return ioutil.WriteFile(k.path, []byte(pemKey.PrivateKey), 0600)
}

// PemDump contains the PEM encoding of a key-pair.
type PemDump struct {
	PublicKey  string
	PrivateKey string
}

// GeneratePemKey creates a fresh key-pair and returns its PEM encoding.
func GeneratePemKey() (*PemDump, error) {
	key, err := GenerateECDSAKey()
	if err != nil {
		return nil, err
	}

	return ToPemKey(key)
}

// ToPemKey returns the PEM encoding of an existing key-pair.
func ToPemKey(priv *ecdsa.PrivateKey) (*PemDump, error) {
	pub := PublicKeyHex(&priv.PublicKey)

	pemBlock := &pem.Block{Type: pemBlockType, Bytes: DumpPrivateKey(priv)}

	data := pem.EncodeToMemory(pemBlock)

	return &PemDump{
		PublicKey:  pub,
		PrivateKey: string(data),
	}, nil
}
