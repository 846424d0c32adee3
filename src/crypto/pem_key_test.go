package crypto

import (
	"io/ioutil"
	"os"
	"path"
	"testing"
)

func TestReadPemKey(t *testing.T) {
	// Create a test dir
	os.Mkdir("test_data", os.ModeDir|0700)
	dir, err := ioutil.TempDir("test_data", "castor")
	if err != nil {
		t.Fatalf("err: %v ", err)
	}
	defer os.RemoveAll(dir)

	pemKey := NewPemKey(dir)

	// Try a read, should get a retryable KeyLoad error
	key, err := pemKey.ReadKey()
	if err == nil {
		t.Fatalf("ReadKey should generate an error")
	}
	if !IsCrypto(err, KeyLoad) {
		t.Fatalf("expected KeyLoad error, got %v", err)
	}
	if !Retryable(err) {
		t.Fatalf("a missing keyfile should be retryable")
	}
	if key != nil {
		t.Fatalf("key is not nil")
	}

	// Initialize a key and try a write
	key, _ = GenerateECDSAKey()

	if err := pemKey.WriteKey(key); err != nil {
		t.Fatalf("err: %v", err)
	}

	// Try a read, should get key
	nKey, err := pemKey.ReadKey()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if key.D.Cmp(nKey.D) != 0 {
		t.Fatalf("keys do not match")
	}
}

func TestReadPemKeyMalformed(t *testing.T) {
	os.Mkdir("test_data", os.ModeDir|0700)
	dir, err := ioutil.TempDir("test_data", "castor")
	if err != nil {
		t.Fatalf("err: %v ", err)
	}
	defer os.RemoveAll(dir)

	// A present but garbled keyfile must not be retryable; regenerating
	// would silently discard the operator's key material.
	if err := ioutil.WriteFile(path.Join(dir, "priv_key.pem"), []byte("garbage"), 0600); err != nil {
		t.Fatalf("err: %v", err)
	}

	pemKey := NewPemKey(dir)

	_, err = pemKey.ReadKey()
	if !IsCrypto(err, FromPem) {
		t.Fatalf("expected FromPem error, got %v", err)
	}
	if Retryable(err) {
		t.Fatalf("malformed key material should not be retryable")
	}
}

func TestPemDump(t *testing.T) {
	pemDump, err := GeneratePemKey()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	pemKey := &PemKey{}

	key, err := pemKey.ReadKeyFromBuf([]byte(pemDump.PrivateKey))
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if PublicKeyHex(&key.PublicKey) != pemDump.PublicKey {
		t.Fatalf("public keys do not match")
	}
}
