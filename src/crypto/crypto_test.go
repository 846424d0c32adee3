package crypto

import (
	"errors"
	"reflect"
	"testing"
)

func TestSignVerify(t *testing.T) {
	key, err := GenerateECDSAKey()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	data := SHA256([]byte("the quick brown fox"))

	r, s, err := Sign(key, data)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !Verify(&key.PublicKey, data, r, s) {
		t.Fatalf("signature should verify")
	}

	other := SHA256([]byte("some other message"))
	if Verify(&key.PublicKey, other, r, s) {
		t.Fatalf("signature should not verify other data")
	}
}

func TestSignatureEncoding(t *testing.T) {
	key, err := GenerateECDSAKey()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	data := SHA256([]byte("payload"))

	r, s, err := Sign(key, data)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	sig := EncodeSignature(r, s)

	r2, s2, err := DecodeSignature(sig)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if r.Cmp(r2) != 0 || s.Cmp(s2) != 0 {
		t.Fatalf("decoded signature does not match")
	}

	if !Verify(&key.PublicKey, data, r2, s2) {
		t.Fatalf("decoded signature should verify")
	}
}

func TestDecodeSignatureMalformed(t *testing.T) {
	if _, _, err := DecodeSignature("justonevalue"); !IsCrypto(err, AsymmetricKey) {
		t.Fatalf("expected AsymmetricKey error, got %v", err)
	}

	if _, _, err := DecodeSignature("!!|!!"); !IsCrypto(err, AsymmetricKey) {
		t.Fatalf("expected AsymmetricKey error, got %v", err)
	}
}

func TestPrivateKeyDumpParse(t *testing.T) {
	key, err := GenerateECDSAKey()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	dump := DumpPrivateKey(key)

	parsed, err := ParsePrivateKey(dump)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if key.D.Cmp(parsed.D) != 0 {
		t.Fatalf("private scalars do not match")
	}
	if key.PublicKey.X.Cmp(parsed.PublicKey.X) != 0 || key.PublicKey.Y.Cmp(parsed.PublicKey.Y) != 0 {
		t.Fatalf("public points do not match")
	}
}

func TestParsePrivateKeyRejectsBadLength(t *testing.T) {
	if _, err := ParsePrivateKey([]byte{1, 2, 3}); !IsCrypto(err, AsymmetricKey) {
		t.Fatalf("expected AsymmetricKey error, got %v", err)
	}
}

func TestPublicKeyRoundTrip(t *testing.T) {
	key, err := GenerateECDSAKey()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	raw := FromPublicKey(&key.PublicKey)

	pub, err := ToPublicKey(raw)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if !reflect.DeepEqual(raw, FromPublicKey(pub)) {
		t.Fatalf("public keys do not match")
	}
}

func TestPublicKeyID(t *testing.T) {
	key, err := GenerateECDSAKey()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	raw := FromPublicKey(&key.PublicKey)

	id := PublicKeyID(raw)
	if id != PublicKeyID(raw) {
		t.Fatalf("id is not stable")
	}
	if id == 0 {
		t.Fatalf("id should not be zero for a valid key")
	}
}

func TestDecodeHexError(t *testing.T) {
	if _, err := DecodeHex("zzzz"); !IsCrypto(err, FromHex) {
		t.Fatalf("expected FromHex error, got %v", err)
	}
	if Retryable(NewError(FromHex, errors.New("x"))) {
		t.Fatalf("FromHex should not be retryable")
	}
}

func TestDecodeBase64Error(t *testing.T) {
	if _, err := DecodeBase64("%%%"); !IsCrypto(err, FromBase64) {
		t.Fatalf("expected FromBase64 error, got %v", err)
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(NewError(KeyLoad, errors.New("no such file"))) {
		t.Fatalf("KeyLoad should be retryable")
	}

	notRetryable := []ErrType{AsymmetricKey, FromHex, FromBase64, FromPem}
	for _, errType := range notRetryable {
		if Retryable(NewError(errType, errors.New("x"))) {
			t.Fatalf("type %d should not be retryable", errType)
		}
	}

	if Retryable(errors.New("plain error")) {
		t.Fatalf("plain errors should not be retryable")
	}
}
