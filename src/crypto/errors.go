package crypto

import "fmt"

// ErrType identifies the failure modes of the crypto package. Callers branch
// on it to decide whether an operation is worth retrying: a KeyLoad error is
// environmental (the file could not be read), whereas the other types mean the
// key material itself is invalid and retrying with the same input is useless.
type ErrType uint32

const (
	// AsymmetricKey covers failures creating or using key-pairs and
	// signatures.
	AsymmetricKey ErrType = iota
	// FromHex covers failures decoding a hex representation.
	FromHex
	// FromBase64 covers failures decoding a base64 representation.
	FromBase64
	// FromPem covers failures parsing PEM data.
	FromPem
	// KeyLoad covers failures reading a private key from disk.
	KeyLoad
)

// Error is the error type returned by all fallible operations in this
// package.
type Error struct {
	errType ErrType
	err     error
}

// NewError wraps err with the given ErrType.
func NewError(errType ErrType, err error) Error {
	return Error{errType: errType, err: err}
}

// Error implements the error interface.
func (e Error) Error() string {
	switch e.errType {
	case AsymmetricKey:
		return fmt.Sprintf("asymmetric key error: %v", e.err)
	case FromHex:
		return fmt.Sprintf("parsing from hex: %v", e.err)
	case FromBase64:
		return fmt.Sprintf("decoding from base64: %v", e.err)
	case FromPem:
		return fmt.Sprintf("pem error: %v", e.err)
	case KeyLoad:
		return fmt.Sprintf("private key load failed: %v", e.err)
	}
	return e.err.Error()
}

// Unwrap returns the underlying error.
func (e Error) Unwrap() error {
	return e.err
}

// IsCrypto checks that an error is a crypto Error with the given type.
func IsCrypto(err error, t ErrType) bool {
	cryptoErr, ok := err.(Error)
	return ok && cryptoErr.errType == t
}

// Retryable reports whether the error is environmental rather than a sign of
// invalid data. Only KeyLoad errors qualify; retrying a decode of malformed
// hex, base64, PEM, or key material cannot succeed.
func Retryable(err error) bool {
	return IsCrypto(err, KeyLoad)
}
