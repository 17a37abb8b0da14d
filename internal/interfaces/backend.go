package interfaces

import (
	"math/big"

	"github.com/castlebridge/go-cryptobackend/internal/types"
)

// CipherSession is a streaming encrypt or decrypt operation with an
// Open → Finalized lifecycle. After Finalize returns, every further call
// fails with types.ErrAlreadyFinalized.
type CipherSession interface {
	// Update feeds data and returns whatever complete blocks the native
	// engine emitted; callers must accumulate across calls
	Update(data []byte) ([]byte, error)

	// Finalize flushes buffered bytes, releases the native handle and moves
	// the session to its terminal state
	Finalize() ([]byte, error)
}

// HashSession is a streaming digest or MAC operation with the same lifecycle
// as a CipherSession.
type HashSession interface {
	// Update absorbs data
	Update(data []byte) error

	// Finalize produces the digest and moves to the terminal state
	Finalize() ([]byte, error)

	// Copy duplicates the running state into a fresh open session
	Copy() (HashSession, error)
}

// SignatureSession streams message data and produces a signature when
// finalized. Same lifecycle as a HashSession.
type SignatureSession interface {
	// Update absorbs message data
	Update(data []byte) error

	// Finalize signs the accumulated digest and moves to the terminal state
	Finalize() ([]byte, error)
}

// VerificationSession streams message data and checks it against the
// signature supplied at creation.
type VerificationSession interface {
	// Update absorbs message data
	Update(data []byte) error

	// Verify checks the signature over the accumulated digest and moves to
	// the terminal state; a mismatch is types.ErrInvalidSignature
	Verify() error
}

// PrivateKey is a loaded or generated private key facade of any family.
type PrivateKey interface {
	// Kind returns the algorithm family
	Kind() types.KeyKind

	// Close releases the native key handle; exactly-once semantics
	Close() error
}

// PublicKey is a loaded or generated public key facade of any family.
type PublicKey interface {
	Kind() types.KeyKind
	Close() error
}

// RSAPrivateComponents are the numeric components of an RSA private key,
// used for explicit loading and exposed by the facade accessors.
type RSAPrivateComponents struct {
	N, E, D, P, Q, DmP1, DmQ1, IqMP *big.Int
}

// RSAPublicComponents are the numeric components of an RSA public key.
type RSAPublicComponents struct {
	N, E *big.Int
}

// DSAParameterComponents are DSA domain parameters.
type DSAParameterComponents struct {
	P, Q, G *big.Int
}

// ECPublicComponents are an EC public point's affine coordinates on a named
// curve.
type ECPublicComponents struct {
	Curve string
	X, Y  *big.Int
}

// CryptoBackend is the caller-facing surface of the backend layer. All
// methods are all-or-nothing: a failure never leaves partially constructed
// native state behind, and raw native error codes never surface.
type CryptoBackend interface {
	// Name identifies the backend
	Name() string

	// VersionText reports the underlying engine version string
	VersionText() string

	// CipherSupported reports whether the algorithm and mode combination
	// can be resolved, natively or through a software fallback
	CipherSupported(algorithm types.CipherAlgorithm, mode types.CipherMode) bool

	// CreateEncryptionContext starts a streaming encryption
	CreateEncryptionContext(algorithm types.CipherAlgorithm, mode types.CipherMode) (CipherSession, error)

	// CreateDecryptionContext starts a streaming decryption
	CreateDecryptionContext(algorithm types.CipherAlgorithm, mode types.CipherMode) (CipherSession, error)

	// HashSupported reports whether the digest resolves in the engine
	HashSupported(algorithm types.HashAlgorithm) bool

	// CreateHashContext starts a streaming digest
	CreateHashContext(algorithm types.HashAlgorithm) (HashSession, error)

	// HMACSupported reports whether the digest is usable for HMAC
	HMACSupported(algorithm types.HashAlgorithm) bool

	// CreateHMACContext starts a streaming MAC over the given key
	CreateHMACContext(key []byte, algorithm types.HashAlgorithm) (HashSession, error)

	// PBKDF2Supported reports whether the digest is usable for PBKDF2
	PBKDF2Supported(algorithm types.HashAlgorithm) bool

	// DerivePBKDF2 derives length bytes of key material
	DerivePBKDF2(algorithm types.HashAlgorithm, length int, salt []byte, iterations int, keyMaterial []byte) ([]byte, error)

	// LoadPEMPrivateKey parses a PEM private key, decrypting with password
	// when the data is encrypted
	LoadPEMPrivateKey(data, password []byte) (PrivateKey, error)

	// LoadPEMPublicKey parses a PEM public key
	LoadPEMPublicKey(data []byte) (PublicKey, error)

	// EllipticCurveSupported reports whether the named curve resolves
	EllipticCurveSupported(curve string) bool
}
