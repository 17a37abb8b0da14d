package interfaces

import (
	"github.com/castlebridge/go-cryptobackend/internal/types"
)

// Native call statuses follow the engine convention: 1 is success, anything
// else is failure with diagnostics pushed onto the engine's error stack.
const (
	StatusOK     = 1
	StatusFailed = 0
)

// CipherRef is an opaque reference to a native cipher primitive, resolved by
// name. A nil CipherRef plays the role of a null handle.
type CipherRef interface {
	// LookupName returns the name the primitive was resolved under
	LookupName() string

	// BlockSize returns the primitive's block size in bytes
	BlockSize() int
}

// CipherContext is a native streaming cipher handle. All mutating calls
// return an engine status.
type CipherContext interface {
	// Init binds the context to a primitive, key, IV and direction
	Init(ref CipherRef, key, iv []byte, encrypt bool) int

	// SetPadding enables or disables the engine's internal block padding
	SetPadding(enabled bool) int

	// Update feeds src and appends any complete output blocks to dst,
	// returning the number of bytes written and a status
	Update(dst, src []byte) (int, int)

	// SetAEADTag provides the expected authentication tag; required before
	// Final on AEAD decrypt contexts
	SetAEADTag(tag []byte) int

	// Final flushes remaining buffered bytes into dst
	Final(dst []byte) (int, int)

	// Free releases the native context; safe to call exactly once
	Free()
}

// DigestRef is an opaque reference to a native digest primitive.
type DigestRef interface {
	// LookupName returns the name the digest was resolved under
	LookupName() string

	// Size returns the digest output size in bytes
	Size() int
}

// DigestContext is a native streaming digest handle.
type DigestContext interface {
	// Init binds the context to a digest primitive
	Init(ref DigestRef) int

	// Update absorbs data
	Update(data []byte) int

	// Final writes the digest into dst and returns bytes written and status
	Final(dst []byte) (int, int)

	// Copy duplicates the running digest state
	Copy() (DigestContext, int)

	// Free releases the native context
	Free()
}

// HMACContext is a native keyed digest handle.
type HMACContext interface {
	Init(key []byte, ref DigestRef) int
	Update(data []byte) int
	Final(dst []byte) (int, int)
	Copy() (HMACContext, int)
	Free()
}

// BigNum is a handle to a native arbitrary-precision non-negative integer.
// Ownership is exclusive to the caller until the handle is absorbed by a key
// structure or released with Free.
type BigNum interface {
	// SetBytes loads a big-endian byte serialization
	SetBytes(b []byte) int

	// Bytes returns the minimal big-endian serialization and a status
	Bytes() ([]byte, int)

	// SetHex loads a hexadecimal text serialization
	SetHex(s string) int

	// Hex returns the hexadecimal text serialization and a status
	Hex() (string, int)

	// BitLen returns the number of significant bits
	BitLen() int

	// Cmp compares against another native big number
	Cmp(other BigNum) int

	// Dup returns an independently owned copy
	Dup() BigNum

	// Free releases the native allocation
	Free()
}

// MemBuf wraps caller bytes in a native memory buffer whose backing storage
// stays alive until Free is called.
type MemBuf interface {
	Len() int
	Free()
}

// PasswordCallback bridges a language-level password source to the native
// callback convention. buf is the engine-owned destination, its length the
// capacity; the return value is the number of password bytes written, or a
// non-positive value to signal failure. Implementations must not panic
// through the native boundary.
type PasswordCallback func(buf []byte, rwflag int) int

// RSAHandle owns a native RSA key. Component accessors return big-number
// handles owned by the key; callers must Dup before retaining them.
type RSAHandle interface {
	// SetPublic installs the modulus and public exponent, absorbing both
	SetPublic(n, e BigNum) int

	// SetPrivate installs d and the CRT parameters, absorbing all handles
	SetPrivate(d, p, q, dmp1, dmq1, iqmp BigNum) int

	// Public returns the modulus and public exponent
	Public() (n, e BigNum, status int)

	// Private returns the private exponent, factors and CRT parameters
	Private() (d, p, q, dmp1, dmq1, iqmp BigNum, status int)

	// HasPrivate reports whether private material is present
	HasPrivate() bool

	// Free releases the native key
	Free()
}

// DSAHandle owns a native DSA key or parameter set.
type DSAHandle interface {
	// SetParameters installs p, q and g, absorbing the handles
	SetParameters(p, q, g BigNum) int

	// SetKeyPair installs the public value and, when non-nil, the private
	// value, absorbing the handles
	SetKeyPair(y, x BigNum) int

	// Parameters returns p, q and g
	Parameters() (p, q, g BigNum, status int)

	// KeyPair returns the public value and the private value (nil when the
	// handle holds only public material)
	KeyPair() (y, x BigNum, status int)

	HasPrivate() bool
	Free()
}

// ECHandle owns a native EC key bound to a named group.
type ECHandle interface {
	// GroupName returns the native name of the configured curve
	GroupName() string

	// FieldByteLen returns the byte length of a field element
	FieldByteLen() int

	// SetPublicAffine installs the public point from affine coordinates,
	// absorbing both handles. The engine may normalize the coordinates.
	SetPublicAffine(x, y BigNum) int

	// PublicAffine reads back the stored public point coordinates
	PublicAffine() (x, y BigNum, status int)

	// SetPrivate installs the private scalar, absorbing the handle
	SetPrivate(d BigNum) int

	// Private returns the private scalar (nil for public-only handles)
	Private() (BigNum, int)

	HasPrivate() bool
	Free()
}

// KeyHandle is a generically parsed native key, tagged by kind once at parse
// time.
type KeyHandle interface {
	// Kind returns the algorithm family tag
	Kind() types.KeyKind

	// RSA returns the underlying RSA handle; valid only when Kind is RSA
	RSA() RSAHandle

	// DSA returns the underlying DSA handle; valid only when Kind is DSA
	DSA() DSAHandle

	// EC returns the underlying EC handle; valid only when Kind is EC
	EC() ECHandle

	// Free releases the wrapper; ownership of the inner handle moves to the
	// facade that extracted it
	Free()
}

// Engine is the native crypto engine contract: by-name primitive lookup,
// streaming contexts, big-number arithmetic, key parsing and generation, and
// a drainable error stack. Implementations must make Init idempotent and
// thread-safe; every other method assumes exclusive ownership of the handles
// involved.
type Engine interface {
	// Init performs the one-time engine initialization: algorithm tables,
	// error strings and the random source. Calling it again is a no-op.
	Init()

	// Name identifies the engine implementation
	Name() string

	// VersionText returns a human-readable engine version
	VersionText() string

	// VersionNumber returns the packed numeric engine version used for
	// feature gates
	VersionNumber() uint64

	// CipherByName resolves a cipher primitive; nil means unknown name
	CipherByName(name string) CipherRef

	// DigestByName resolves a digest primitive; nil means unknown name
	DigestByName(name string) DigestRef

	// NewCipherContext allocates an unbound cipher context
	NewCipherContext() CipherContext

	// NewDigestContext allocates an unbound digest context
	NewDigestContext() DigestContext

	// NewHMACContext allocates an unbound HMAC context
	NewHMACContext() HMACContext

	// NewBigNum allocates a zero-valued big number
	NewBigNum() BigNum

	// NewMemBuf wraps data in a native memory buffer
	NewMemBuf(data []byte) MemBuf

	// ParsePEMPrivateKey parses PEM/PKCS8 private key data, calling cb when
	// a passphrase is required. A nil handle means failure with diagnostics
	// on the error stack.
	ParsePEMPrivateKey(buf MemBuf, cb PasswordCallback) KeyHandle

	// ParsePEMPublicKey parses PEM public key data
	ParsePEMPublicKey(buf MemBuf) KeyHandle

	// NewRSA allocates an empty RSA key handle
	NewRSA() RSAHandle

	// RSAGenerateKey generates a key pair into the handle
	RSAGenerateKey(h RSAHandle, bits int, e BigNum) int

	// NewDSA allocates an empty DSA handle
	NewDSA() DSAHandle

	// DSAGenerateParameters generates domain parameters into the handle
	DSAGenerateParameters(h DSAHandle, bits int) int

	// DSAGenerateKey generates a key pair for the handle's parameters
	DSAGenerateKey(h DSAHandle) int

	// DSASign signs a message digest with the handle's private key and
	// returns the DER-encoded signature
	DSASign(h DSAHandle, digest []byte) ([]byte, int)

	// DSAVerify checks a DER-encoded signature over a message digest; a
	// failed status with diagnostics means the signature does not match
	DSAVerify(h DSAHandle, digest, signature []byte) int

	// ECKeyByCurveName allocates an EC handle bound to a named group; nil
	// means the group is unknown, with diagnostics on the error stack
	ECKeyByCurveName(name string) ECHandle

	// ECGenerateKey generates a key pair into the handle
	ECGenerateKey(h ECHandle) int

	// ECKeyCheck validates the handle's key material against its group
	ECKeyCheck(h ECHandle) int

	// PBKDF2 derives keyLen bytes from the password and salt
	PBKDF2(digest DigestRef, password, salt []byte, iterations, keyLen int) ([]byte, int)

	// RandBytes fills b with cryptographically secure random bytes
	RandBytes(b []byte) int

	// PopError removes and returns the oldest record on the error stack;
	// ok is false when the stack is empty
	PopError() (rec types.ErrorRecord, ok bool)

	// ErrString decodes a packed error code to text for diagnostics
	ErrString(code uint64) string
}
