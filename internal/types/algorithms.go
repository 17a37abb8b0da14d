package types

import "fmt"

// CipherAlgorithm describes a symmetric cipher family carrying a concrete key.
// Key sizes are validated at construction time, so a CipherAlgorithm value is
// always well-formed.
type CipherAlgorithm interface {
	// Name returns the family name used to build native lookup names
	Name() string

	// BlockSize returns the cipher block size in bits
	BlockSize() int

	// KeySize returns the size of the configured key in bits
	KeySize() int

	// Key returns the raw key material
	Key() []byte
}

func validateKeySize(name string, key []byte, sizes []int) error {
	bits := len(key) * 8
	for _, s := range sizes {
		if bits == s {
			return nil
		}
	}
	return &InvalidParameterError{
		Message: fmt.Sprintf("invalid key size (%d) for %s", bits, name),
	}
}

// AES is the AES family (128/192/256 bit keys, 128 bit blocks).
type AES struct {
	key []byte
}

func NewAES(key []byte) (*AES, error) {
	if err := validateKeySize("AES", key, []int{128, 192, 256}); err != nil {
		return nil, err
	}
	return &AES{key: key}, nil
}

func (a *AES) Name() string   { return "aes" }
func (a *AES) BlockSize() int { return 128 }
func (a *AES) KeySize() int   { return len(a.key) * 8 }
func (a *AES) Key() []byte    { return a.key }

// Camellia has the same block and key geometry as AES.
type Camellia struct {
	key []byte
}

func NewCamellia(key []byte) (*Camellia, error) {
	if err := validateKeySize("camellia", key, []int{128, 192, 256}); err != nil {
		return nil, err
	}
	return &Camellia{key: key}, nil
}

func (c *Camellia) Name() string   { return "camellia" }
func (c *Camellia) BlockSize() int { return 128 }
func (c *Camellia) KeySize() int   { return len(c.key) * 8 }
func (c *Camellia) Key() []byte    { return c.key }

// TripleDES is three-key triple DES. One-key (8 byte) and two-key (16 byte)
// inputs are expanded to the full 24 byte form before validation.
type TripleDES struct {
	key []byte
}

func NewTripleDES(key []byte) (*TripleDES, error) {
	switch len(key) {
	case 8:
		key = append(append(append([]byte{}, key...), key...), key...)
	case 16:
		key = append(append([]byte{}, key...), key[:8]...)
	}
	if err := validateKeySize("3DES", key, []int{192}); err != nil {
		return nil, err
	}
	return &TripleDES{key: key}, nil
}

func (t *TripleDES) Name() string   { return "3des" }
func (t *TripleDES) BlockSize() int { return 64 }
func (t *TripleDES) KeySize() int   { return len(t.key) * 8 }
func (t *TripleDES) Key() []byte    { return t.key }

// Blowfish accepts any key from 32 to 448 bits in 8 bit steps.
type Blowfish struct {
	key []byte
}

func NewBlowfish(key []byte) (*Blowfish, error) {
	bits := len(key) * 8
	if bits < 32 || bits > 448 {
		return nil, &InvalidParameterError{
			Message: fmt.Sprintf("invalid key size (%d) for Blowfish", bits),
		}
	}
	return &Blowfish{key: key}, nil
}

func (b *Blowfish) Name() string   { return "blowfish" }
func (b *Blowfish) BlockSize() int { return 64 }
func (b *Blowfish) KeySize() int   { return len(b.key) * 8 }
func (b *Blowfish) Key() []byte    { return b.key }

// CAST5 accepts keys from 40 to 128 bits in 8 bit steps.
type CAST5 struct {
	key []byte
}

func NewCAST5(key []byte) (*CAST5, error) {
	bits := len(key) * 8
	if bits < 40 || bits > 128 || bits%8 != 0 {
		return nil, &InvalidParameterError{
			Message: fmt.Sprintf("invalid key size (%d) for CAST5", bits),
		}
	}
	return &CAST5{key: key}, nil
}

func (c *CAST5) Name() string   { return "cast5" }
func (c *CAST5) BlockSize() int { return 64 }
func (c *CAST5) KeySize() int   { return len(c.key) * 8 }
func (c *CAST5) Key() []byte    { return c.key }

// IDEA uses a fixed 128 bit key.
type IDEA struct {
	key []byte
}

func NewIDEA(key []byte) (*IDEA, error) {
	if err := validateKeySize("IDEA", key, []int{128}); err != nil {
		return nil, err
	}
	return &IDEA{key: key}, nil
}

func (i *IDEA) Name() string   { return "idea" }
func (i *IDEA) BlockSize() int { return 64 }
func (i *IDEA) KeySize() int   { return len(i.key) * 8 }
func (i *IDEA) Key() []byte    { return i.key }

// SEED uses a fixed 128 bit key.
type SEED struct {
	key []byte
}

func NewSEED(key []byte) (*SEED, error) {
	if err := validateKeySize("SEED", key, []int{128}); err != nil {
		return nil, err
	}
	return &SEED{key: key}, nil
}

func (s *SEED) Name() string   { return "seed" }
func (s *SEED) BlockSize() int { return 128 }
func (s *SEED) KeySize() int   { return len(s.key) * 8 }
func (s *SEED) Key() []byte    { return s.key }

// ARC4 is a stream cipher and is always used without a mode.
type ARC4 struct {
	key []byte
}

func NewARC4(key []byte) (*ARC4, error) {
	if err := validateKeySize("RC4", key, []int{40, 56, 64, 80, 128, 192, 256}); err != nil {
		return nil, err
	}
	return &ARC4{key: key}, nil
}

func (r *ARC4) Name() string   { return "rc4" }
func (r *ARC4) BlockSize() int { return 8 }
func (r *ARC4) KeySize() int   { return len(r.key) * 8 }
func (r *ARC4) Key() []byte    { return r.key }

// HashAlgorithm identifies a digest by its native lookup name.
type HashAlgorithm struct {
	name       string
	digestSize int // bytes
	blockSize  int // bytes
}

func (h HashAlgorithm) Name() string    { return h.name }
func (h HashAlgorithm) DigestSize() int { return h.digestSize }
func (h HashAlgorithm) BlockSize() int  { return h.blockSize }

var (
	MD5    = HashAlgorithm{name: "md5", digestSize: 16, blockSize: 64}
	SHA1   = HashAlgorithm{name: "sha1", digestSize: 20, blockSize: 64}
	SHA224 = HashAlgorithm{name: "sha224", digestSize: 28, blockSize: 64}
	SHA256 = HashAlgorithm{name: "sha256", digestSize: 32, blockSize: 64}
	SHA384 = HashAlgorithm{name: "sha384", digestSize: 48, blockSize: 128}
	SHA512 = HashAlgorithm{name: "sha512", digestSize: 64, blockSize: 128}
)
