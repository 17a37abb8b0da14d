package types

import "fmt"

// CipherMode describes a mode of operation. Modes that carry an
// initialization vector or nonce validate its length against the algorithm
// they are paired with before any native call is made.
type CipherMode interface {
	// Name returns the mode name used to build native lookup names
	Name() string

	// ValidateFor checks mode parameters against the paired algorithm
	ValidateFor(algorithm CipherAlgorithm) error
}

// ModeWithIV is implemented by modes that carry an IV or nonce.
type ModeWithIV interface {
	CipherMode

	// InitializationVector returns the raw IV or nonce bytes
	InitializationVector() []byte
}

func validateIVLength(mode string, iv []byte, algorithm CipherAlgorithm) error {
	if len(iv)*8 != algorithm.BlockSize() {
		return &InvalidParameterError{
			Message: fmt.Sprintf("invalid IV size (%d) for %s", len(iv)*8, mode),
		}
	}
	return nil
}

// CBC is cipher block chaining.
type CBC struct {
	IV []byte
}

func (m CBC) Name() string                 { return "cbc" }
func (m CBC) InitializationVector() []byte { return m.IV }
func (m CBC) ValidateFor(a CipherAlgorithm) error {
	return validateIVLength(m.Name(), m.IV, a)
}

// ECB is electronic codebook. It carries no IV.
type ECB struct{}

func (m ECB) Name() string                        { return "ecb" }
func (m ECB) ValidateFor(a CipherAlgorithm) error { return nil }

// OFB is output feedback.
type OFB struct {
	IV []byte
}

func (m OFB) Name() string                 { return "ofb" }
func (m OFB) InitializationVector() []byte { return m.IV }
func (m OFB) ValidateFor(a CipherAlgorithm) error {
	return validateIVLength(m.Name(), m.IV, a)
}

// CFB is cipher feedback with full-block shifts.
type CFB struct {
	IV []byte
}

func (m CFB) Name() string                 { return "cfb" }
func (m CFB) InitializationVector() []byte { return m.IV }
func (m CFB) ValidateFor(a CipherAlgorithm) error {
	return validateIVLength(m.Name(), m.IV, a)
}

// CFB8 is cipher feedback with 8 bit shifts.
type CFB8 struct {
	IV []byte
}

func (m CFB8) Name() string                 { return "cfb8" }
func (m CFB8) InitializationVector() []byte { return m.IV }
func (m CFB8) ValidateFor(a CipherAlgorithm) error {
	return validateIVLength(m.Name(), m.IV, a)
}

// CTR is counter mode. The nonce must be exactly one block wide.
type CTR struct {
	Nonce []byte
}

func (m CTR) Name() string                 { return "ctr" }
func (m CTR) InitializationVector() []byte { return m.Nonce }
func (m CTR) ValidateFor(a CipherAlgorithm) error {
	return validateIVLength(m.Name(), m.Nonce, a)
}

// GCM is Galois/counter mode. The nonce length is free but must be non-empty.
type GCM struct {
	Nonce []byte
	Tag   []byte
}

func (m GCM) Name() string                 { return "gcm" }
func (m GCM) InitializationVector() []byte { return m.Nonce }
func (m GCM) ValidateFor(a CipherAlgorithm) error {
	if len(m.Nonce) == 0 {
		return &InvalidParameterError{Message: "GCM nonce must not be empty"}
	}
	return nil
}

// NoMode marks stream ciphers that take no mode of operation.
type NoMode struct{}

func (m NoMode) Name() string                        { return "" }
func (m NoMode) ValidateFor(a CipherAlgorithm) error { return nil }
