// Package backend implements the algorithm-agnostic crypto layer over a
// native engine: capability registry, streaming cipher and digest contexts,
// big-number bridging, key material loading and typed error classification.
// All cryptographic computation is delegated to the engine; this layer owns
// dispatch, lifecycle and error semantics.
package backend

import (
	"go.uber.org/zap"

	"github.com/castlebridge/go-cryptobackend/internal/interfaces"
	"github.com/castlebridge/go-cryptobackend/internal/types"
)

// versionDSAStrongKeys is the minimum engine version for DSA parameter
// generation above 1024 bits.
const versionDSAStrongKeys = 0x1000000f

// Backend drives a native engine through the capability registry. A Backend
// is safe for concurrent use; the handles it hands out are not.
type Backend struct {
	engine   interfaces.Engine
	registry *CipherRegistry
	logger   *zap.Logger
}

var _ interfaces.CryptoBackend = (*Backend)(nil)

// Option configures a Backend during construction.
type Option func(*Backend)

// WithLogger attaches a structured logger; the default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Backend) { b.logger = logger }
}

// New builds a Backend over the engine, running the engine's one-time
// initialization and installing the default cipher registrations. The
// default table is a fixed compile-time set, so a registration conflict is
// a programming error and panics.
func New(engine interfaces.Engine, opts ...Option) *Backend {
	engine.Init()

	b := &Backend{
		engine:   engine,
		registry: NewCipherRegistry(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}

	if err := registerDefaultCiphers(b.registry); err != nil {
		panic("backend: default cipher table conflict: " + err.Error())
	}
	return b
}

// Name identifies the backend implementation.
func (b *Backend) Name() string { return "native-engine" }

// VersionText reports the engine's version string.
func (b *Backend) VersionText() string { return b.engine.VersionText() }

// Engine exposes the underlying engine to sibling constructors.
func (b *Backend) Engine() interfaces.Engine { return b.engine }

// Registry exposes the cipher registry, primarily for capability probing.
func (b *Backend) Registry() *CipherRegistry { return b.registry }

// CipherSupported reports whether the algorithm/mode pair resolves to a
// native primitive or a software fallback.
func (b *Backend) CipherSupported(algorithm types.CipherAlgorithm, mode types.CipherMode) bool {
	if b.nativeCipherSupported(algorithm, mode) {
		return true
	}
	return ctrFallbackApplies(algorithm, mode)
}

func (b *Backend) nativeCipherSupported(algorithm types.CipherAlgorithm, mode types.CipherMode) bool {
	return b.registry.Resolve(b.engine, algorithm, mode) != nil
}

// HashSupported reports whether the digest name resolves in the engine.
func (b *Backend) HashSupported(algorithm types.HashAlgorithm) bool {
	return b.engine.DigestByName(algorithm.Name()) != nil
}

// HMACSupported matches HashSupported: any resolvable digest can be keyed.
func (b *Backend) HMACSupported(algorithm types.HashAlgorithm) bool {
	return b.HashSupported(algorithm)
}

// PBKDF2Supported matches HMACSupported.
func (b *Backend) PBKDF2Supported(algorithm types.HashAlgorithm) bool {
	return b.HMACSupported(algorithm)
}

// DerivePBKDF2 derives length bytes of key material from keyMaterial.
func (b *Backend) DerivePBKDF2(algorithm types.HashAlgorithm, length int, salt []byte, iterations int, keyMaterial []byte) ([]byte, error) {
	if length <= 0 {
		return nil, &types.InvalidParameterError{Message: "derived key length must be positive"}
	}
	if iterations <= 0 {
		return nil, &types.InvalidParameterError{Message: "iteration count must be positive"}
	}

	ref := b.engine.DigestByName(algorithm.Name())
	if ref == nil {
		return nil, &types.UnsupportedAlgorithmError{
			Message: algorithm.Name() + " is not supported by this engine build",
			Reason:  types.ReasonUnsupportedHash,
		}
	}

	out, status := b.engine.PBKDF2(ref, keyMaterial, salt, iterations, length)
	if status != interfaces.StatusOK {
		return nil, internalError(b.engine, "native PBKDF2 rejected derived parameters")
	}
	return out, nil
}

// EllipticCurveSupported reports whether the named curve resolves in the
// engine, after aliasing.
func (b *Backend) EllipticCurveSupported(curve string) bool {
	handle := b.engine.ECKeyByCurveName(resolveCurveName(curve))
	if handle == nil {
		// resolution failure leaves a diagnostic that must not leak into
		// the next operation
		DrainErrors(b.engine)
		return false
	}
	handle.Free()
	return true
}
