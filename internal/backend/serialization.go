package backend

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/castlebridge/go-cryptobackend/internal/interfaces"
	"github.com/castlebridge/go-cryptobackend/internal/types"
)

// passwordAdapter bridges a caller-supplied password to the engine's
// callback convention. It records how many times the engine asked for a password
// and any condition that made the callback refuse, so the loader can turn
// callback-level failures into typed errors after the parse returns.
type passwordAdapter struct {
	password  []byte
	called    int
	condition error
}

// Callback writes the password into the engine-owned buffer. A refusal
// returns 0 and leaves the reason in condition; the engine then fails the
// decrypt and the loader surfaces condition instead of the generic parse
// diagnostics.
func (a *passwordAdapter) Callback(buf []byte, rwflag int) int {
	a.called++
	if len(a.password) == 0 {
		a.condition = &types.InvalidParameterError{
			Message: "password was not given but private key is encrypted",
		}
		return 0
	}
	if len(a.password) > len(buf) {
		a.condition = &types.InvalidParameterError{
			Message: fmt.Sprintf("passwords longer than %d bytes are not supported by this engine", len(buf)),
		}
		return 0
	}
	return copy(buf, a.password)
}

// LoadPEMPrivateKey parses PEM private key data of any supported family,
// decrypting with password when the data is encrypted.
func (b *Backend) LoadPEMPrivateKey(data, password []byte) (interfaces.PrivateKey, error) {
	buf := b.engine.NewMemBuf(data)
	defer buf.Free()

	adapter := &passwordAdapter{password: password}
	handle := b.engine.ParsePEMPrivateKey(buf, adapter.Callback)
	if handle == nil {
		records := DrainErrors(b.engine)
		if adapter.condition != nil {
			return nil, adapter.condition
		}
		return nil, ClassifyKeyLoadError(records)
	}

	if len(password) > 0 && adapter.called == 0 {
		freeParsedKey(handle)
		return nil, &types.InvalidParameterError{
			Message: "password was given but private key is not encrypted",
		}
	}

	b.logger.Debug("private key loaded",
		zap.String("kind", handle.Kind().String()),
		zap.Bool("encrypted", adapter.called > 0))
	return b.wrapPrivateKey(handle)
}

// LoadPEMPublicKey parses PEM public key data of any supported family.
func (b *Backend) LoadPEMPublicKey(data []byte) (interfaces.PublicKey, error) {
	buf := b.engine.NewMemBuf(data)
	defer buf.Free()

	handle := b.engine.ParsePEMPublicKey(buf)
	if handle == nil {
		return nil, ClassifyKeyLoadError(DrainErrors(b.engine))
	}

	b.logger.Debug("public key loaded", zap.String("kind", handle.Kind().String()))
	return b.wrapPublicKey(handle)
}

func (b *Backend) wrapPrivateKey(handle interfaces.KeyHandle) (interfaces.PrivateKey, error) {
	defer handle.Free()
	switch handle.Kind() {
	case types.KeyKindRSA:
		return newRSAPrivateKey(b, handle.RSA()), nil
	case types.KeyKindDSA:
		return newDSAPrivateKey(b, handle.DSA()), nil
	case types.KeyKindEC:
		return newECPrivateKey(b, handle.EC()), nil
	default:
		return nil, &types.UnsupportedAlgorithmError{
			Message: "unsupported public key algorithm in private key data",
			Reason:  types.ReasonUnsupportedPublicKeyAlgorithm,
		}
	}
}

func (b *Backend) wrapPublicKey(handle interfaces.KeyHandle) (interfaces.PublicKey, error) {
	defer handle.Free()
	switch handle.Kind() {
	case types.KeyKindRSA:
		return newRSAPublicKey(b, handle.RSA()), nil
	case types.KeyKindDSA:
		return newDSAPublicKey(b, handle.DSA()), nil
	case types.KeyKindEC:
		return newECPublicKey(b, handle.EC()), nil
	default:
		return nil, &types.UnsupportedAlgorithmError{
			Message: "unsupported public key algorithm in public key data",
			Reason:  types.ReasonUnsupportedPublicKeyAlgorithm,
		}
	}
}

// freeParsedKey releases a parsed key that will never reach a facade: the
// inner family handle first, then the wrapper.
func freeParsedKey(handle interfaces.KeyHandle) {
	switch handle.Kind() {
	case types.KeyKindRSA:
		handle.RSA().Free()
	case types.KeyKindDSA:
		handle.DSA().Free()
	case types.KeyKindEC:
		handle.EC().Free()
	}
	handle.Free()
}
