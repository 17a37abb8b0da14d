package backend

import (
	"math/big"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/castlebridge/go-cryptobackend/internal/interfaces"
	"github.com/castlebridge/go-cryptobackend/internal/types"
)

// curveAliases maps SEC curve names to the native names engines register
// them under. Lookups fall through to the given name when no alias exists.
var curveAliases = map[string]string{
	"secp192r1": "prime192v1",
	"secp256r1": "prime256v1",
}

// curveAliasesReverse maps native names back to the SEC names callers use.
var curveAliasesReverse = map[string]string{
	"prime192v1": "secp192r1",
	"prime256v1": "secp256r1",
}

func resolveCurveName(curve string) string {
	if native, ok := curveAliases[curve]; ok {
		return native
	}
	return curve
}

func callerCurveName(native string) string {
	if sec, ok := curveAliasesReverse[native]; ok {
		return sec
	}
	return native
}

// ECPrivateKey wraps a native EC private key handle.
type ECPrivateKey struct {
	id     string
	engine interfaces.Engine
	handle interfaces.ECHandle
	closed bool
}

var _ interfaces.PrivateKey = (*ECPrivateKey)(nil)

func newECPrivateKey(b *Backend, handle interfaces.ECHandle) *ECPrivateKey {
	return &ECPrivateKey{id: uuid.NewString(), engine: b.engine, handle: handle}
}

func (k *ECPrivateKey) Kind() types.KeyKind { return types.KeyKindEC }

func (k *ECPrivateKey) Close() error {
	if k.closed {
		return &types.InvalidParameterError{Message: "EC private key is already closed"}
	}
	k.closed = true
	k.handle.Free()
	return nil
}

// Curve returns the caller-facing curve name.
func (k *ECPrivateKey) Curve() string { return callerCurveName(k.handle.GroupName()) }

// KeySize returns the field size in bits.
func (k *ECPrivateKey) KeySize() int { return k.handle.FieldByteLen() * 8 }

// PrivateValue reads back the private scalar.
func (k *ECPrivateKey) PrivateValue() (*big.Int, error) {
	if k.closed {
		return nil, &types.InvalidParameterError{Message: "EC private key is closed"}
	}
	d, status := k.handle.Private()
	if status != interfaces.StatusOK {
		return nil, internalError(k.engine, "EC handle has no private component")
	}
	return NativeToInt(k.engine, d)
}

// PublicComponents reads back the public point.
func (k *ECPrivateKey) PublicComponents() (interfaces.ECPublicComponents, error) {
	if k.closed {
		return interfaces.ECPublicComponents{}, &types.InvalidParameterError{Message: "EC private key is closed"}
	}
	return ecPublicComponents(k.engine, k.handle)
}

// ECPublicKey wraps a native EC public key handle.
type ECPublicKey struct {
	id     string
	engine interfaces.Engine
	handle interfaces.ECHandle
	closed bool
}

var _ interfaces.PublicKey = (*ECPublicKey)(nil)

func newECPublicKey(b *Backend, handle interfaces.ECHandle) *ECPublicKey {
	return &ECPublicKey{id: uuid.NewString(), engine: b.engine, handle: handle}
}

func (k *ECPublicKey) Kind() types.KeyKind { return types.KeyKindEC }

func (k *ECPublicKey) Close() error {
	if k.closed {
		return &types.InvalidParameterError{Message: "EC public key is already closed"}
	}
	k.closed = true
	k.handle.Free()
	return nil
}

func (k *ECPublicKey) Curve() string { return callerCurveName(k.handle.GroupName()) }

func (k *ECPublicKey) KeySize() int { return k.handle.FieldByteLen() * 8 }

func (k *ECPublicKey) Components() (interfaces.ECPublicComponents, error) {
	if k.closed {
		return interfaces.ECPublicComponents{}, &types.InvalidParameterError{Message: "EC public key is closed"}
	}
	return ecPublicComponents(k.engine, k.handle)
}

func ecPublicComponents(engine interfaces.Engine, handle interfaces.ECHandle) (interfaces.ECPublicComponents, error) {
	var out interfaces.ECPublicComponents
	x, y, status := handle.PublicAffine()
	if status != interfaces.StatusOK {
		return out, internalError(engine, "EC handle has no public point")
	}
	out.Curve = callerCurveName(handle.GroupName())
	var err error
	if out.X, err = NativeToInt(engine, x); err != nil {
		return interfaces.ECPublicComponents{}, err
	}
	if out.Y, err = NativeToInt(engine, y); err != nil {
		return interfaces.ECPublicComponents{}, err
	}
	return out, nil
}

func (b *Backend) ecHandleByCurve(curve string) (interfaces.ECHandle, error) {
	handle := b.engine.ECKeyByCurveName(resolveCurveName(curve))
	if handle == nil {
		DrainErrors(b.engine)
		return nil, &types.UnsupportedAlgorithmError{
			Message: curve + " is not a supported elliptic curve in this engine build",
			Reason:  types.ReasonUnsupportedEllipticCurve,
		}
	}
	return handle, nil
}

// GenerateECPrivateKey generates a key pair on the named curve.
func (b *Backend) GenerateECPrivateKey(curve string) (*ECPrivateKey, error) {
	handle, err := b.ecHandleByCurve(curve)
	if err != nil {
		return nil, err
	}
	if status := b.engine.ECGenerateKey(handle); status != interfaces.StatusOK {
		handle.Free()
		return nil, internalError(b.engine, "EC key generation failed")
	}

	key := newECPrivateKey(b, handle)
	b.logger.Debug("EC key generated",
		zap.String("key_id", key.id),
		zap.String("curve", curve))
	return key, nil
}

// setPublicAffineChecked installs the public point and verifies it survived
// the trip into the engine. Engines reduce out-of-range coordinates
// silently, so the installed point is read back and compared against the
// caller's values.
func (b *Backend) setPublicAffineChecked(handle interfaces.ECHandle, x, y *big.Int) error {
	xBN, err := IntToNative(b.engine, x, nil)
	if err != nil {
		return err
	}
	yBN, err := IntToNative(b.engine, y, nil)
	if err != nil {
		xBN.Free()
		return err
	}

	// the engine absorbs the dups; the originals stay ours for comparison
	if status := handle.SetPublicAffine(xBN.Dup(), yBN.Dup()); status != interfaces.StatusOK {
		xBN.Free()
		yBN.Free()
		return internalError(b.engine, "engine rejected EC public point")
	}

	gotX, gotY, status := handle.PublicAffine()
	if status != interfaces.StatusOK {
		xBN.Free()
		yBN.Free()
		return internalError(b.engine, "EC public point read-back failed")
	}
	mismatch := gotX.Cmp(xBN) != 0 || gotY.Cmp(yBN) != 0
	gotX.Free()
	gotY.Free()
	xBN.Free()
	yBN.Free()
	if mismatch {
		return &types.InvalidParameterError{Message: "invalid EC key coordinates"}
	}
	return nil
}

func (b *Backend) checkECKey(handle interfaces.ECHandle) error {
	if status := b.engine.ECKeyCheck(handle); status != interfaces.StatusOK {
		records := DrainErrors(b.engine)
		for _, rec := range records {
			if rec.Matches(types.ErrLibEC, types.EcFuncKeyCheck, types.EcReasonInvalidPrivateKey) {
				return &types.InvalidParameterError{Message: "invalid EC private value"}
			}
		}
		return &types.InvalidParameterError{Message: "point is not on the curve"}
	}
	return nil
}

// LoadECPublicNumbers builds a public key from a curve name and affine
// coordinates.
func (b *Backend) LoadECPublicNumbers(c interfaces.ECPublicComponents) (*ECPublicKey, error) {
	if c.X == nil || c.Y == nil {
		return nil, &types.InvalidParameterError{Message: "both point coordinates are required"}
	}
	if c.X.Sign() < 0 || c.Y.Sign() < 0 {
		return nil, &types.InvalidParameterError{Message: "point coordinates must be non-negative"}
	}

	handle, err := b.ecHandleByCurve(c.Curve)
	if err != nil {
		return nil, err
	}
	if err := b.setPublicAffineChecked(handle, c.X, c.Y); err != nil {
		handle.Free()
		return nil, err
	}
	if err := b.checkECKey(handle); err != nil {
		handle.Free()
		return nil, err
	}
	return newECPublicKey(b, handle), nil
}

// LoadECPrivateNumbers builds a private key from a private scalar and its
// public point.
func (b *Backend) LoadECPrivateNumbers(private *big.Int, public interfaces.ECPublicComponents) (*ECPrivateKey, error) {
	if private == nil {
		return nil, &types.InvalidParameterError{Message: "private value is required"}
	}
	if public.X == nil || public.Y == nil {
		return nil, &types.InvalidParameterError{Message: "both point coordinates are required"}
	}

	handle, err := b.ecHandleByCurve(public.Curve)
	if err != nil {
		return nil, err
	}
	dBN, err := IntToNative(b.engine, private, nil)
	if err != nil {
		handle.Free()
		return nil, err
	}
	if status := handle.SetPrivate(dBN); status != interfaces.StatusOK {
		handle.Free()
		return nil, internalError(b.engine, "engine rejected EC private value")
	}
	if err := b.setPublicAffineChecked(handle, public.X, public.Y); err != nil {
		handle.Free()
		return nil, err
	}
	if err := b.checkECKey(handle); err != nil {
		handle.Free()
		return nil, err
	}
	return newECPrivateKey(b, handle), nil
}
