package backend

import (
	"math/big"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/castlebridge/go-cryptobackend/internal/interfaces"
	"github.com/castlebridge/go-cryptobackend/internal/types"
)

// DSAParameters wraps a native handle holding only domain parameters.
type DSAParameters struct {
	id     string
	engine interfaces.Engine
	handle interfaces.DSAHandle
	closed bool
}

func (p *DSAParameters) Close() error {
	if p.closed {
		return &types.InvalidParameterError{Message: "DSA parameters are already closed"}
	}
	p.closed = true
	p.handle.Free()
	return nil
}

// Components reads back p, q and g.
func (p *DSAParameters) Components() (interfaces.DSAParameterComponents, error) {
	if p.closed {
		return interfaces.DSAParameterComponents{}, &types.InvalidParameterError{Message: "DSA parameters are closed"}
	}
	return dsaParameterComponents(p.engine, p.handle)
}

// DSAPrivateKey wraps a native DSA private key handle.
type DSAPrivateKey struct {
	id     string
	engine interfaces.Engine
	handle interfaces.DSAHandle
	closed bool
}

var _ interfaces.PrivateKey = (*DSAPrivateKey)(nil)

func newDSAPrivateKey(b *Backend, handle interfaces.DSAHandle) *DSAPrivateKey {
	return &DSAPrivateKey{id: uuid.NewString(), engine: b.engine, handle: handle}
}

func (k *DSAPrivateKey) Kind() types.KeyKind { return types.KeyKindDSA }

func (k *DSAPrivateKey) Close() error {
	if k.closed {
		return &types.InvalidParameterError{Message: "DSA private key is already closed"}
	}
	k.closed = true
	k.handle.Free()
	return nil
}

// KeySize returns the prime modulus size in bits.
func (k *DSAPrivateKey) KeySize() (int, error) {
	if k.closed {
		return 0, &types.InvalidParameterError{Message: "DSA private key is closed"}
	}
	p, _, _, status := k.handle.Parameters()
	if status != interfaces.StatusOK {
		return 0, internalError(k.engine, "DSA handle has no parameters")
	}
	return p.BitLen(), nil
}

// Parameters reads back the domain parameters.
func (k *DSAPrivateKey) Parameters() (interfaces.DSAParameterComponents, error) {
	if k.closed {
		return interfaces.DSAParameterComponents{}, &types.InvalidParameterError{Message: "DSA private key is closed"}
	}
	return dsaParameterComponents(k.engine, k.handle)
}

// Components reads back the public and private values.
func (k *DSAPrivateKey) Components() (y, x *big.Int, err error) {
	if k.closed {
		return nil, nil, &types.InvalidParameterError{Message: "DSA private key is closed"}
	}
	yBN, xBN, status := k.handle.KeyPair()
	if status != interfaces.StatusOK || xBN == nil {
		return nil, nil, internalError(k.engine, "DSA handle has no private component")
	}
	if y, err = NativeToInt(k.engine, yBN); err != nil {
		return nil, nil, err
	}
	if x, err = NativeToInt(k.engine, xBN); err != nil {
		return nil, nil, err
	}
	return y, x, nil
}

// DSAPublicKey wraps a native DSA public key handle.
type DSAPublicKey struct {
	id     string
	engine interfaces.Engine
	handle interfaces.DSAHandle
	closed bool
}

var _ interfaces.PublicKey = (*DSAPublicKey)(nil)

func newDSAPublicKey(b *Backend, handle interfaces.DSAHandle) *DSAPublicKey {
	return &DSAPublicKey{id: uuid.NewString(), engine: b.engine, handle: handle}
}

func (k *DSAPublicKey) Kind() types.KeyKind { return types.KeyKindDSA }

func (k *DSAPublicKey) Close() error {
	if k.closed {
		return &types.InvalidParameterError{Message: "DSA public key is already closed"}
	}
	k.closed = true
	k.handle.Free()
	return nil
}

func (k *DSAPublicKey) Parameters() (interfaces.DSAParameterComponents, error) {
	if k.closed {
		return interfaces.DSAParameterComponents{}, &types.InvalidParameterError{Message: "DSA public key is closed"}
	}
	return dsaParameterComponents(k.engine, k.handle)
}

// PublicValue reads back y.
func (k *DSAPublicKey) PublicValue() (*big.Int, error) {
	if k.closed {
		return nil, &types.InvalidParameterError{Message: "DSA public key is closed"}
	}
	yBN, _, status := k.handle.KeyPair()
	if status != interfaces.StatusOK {
		return nil, internalError(k.engine, "DSA handle has no public component")
	}
	return NativeToInt(k.engine, yBN)
}

func dsaParameterComponents(engine interfaces.Engine, handle interfaces.DSAHandle) (interfaces.DSAParameterComponents, error) {
	var out interfaces.DSAParameterComponents
	p, q, g, status := handle.Parameters()
	if status != interfaces.StatusOK {
		return out, internalError(engine, "DSA handle has no parameters")
	}
	var err error
	if out.P, err = NativeToInt(engine, p); err != nil {
		return interfaces.DSAParameterComponents{}, err
	}
	if out.Q, err = NativeToInt(engine, q); err != nil {
		return interfaces.DSAParameterComponents{}, err
	}
	if out.G, err = NativeToInt(engine, g); err != nil {
		return interfaces.DSAParameterComponents{}, err
	}
	return out, nil
}

func (b *Backend) validateDSAKeySize(bits int) error {
	switch bits {
	case 1024, 2048, 3072:
	default:
		return &types.InvalidParameterError{
			Message: "key size must be 1024, 2048 or 3072 bits",
		}
	}
	// engines from before the strong-parameter generator only handle the
	// legacy size
	if bits > 1024 && b.engine.VersionNumber() < versionDSAStrongKeys {
		return &types.UnsupportedAlgorithmError{
			Message: "this engine version only supports generation of 1024 bit DSA keys",
			Reason:  types.ReasonUnsupportedKeySize,
		}
	}
	return nil
}

// GenerateDSAParameters generates fresh domain parameters of the given size.
func (b *Backend) GenerateDSAParameters(bits int) (*DSAParameters, error) {
	if err := b.validateDSAKeySize(bits); err != nil {
		return nil, err
	}

	handle := b.engine.NewDSA()
	if status := b.engine.DSAGenerateParameters(handle, bits); status != interfaces.StatusOK {
		handle.Free()
		return nil, internalError(b.engine, "DSA parameter generation failed")
	}

	params := &DSAParameters{id: uuid.NewString(), engine: b.engine, handle: handle}
	b.logger.Debug("DSA parameters generated",
		zap.String("parameters_id", params.id),
		zap.Int("bits", bits))
	return params, nil
}

// GenerateDSAPrivateKey generates a key pair under existing domain
// parameters. The parameters object stays usable and must still be closed
// by the caller.
func (b *Backend) GenerateDSAPrivateKey(params *DSAParameters) (*DSAPrivateKey, error) {
	if params.closed {
		return nil, &types.InvalidParameterError{Message: "DSA parameters are closed"}
	}
	p, q, g, status := params.handle.Parameters()
	if status != interfaces.StatusOK {
		return nil, internalError(b.engine, "DSA handle has no parameters")
	}

	handle := b.engine.NewDSA()
	if status := handle.SetParameters(p.Dup(), q.Dup(), g.Dup()); status != interfaces.StatusOK {
		handle.Free()
		return nil, internalError(b.engine, "engine rejected DSA parameters")
	}
	if status := b.engine.DSAGenerateKey(handle); status != interfaces.StatusOK {
		handle.Free()
		return nil, internalError(b.engine, "DSA key generation failed")
	}

	key := newDSAPrivateKey(b, handle)
	b.logger.Debug("DSA key generated", zap.String("key_id", key.id))
	return key, nil
}

// GenerateDSAPrivateKeyAndParameters generates parameters and a key pair in
// one step.
func (b *Backend) GenerateDSAPrivateKeyAndParameters(bits int) (*DSAPrivateKey, error) {
	if err := b.validateDSAKeySize(bits); err != nil {
		return nil, err
	}

	handle := b.engine.NewDSA()
	if status := b.engine.DSAGenerateParameters(handle, bits); status != interfaces.StatusOK {
		handle.Free()
		return nil, internalError(b.engine, "DSA parameter generation failed")
	}
	if status := b.engine.DSAGenerateKey(handle); status != interfaces.StatusOK {
		handle.Free()
		return nil, internalError(b.engine, "DSA key generation failed")
	}
	return newDSAPrivateKey(b, handle), nil
}

func validateDSAParameterComponents(c interfaces.DSAParameterComponents) error {
	if c.P == nil || c.Q == nil || c.G == nil {
		return &types.InvalidParameterError{Message: "p, q and g are required"}
	}
	return nil
}

func (b *Backend) newDSAHandleFromComponents(c interfaces.DSAParameterComponents, y, x *big.Int) (interfaces.DSAHandle, error) {
	values := []*big.Int{c.P, c.Q, c.G}
	bns := make([]interfaces.BigNum, 0, 5)
	free := func() {
		for _, bn := range bns {
			bn.Free()
		}
	}
	for _, v := range values {
		bn, err := IntToNative(b.engine, v, nil)
		if err != nil {
			free()
			return nil, err
		}
		bns = append(bns, bn)
	}

	var yBN, xBN interfaces.BigNum
	if y != nil {
		bn, err := IntToNative(b.engine, y, nil)
		if err != nil {
			free()
			return nil, err
		}
		yBN = bn
		bns = append(bns, bn)
	}
	if x != nil {
		bn, err := IntToNative(b.engine, x, nil)
		if err != nil {
			free()
			return nil, err
		}
		xBN = bn
		bns = append(bns, bn)
	}

	handle := b.engine.NewDSA()
	if status := handle.SetParameters(bns[0], bns[1], bns[2]); status != interfaces.StatusOK {
		if yBN != nil {
			yBN.Free()
		}
		if xBN != nil {
			xBN.Free()
		}
		handle.Free()
		return nil, internalError(b.engine, "engine rejected DSA parameters")
	}
	if yBN != nil {
		if status := handle.SetKeyPair(yBN, xBN); status != interfaces.StatusOK {
			handle.Free()
			return nil, internalError(b.engine, "engine rejected DSA key pair")
		}
	}
	return handle, nil
}

// LoadDSAParameterNumbers builds a parameter object from explicit values.
func (b *Backend) LoadDSAParameterNumbers(c interfaces.DSAParameterComponents) (*DSAParameters, error) {
	if err := validateDSAParameterComponents(c); err != nil {
		return nil, err
	}
	handle, err := b.newDSAHandleFromComponents(c, nil, nil)
	if err != nil {
		return nil, err
	}
	return &DSAParameters{id: uuid.NewString(), engine: b.engine, handle: handle}, nil
}

// LoadDSAPrivateNumbers builds a private key from explicit values, checking
// that the public value matches the private one.
func (b *Backend) LoadDSAPrivateNumbers(c interfaces.DSAParameterComponents, y, x *big.Int) (*DSAPrivateKey, error) {
	if err := validateDSAParameterComponents(c); err != nil {
		return nil, err
	}
	if y == nil || x == nil {
		return nil, &types.InvalidParameterError{Message: "public and private values are required"}
	}
	if new(big.Int).Exp(c.G, x, c.P).Cmp(y) != 0 {
		return nil, &types.InvalidParameterError{
			Message: "public value does not match the private value",
		}
	}

	handle, err := b.newDSAHandleFromComponents(c, y, x)
	if err != nil {
		return nil, err
	}
	return newDSAPrivateKey(b, handle), nil
}

// LoadDSAPublicNumbers builds a public key from explicit values.
func (b *Backend) LoadDSAPublicNumbers(c interfaces.DSAParameterComponents, y *big.Int) (*DSAPublicKey, error) {
	if err := validateDSAParameterComponents(c); err != nil {
		return nil, err
	}
	if y == nil {
		return nil, &types.InvalidParameterError{Message: "public value is required"}
	}

	handle, err := b.newDSAHandleFromComponents(c, y, nil)
	if err != nil {
		return nil, err
	}
	return newDSAPublicKey(b, handle), nil
}
